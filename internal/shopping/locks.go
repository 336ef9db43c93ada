package shopping

import "sync"

// PlanLocks hands out one mutex per plan id. Entries are dropped once no
// goroutine holds or waits on them.
type PlanLocks struct {
	mu    sync.Mutex
	locks map[uint]*planLock
}

type planLock struct {
	mu   sync.Mutex
	refs int
}

func NewPlanLocks() *PlanLocks {
	return &PlanLocks{locks: make(map[uint]*planLock)}
}

// Lock blocks until the plan's mutex is held and returns its release func.
func (l *PlanLocks) Lock(planID uint) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.locks[planID]
	if !ok {
		pl = &planLock{}
		l.locks[planID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, planID)
		}
		l.mu.Unlock()
	}
}

func (l *PlanLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
