package shopping

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mealshare_echo/internal/models"
)

// EventType names a pushed event
type EventType string

const (
	EventSync             EventType = "sync"
	EventItemToggled      EventType = "item_toggled"
	EventListRecalculated EventType = "list_recalculated"
)

// Event is one message pushed to the subscribers of a plan. A connection
// whose ID equals Origin does not receive it.
type Event struct {
	Type   EventType   `json:"type"`
	Origin string      `json:"origin,omitempty"`
	Data   interface{} `json:"data"`
}

type ItemToggled struct {
	MentionKey string `json:"mentionKey"`
	IsChecked  bool   `json:"isChecked"`
	Actor      string `json:"actor"`
}

type ListRecalculated struct {
	ShoppingList models.ShoppingList `json:"shoppingList"`
	UpdatedAt    *time.Time          `json:"updatedAt"`
}

// SyncState is sent first on every new stream so the client starts from the
// current state before applying pushed events.
type SyncState struct {
	ConnectionID string              `json:"connectionId"`
	ShoppingList models.ShoppingList `json:"shoppingList"`
	UpdatedAt    *time.Time          `json:"updatedAt"`
	Items        map[string]bool     `json:"items"`
}

// ConnState is the lifecycle state of a subscriber connection
type ConnState int32

const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "CONNECTING"
	case ConnOpen:
		return "OPEN"
	case ConnClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Conn is one subscriber of a plan. Events are buffered; when the buffer is
// full the delivery fails and the hub closes the connection.
type Conn struct {
	ID     string
	PlanID uint
	UserID string

	state  atomic.Int32
	mu     sync.Mutex
	events chan Event
}

func newConn(planID uint, userID string, buffer int) *Conn {
	return &Conn{
		ID:     uuid.New().String(),
		PlanID: planID,
		UserID: userID,
		events: make(chan Event, buffer),
	}
}

// Events is closed when the connection is closed.
func (c *Conn) Events() <-chan Event {
	return c.events
}

func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

// deliver never blocks.
func (c *Conn) deliver(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != ConnOpen {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Conn) open() {
	c.state.Store(int32(ConnOpen))
}

// close reports whether this call did the transition to CLOSED.
func (c *Conn) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == ConnClosed {
		return false
	}
	c.state.Store(int32(ConnClosed))
	close(c.events)
	return true
}

type planConns struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// Hub maps plan ids to their open connections and fans events out to them.
// It is in-process only: subscribers attached to another server instance
// never see events published here.
type Hub struct {
	mu     sync.RWMutex
	plans  map[uint]*planConns
	buffer int
	closed bool
}

// NewHub creates a Hub whose connections buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{plans: make(map[uint]*planConns), buffer: buffer}
}

// Subscribe registers a new OPEN connection under planID.
func (h *Hub) Subscribe(planID uint, userID string) (*Conn, error) {
	c := newConn(planID, userID, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.close()
		return nil, ErrHubClosed
	}

	pc, ok := h.plans[planID]
	if !ok {
		pc = &planConns{conns: make(map[string]*Conn)}
		h.plans[planID] = pc
	}
	// OPEN before it is visible to Publish.
	c.open()
	pc.mu.Lock()
	pc.conns[c.ID] = c
	count := len(pc.conns)
	pc.mu.Unlock()

	log.Printf("[hub] connection %s opened on plan %d (%d open, %d plans)", c.ID, planID, count, len(h.plans))
	return c, nil
}

// Unsubscribe closes c and removes it from the registry, pruning the plan's
// entry when it was the last one. Safe to call more than once.
func (h *Hub) Unsubscribe(c *Conn) {
	if c == nil {
		return
	}

	h.mu.Lock()
	remaining := 0
	if pc, ok := h.plans[c.PlanID]; ok {
		pc.mu.Lock()
		delete(pc.conns, c.ID)
		remaining = len(pc.conns)
		pc.mu.Unlock()
		if remaining == 0 {
			delete(h.plans, c.PlanID)
		}
	}
	h.mu.Unlock()

	if c.close() {
		log.Printf("[hub] connection %s closed on plan %d (%d remaining)", c.ID, c.PlanID, remaining)
	}
}

// Publish delivers ev to every OPEN connection of planID and returns how many
// received it. A connection that cannot take the event is closed and pruned;
// the others still get it. Publish never fails.
func (h *Hub) Publish(planID uint, ev Event) int {
	h.mu.RLock()
	pc := h.plans[planID]
	h.mu.RUnlock()
	if pc == nil {
		return 0
	}

	pc.mu.RLock()
	targets := make([]*Conn, 0, len(pc.conns))
	for _, c := range pc.conns {
		targets = append(targets, c)
	}
	pc.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if ev.Origin != "" && c.ID == ev.Origin {
			continue
		}
		if !c.deliver(ev) {
			log.Printf("[hub] %v: %s event to connection %s on plan %d, pruning", ErrDeliveryFailure, ev.Type, c.ID, planID)
			h.Unsubscribe(c)
			continue
		}
		delivered++
	}
	return delivered
}

// DisconnectPlan closes every connection of planID.
func (h *Hub) DisconnectPlan(planID uint) {
	h.mu.Lock()
	pc := h.plans[planID]
	delete(h.plans, planID)
	h.mu.Unlock()

	if pc == nil {
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for _, c := range pc.conns {
		c.close()
	}
}

// OwnedBy reports whether connID is an open connection of planID held by
// userID.
func (h *Hub) OwnedBy(planID uint, connID, userID string) bool {
	h.mu.RLock()
	pc := h.plans[planID]
	h.mu.RUnlock()
	if pc == nil {
		return false
	}
	pc.mu.RLock()
	c := pc.conns[connID]
	pc.mu.RUnlock()
	return c != nil && c.UserID == userID && c.State() == ConnOpen
}

// ConnCount returns the number of registered connections for planID.
func (h *Hub) ConnCount(planID uint) int {
	h.mu.RLock()
	pc := h.plans[planID]
	h.mu.RUnlock()
	if pc == nil {
		return 0
	}
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.conns)
}

// PlanCount returns the number of plans with at least one connection.
func (h *Hub) PlanCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.plans)
}

// Close closes every connection and rejects further subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	plans := h.plans
	h.plans = make(map[uint]*planConns)
	h.closed = true
	h.mu.Unlock()

	for _, pc := range plans {
		pc.mu.Lock()
		for _, c := range pc.conns {
			c.close()
		}
		pc.mu.Unlock()
	}
}
