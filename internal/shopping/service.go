package shopping

import (
	"context"

	"mealshare_echo/internal/models"
)

// Service exposes the shopping list operations with membership checks.
type Service struct {
	members   MembershipLookup
	snapshots *SnapshotStore
	checked   *CheckedStore
	hub       *Hub
	recalc    *Recalculator
}

func NewService(members MembershipLookup, snapshots *SnapshotStore, checked *CheckedStore, hub *Hub, recalc *Recalculator) *Service {
	return &Service{
		members:   members,
		snapshots: snapshots,
		checked:   checked,
		hub:       hub,
		recalc:    recalc,
	}
}

// Authorize returns the caller's role, or ErrPermissionDenied when write is
// requested and the role is read-only.
func (s *Service) Authorize(ctx context.Context, planID uint, userID string, write bool) (models.Role, error) {
	role, err := s.members.RoleOf(ctx, planID, userID)
	if err != nil {
		return "", err
	}
	if write && !role.CanWrite() {
		return role, ErrPermissionDenied
	}
	return role, nil
}

// Recalculate rebuilds the snapshot on behalf of an owner or contributor.
func (s *Service) Recalculate(ctx context.Context, planID uint, userID string) (Snapshot, error) {
	if _, err := s.Authorize(ctx, planID, userID, true); err != nil {
		return Snapshot{}, err
	}
	return s.recalc.OnMealsChanged(ctx, planID)
}

// OnMealsChanged is called by meal mutations, which have already checked access.
func (s *Service) OnMealsChanged(ctx context.Context, planID uint) (Snapshot, error) {
	return s.recalc.OnMealsChanged(ctx, planID)
}

func (s *Service) Snapshot(ctx context.Context, planID uint, userID string) (Snapshot, error) {
	if _, err := s.Authorize(ctx, planID, userID, false); err != nil {
		return Snapshot{}, err
	}
	return s.snapshots.Get(ctx, planID)
}

func (s *Service) CheckedItems(ctx context.Context, planID uint, userID string) (map[string]bool, error) {
	if _, err := s.Authorize(ctx, planID, userID, false); err != nil {
		return nil, err
	}
	return s.checked.List(ctx, planID)
}

// ToggleItem flips the checked flag of mention and broadcasts the change to
// the plan's subscribers, skipping the connection named by origin. origin is
// ignored unless it is an open connection of the caller on this plan.
func (s *Service) ToggleItem(ctx context.Context, planID uint, userID, mention, origin string) (ItemToggled, error) {
	if _, err := s.Authorize(ctx, planID, userID, true); err != nil {
		return ItemToggled{}, err
	}

	key := models.MentionKey(mention)
	if key == "" {
		return ItemToggled{}, ErrInvalidMentionKey
	}

	if origin != "" && !s.hub.OwnedBy(planID, origin, userID) {
		origin = ""
	}

	var ev ItemToggled
	_, err := s.checked.Toggle(ctx, planID, key, userID, func(item models.CheckedItem) {
		ev = ItemToggled{MentionKey: item.MentionKey, IsChecked: item.IsChecked, Actor: userID}
		s.hub.Publish(planID, Event{Type: EventItemToggled, Origin: origin, Data: ev})
	})
	if err != nil {
		return ItemToggled{}, err
	}
	return ev, nil
}

// Subscribe opens a connection for the caller and returns it with the state
// to render first. The connection is registered before the state is read so
// no event between the two is lost.
func (s *Service) Subscribe(ctx context.Context, planID uint, userID string) (*Conn, SyncState, error) {
	if _, err := s.Authorize(ctx, planID, userID, false); err != nil {
		return nil, SyncState{}, err
	}

	conn, err := s.hub.Subscribe(planID, userID)
	if err != nil {
		return nil, SyncState{}, err
	}

	snap, err := s.snapshots.Get(ctx, planID)
	if err != nil {
		s.hub.Unsubscribe(conn)
		return nil, SyncState{}, err
	}
	items, err := s.checked.List(ctx, planID)
	if err != nil {
		s.hub.Unsubscribe(conn)
		return nil, SyncState{}, err
	}

	return conn, SyncState{
		ConnectionID: conn.ID,
		ShoppingList: snap.List,
		UpdatedAt:    snap.UpdatedAt,
		Items:        items,
	}, nil
}

func (s *Service) Unsubscribe(conn *Conn) {
	s.hub.Unsubscribe(conn)
}

// PlanDeleted drops every open connection of the plan and its cached
// snapshot.
func (s *Service) PlanDeleted(ctx context.Context, planID uint) {
	s.snapshots.Forget(ctx, planID)
	s.hub.DisconnectPlan(planID)
}
