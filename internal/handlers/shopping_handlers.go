package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mealshare_echo/internal/shopping"
)

// ConnectionIDHeader names the caller's own stream so its toggles are not
// echoed back to it.
const ConnectionIDHeader = "X-Connection-ID"

type ShoppingHandler struct {
	svc       *shopping.Service
	heartbeat time.Duration
}

func NewShoppingHandler(svc *shopping.Service, heartbeat time.Duration) *ShoppingHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &ShoppingHandler{svc: svc, heartbeat: heartbeat}
}

// GetShoppingList returns the stored snapshot without recomputing it.
func (h *ShoppingHandler) GetShoppingList(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}

	snap, err := h.svc.Snapshot(c.Request().Context(), planID, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *ShoppingHandler) Recalculate(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}

	snap, err := h.svc.Recalculate(c.Request().Context(), planID, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recalculateResponse{
		Success:      true,
		ShoppingList: snap.List,
		UpdatedAt:    snap.UpdatedAt,
	})
}

func (h *ShoppingHandler) CheckedItems(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}

	items, err := h.svc.CheckedItems(c.Request().Context(), planID, currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, checkedItemsResponse{Items: items})
}

func (h *ShoppingHandler) ToggleItem(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}

	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	origin := c.Request().Header.Get(ConnectionIDHeader)
	ev, err := h.svc.ToggleItem(c.Request().Context(), planID, currentUser(c), req.MentionKey, origin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toggleResponse{MentionKey: ev.MentionKey, IsChecked: ev.IsChecked})
}

// Stream serves the plan's live updates as server-sent events. The first
// event is always "sync" with the full state and the connection id.
func (h *ShoppingHandler) Stream(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	conn, state, err := h.svc.Subscribe(ctx, planID, currentUser(c))
	if err != nil {
		return err
	}
	defer h.svc.Unsubscribe(conn)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, shopping.EventSync, state); err != nil {
		return nil
	}
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-conn.Events():
			if !ok {
				// Closed by the hub: pruned, plan deleted or shutting down.
				return nil
			}
			if err := writeEvent(res, ev.Type, ev.Data); err != nil {
				c.Logger().Debugf("stream %s on plan %d: %v", conn.ID, planID, err)
				return nil
			}
			res.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(w io.Writer, typ shopping.EventType, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typ, payload)
	return err
}
