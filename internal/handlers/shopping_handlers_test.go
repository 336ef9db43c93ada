package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestShoppingListEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t, "alice")
	env.do(t, http.MethodPost, planPath(id, "/contributors"), "alice", `{"userId":"guest","role":"VIEWER"}`)
	env.do(t, http.MethodPost, planPath(id, "/meals"), "alice", `{"day":"monday","name":"Soupe","ingredients":["2 carottes","200 g poulet"]}`)

	rec := env.do(t, http.MethodPost, planPath(id, "/shopping-list/recalculate"), "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recalculate: status %d, body %s", rec.Code, rec.Body.String())
	}
	var recalc struct {
		Success      bool                `json:"success"`
		ShoppingList map[string][]string `json:"shoppingList"`
	}
	decode(t, rec, &recalc)
	if !recalc.Success || len(recalc.ShoppingList["Meat & Fish"]) != 1 {
		t.Errorf("recalculate = %+v", recalc)
	}

	rec = env.do(t, http.MethodGet, planPath(id, "/shopping-list"), "guest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get list: status %d", rec.Code)
	}
	var snap struct {
		ShoppingList map[string][]string `json:"shoppingList"`
		UpdatedAt    *time.Time          `json:"updatedAt"`
	}
	decode(t, rec, &snap)
	if len(snap.ShoppingList["Vegetables"]) != 1 || snap.UpdatedAt == nil {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = env.do(t, http.MethodPost, planPath(id, "/shopping-list/items/toggle"), "alice", `{"mentionKey":" 200 g  poulet"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d, body %s", rec.Code, rec.Body.String())
	}
	var toggled struct {
		MentionKey string `json:"mentionKey"`
		IsChecked  bool   `json:"isChecked"`
	}
	decode(t, rec, &toggled)
	if toggled.MentionKey != "200 g poulet" || !toggled.IsChecked {
		t.Errorf("toggle = %+v", toggled)
	}

	rec = env.do(t, http.MethodGet, planPath(id, "/shopping-list/items"), "guest", "")
	var items struct {
		Items map[string]bool `json:"items"`
	}
	decode(t, rec, &items)
	if !items.Items["200 g poulet"] {
		t.Errorf("items = %v", items.Items)
	}
}

func TestShoppingListAccess(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t, "alice")
	env.do(t, http.MethodPost, planPath(id, "/contributors"), "alice", `{"userId":"guest","role":"VIEWER"}`)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		code   int
	}{
		{"viewer cannot toggle", http.MethodPost, "/shopping-list/items/toggle", "guest", `{"mentionKey":"lait"}`, http.StatusForbidden},
		{"viewer cannot recalculate", http.MethodPost, "/shopping-list/recalculate", "guest", "", http.StatusForbidden},
		{"blank mention key", http.MethodPost, "/shopping-list/items/toggle", "alice", `{"mentionKey":"   "}`, http.StatusBadRequest},
		{"non member", http.MethodGet, "/shopping-list", "mallory", "", http.StatusNotFound},
		{"anonymous", http.MethodGet, "/shopping-list", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, planPath(id, tt.path), tt.user, tt.body)
			if rec.Code != tt.code {
				t.Errorf("status = %d; want %d (body %s)", rec.Code, tt.code, rec.Body.String())
			}
		})
	}

	if rec := env.do(t, http.MethodGet, "/api/plans/abc/shopping-list", "alice", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad plan id: status %d; want 400", rec.Code)
	}
}

type sseEvent struct {
	name string
	data string
}

// readEvent returns the next named event, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()

	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "" && ev.name != "":
			return ev
		}
	}
}

func TestShoppingListStream(t *testing.T) {
	env := newTestEnv(t)
	id := env.createPlan(t, "alice")
	env.do(t, http.MethodPost, planPath(id, "/contributors"), "alice", `{"userId":"bob","role":"CONTRIBUTOR"}`)
	env.do(t, http.MethodPost, planPath(id, "/meals"), "alice", `{"day":"monday","name":"Soupe","ingredients":["2 carottes"]}`)

	srv := httptest.NewServer(env.e)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+planPath(id, "/shopping-list/stream"), nil)
	req.Header.Set("Authorization", "Bearer bob")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	sync := readEvent(t, r)
	if sync.name != "sync" {
		t.Fatalf("first event = %q; want sync", sync.name)
	}
	var state struct {
		ConnectionID string              `json:"connectionId"`
		ShoppingList map[string][]string `json:"shoppingList"`
		Items        map[string]bool     `json:"items"`
	}
	if err := json.Unmarshal([]byte(sync.data), &state); err != nil {
		t.Fatalf("sync payload %q: %v", sync.data, err)
	}
	if state.ConnectionID == "" || len(state.ShoppingList["Vegetables"]) != 1 {
		t.Errorf("sync state = %+v", state)
	}

	// A toggle from bob's own stream is not echoed back; alice's is.
	toggle := httptest.NewRequest(http.MethodPost, planPath(id, "/shopping-list/items/toggle"), strings.NewReader(`{"mentionKey":"2 carottes"}`))
	toggle.Header.Set("Content-Type", "application/json")
	toggle.Header.Set("Authorization", "Bearer bob")
	toggle.Header.Set(ConnectionIDHeader, state.ConnectionID)
	env.e.ServeHTTP(httptest.NewRecorder(), toggle)

	if rec := env.do(t, http.MethodPost, planPath(id, "/shopping-list/items/toggle"), "alice", `{"mentionKey":"2 carottes"}`); rec.Code != http.StatusOK {
		t.Fatalf("toggle: status %d", rec.Code)
	}

	ev := readEvent(t, r)
	if ev.name != "item_toggled" {
		t.Fatalf("event = %q; want item_toggled", ev.name)
	}
	var toggled struct {
		MentionKey string `json:"mentionKey"`
		IsChecked  bool   `json:"isChecked"`
		Actor      string `json:"actor"`
	}
	if err := json.Unmarshal([]byte(ev.data), &toggled); err != nil {
		t.Fatalf("item_toggled payload %q: %v", ev.data, err)
	}
	if toggled.Actor != "alice" || toggled.IsChecked {
		t.Errorf("item_toggled = %+v; want alice unchecking", toggled)
	}

	if rec := env.do(t, http.MethodPost, planPath(id, "/shopping-list/recalculate"), "alice", ""); rec.Code != http.StatusOK {
		t.Fatalf("recalculate: status %d", rec.Code)
	}
	if ev := readEvent(t, r); ev.name != "list_recalculated" {
		t.Errorf("event = %q; want list_recalculated", ev.name)
	}

	resp.Body.Close()
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.ConnCount(id) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream connection not released after client disconnect")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
