package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authMiddleware "mealshare_echo/internal/middleware"
	"mealshare_echo/internal/services"
	"mealshare_echo/internal/shopping"
)

// uidVerifier accepts any bearer token and uses it as the user id.
type uidVerifier struct{}

func (uidVerifier) VerifySessionCookie(_ context.Context, cookie string) (*auth.Token, error) {
	return nil, errors.New("sessions not used in tests")
}

func (uidVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	return &auth.Token{UID: idToken}, nil
}

func (uidVerifier) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	return "session-" + idToken, nil
}

type testEnv struct {
	e   *echo.Echo
	db  *gorm.DB
	hub *shopping.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := services.InitDB("sqlite://"+filepath.Join(t.TempDir(), "handlers.db"), logger.Silent)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	locks := shopping.NewPlanLocks()
	hub := shopping.NewHub(8)
	snapshots := shopping.NewSnapshotStore(db, nil, locks)
	svc := shopping.NewService(
		shopping.NewDirectory(db),
		snapshots,
		shopping.NewCheckedStore(db, locks),
		hub,
		shopping.NewRecalculator(db, snapshots, hub),
	)

	e := echo.New()
	e.HTTPErrorHandler = authMiddleware.ErrorHandler
	RegisterRoutes(e, Deps{
		DB:        db,
		Service:   svc,
		Verifier:  uidVerifier{},
		Issuer:    uidVerifier{},
		Heartbeat: 50 * time.Millisecond,
	})

	t.Cleanup(func() {
		hub.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &testEnv{e: e, db: db, hub: hub}
}

func (env *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (env *testEnv) createPlan(t *testing.T, owner string) uint {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/plans", owner, `{"name":"Semaine 42","weekStart":"2026-10-12"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create plan: status %d, body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Plan struct {
			ID uint `json:"id"`
		} `json:"plan"`
	}
	decode(t, rec, &res)
	return res.Plan.ID
}

func planPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/plans/%d%s", id, suffix)
}

func uintString(id uint) string {
	return fmt.Sprintf("%d", id)
}
