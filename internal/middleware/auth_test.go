package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

type fakeVerifier struct {
	sessions map[string]string
	idTokens map[string]string
}

func (f fakeVerifier) VerifySessionCookie(_ context.Context, cookie string) (*auth.Token, error) {
	if uid, ok := f.sessions[cookie]; ok {
		return &auth.Token{UID: uid, Claims: map[string]interface{}{"email": uid + "@example.com"}}, nil
	}
	return nil, errors.New("invalid session cookie")
}

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if uid, ok := f.idTokens[idToken]; ok {
		return &auth.Token{UID: uid}, nil
	}
	return nil, errors.New("invalid id token")
}

func TestRequireAuth(t *testing.T) {
	verifier := fakeVerifier{
		sessions: map[string]string{"good-cookie": "alice"},
		idTokens: map[string]string{"good-token": "bob"},
	}

	tests := []struct {
		name        string
		cookie      string
		bearer      string
		wantStatus  int
		wantUser    string
		wantCleared bool
	}{
		{name: "session cookie", cookie: "good-cookie", wantStatus: http.StatusOK, wantUser: "alice"},
		{name: "bearer token", bearer: "good-token", wantStatus: http.StatusOK, wantUser: "bob"},
		{name: "bad cookie falls back to bearer", cookie: "stale", bearer: "good-token", wantStatus: http.StatusOK, wantUser: "bob", wantCleared: true},
		{name: "bad cookie", cookie: "stale", wantStatus: http.StatusUnauthorized, wantCleared: true},
		{name: "bad token", bearer: "forged", wantStatus: http.StatusUnauthorized},
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/plans/1", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUser string
			h := RequireAuth(verifier)(func(c echo.Context) error {
				gotUser, _ = c.Get("userUID").(string)
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler returned %v", err)
			}

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("userUID = %q; want %q", gotUser, tt.wantUser)
			}
			cleared := false
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == SessionCookieName && ck.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("session cookie cleared = %v; want %v", cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireAuthNotConfigured(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	h := RequireAuth(nil)(func(c echo.Context) error {
		t.Error("handler reached without a verifier")
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
