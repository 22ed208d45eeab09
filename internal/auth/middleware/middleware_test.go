package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-assess/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("k")
	tok, err := a.IssueJWT(Identity{Subject: "u1", Role: "student", Name: "Jane", Email: "jane@x.org"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Identity(); got != (Identity{"u1", "student", "Jane", "jane@x.org"}) {
		t.Fatalf("identity %+v", got)
	}

	if _, err := NewAuthService("other").Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong key err = %v", err)
	}

	expired := NewAuthService("k")
	expired.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	old, _ := expired.IssueJWT(Identity{Subject: "u1", Role: "student"})
	if _, err := a.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired err = %v", err)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("k")
	var seen Identity
	var role string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("code %d", rec.Code)
			}
		})
	}

	tok, _ := a.IssueJWT(Identity{Subject: "t1", Role: "teacher", Name: "Ms T"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen.Subject != "t1" || seen.Name != "Ms T" || role != "teacher" {
		t.Fatalf("code %d identity %+v role %q", rec.Code, seen, role)
	}
}

func TestDevTokenHandler(t *testing.T) {
	a := NewAuthService("k")
	h := DevTokenHandler(a)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sub":"u1","role":"root"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role accepted: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sub":"u1","role":"student","email":"u1@x.org"}`)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "access_token") {
		t.Fatalf("code %d body %s", rec.Code, rec.Body)
	}
}
