package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateValidate(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	tok, err := j.Generate("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := j.Validate(tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("subject=%s", claims.Subject)
	}
	if _, err := NewJWT("other", time.Minute).Validate(tok); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	j := NewJWT("secret", -time.Minute)
	tok, err := j.Generate("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := j.Validate(tok); err != nil {
		t.Fatalf("token without expiry rejected: %v", err)
	}
	j = NewJWT("secret", time.Nanosecond)
	tok, err = j.Generate("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := j.Validate(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestIdentify(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	tok, _ := j.Generate("bob")
	var seen string
	h := Identify(j, "guest")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		user   string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK, "bob"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok}) }, http.StatusOK, "bob"},
		{"anonymous", func(r *http.Request) {}, http.StatusOK, "guest"},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.status || seen != tt.user {
				t.Fatalf("status=%d user=%q", w.Code, seen)
			}
		})
	}

	w := httptest.NewRecorder()
	Identify(j, "")(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d without identity", w.Code)
	}
}
