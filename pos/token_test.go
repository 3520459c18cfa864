package pos

import (
	"errors"
	"testing"
	"time"
)

func TestTokenCacheReusesUnexpiredToken(t *testing.T) {
	cache := NewTokenCache()
	calls := 0
	fetch := func() (string, error) {
		calls++
		return "tok-1", nil
	}

	for i := 0; i < 2; i++ {
		token, err := cache.Token("12345", fetch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "tok-1" {
			t.Fatalf("got token %q", token)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}
}

func TestTokenCacheRefetchesAfterExpiry(t *testing.T) {
	cache := NewTokenCache()
	current := time.Now()
	cache.now = func() time.Time { return current }

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "tok", nil
	}

	if _, err := cache.Token("12345", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Just inside the margin-adjusted lifetime: still cached.
	current = current.Add(cache.Lifetime - cache.Margin - time.Second)
	if _, err := cache.Token("12345", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch before expiry, got %d", calls)
	}

	current = current.Add(2 * time.Second)
	if _, err := cache.Token("12345", fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", calls)
	}
}

func TestTokenCacheEvictsOnFetchFailure(t *testing.T) {
	cache := NewTokenCache()
	fetchErr := errors.New("boom")
	if _, err := cache.Token("k", func() (string, error) { return "", fetchErr }); err != fetchErr {
		t.Fatalf("expected fetch error, got %v", err)
	}

	// The failed entry must not shadow a later successful fetch.
	token, err := cache.Token("k", func() (string, error) { return "tok", nil })
	if err != nil || token != "tok" {
		t.Fatalf("got %q, %v", token, err)
	}
}

func TestTokenCacheKeysAreIndependent(t *testing.T) {
	cache := NewTokenCache()
	a, _ := cache.Token("a", func() (string, error) { return "tok-a", nil })
	b, _ := cache.Token("b", func() (string, error) { return "tok-b", nil })
	if a != "tok-a" || b != "tok-b" {
		t.Fatalf("got %q and %q", a, b)
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{"bare quoted string", `"abc12345"`, "abc12345", true},
		{"bare string", `abc12345`, "abc12345", true},
		{"AccessToken field", `{"AccessToken":"abc12345"}`, "abc12345", true},
		{"token field", `{"token":"abc12345"}`, "abc12345", true},
		{"d field", `{"d":"abc12345"}`, "abc12345", true},
		{"field priority", `{"AccessToken":"first","token":"second"}`, "first", true},
		{"object without token", `{"error":"denied"}`, "", false},
		{"html error page", `<html>oops</html>`, "", false},
		{"too short", `"abc"`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseToken([]byte(tt.body))
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ParseToken(%q) = %q, %v; want %q, %v", tt.body, got, ok, tt.want, tt.ok)
			}
		})
	}
}
