package pos

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Vendors hand out short-lived tokens; the documented lifetimes are thin, so
// both the lifetime and the safety margin are configurable.
const (
	DefaultTokenLifetime = 10 * time.Minute
	DefaultTokenMargin   = 1 * time.Minute
)

type cachedToken struct {
	token   string
	expires time.Time
}

// TokenCache holds one short-lived bearer credential per external account,
// keyed by the account identifier (tax id). It is owned by an adapter
// instance rather than being a package global so tests can isolate state.
type TokenCache struct {
	Lifetime time.Duration
	Margin   time.Duration

	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		Lifetime: DefaultTokenLifetime,
		Margin:   DefaultTokenMargin,
		tokens:   make(map[string]cachedToken),
		now:      time.Now,
	}
}

// Token returns the cached token for key while it is still comfortably
// inside its lifetime, and calls fetch otherwise. A fetch failure evicts the
// entry so the next call retries from scratch.
func (c *TokenCache) Token(key string, fetch func() (string, error)) (string, error) {
	c.mu.Lock()
	entry, ok := c.tokens[key]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return entry.token, nil
	}

	token, err := fetch()
	if err != nil {
		c.Evict(key)
		return "", err
	}

	c.mu.Lock()
	c.tokens[key] = cachedToken{
		token:   token,
		expires: c.now().Add(c.Lifetime - c.Margin),
	}
	c.mu.Unlock()
	return token, nil
}

// Evict drops the cached token for key, if any.
func (c *TokenCache) Evict(key string) {
	c.mu.Lock()
	delete(c.tokens, key)
	c.mu.Unlock()
}

var tokenShape = regexp.MustCompile(`^[A-Za-z0-9._\-]{8,}$`)

// Vendors return the token as bare text, quoted text, or a JSON field under
// several historical names. Each form is tried in order.
var tokenFields = []string{"AccessToken", "accessToken", "access_token", "Token", "token", "d"}

// ParseToken extracts a token string from a vendor token-endpoint body.
func ParseToken(body []byte) (string, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, field := range tokenFields {
			if v, ok := obj[field].(string); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	text := strings.TrimSpace(string(body))
	text = strings.Trim(text, `"`)
	if tokenShape.MatchString(text) {
		return text, true
	}
	return "", false
}
