package pos

import "fmt"

// AuthError means a token could not be obtained or parsed. The body is kept
// for server-side logs only; credentials are never included.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d)", e.Status)
}

// NetworkError covers transport failures and non-2xx vendor responses.
type NetworkError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: vendor returned status %d", e.Op, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the vendor body matched none of the known
// response shapes.
type MalformedResponseError struct {
	Body string
}

func (e *MalformedResponseError) Error() string {
	return "unexpected response shape from vendor"
}

// ValidationError means a required internal field was missing before an
// operation, e.g. an external id on an update-only path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
