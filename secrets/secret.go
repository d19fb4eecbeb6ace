// Package secrets provides a value type for credentials that must never reach logs.
//
// A Secret formats as "[REDACTED]" through fmt, encoding/json and log/slog.
// The plaintext is only available through Reveal:
//
//	token := secrets.New(os.Getenv("GITHUB_TOKEN"))
//	logger.Info("configured", "token", token) // token=[REDACTED]
//	client := newClient(token.Reveal())
package secrets

import (
	"encoding/json"
	"log/slog"
)

// Redacted is the placeholder printed instead of a secret value.
const Redacted = "[REDACTED]"

// Secret holds a sensitive value such as an access token.
// The zero value is an empty secret.
type Secret struct {
	value []byte
}

// New creates a Secret from a string. The input is copied.
func New(value string) Secret {
	if value == "" {
		return Secret{}
	}
	return Secret{value: []byte(value)}
}

// Reveal returns the plaintext value.
func (s Secret) Reveal() string {
	return string(s.value)
}

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool {
	return len(s.value) == 0
}

// String implements fmt.Stringer and never returns the plaintext.
func (s Secret) String() string {
	if s.IsZero() {
		return ""
	}
	return Redacted
}

// GoString implements fmt.GoStringer so %#v is redacted too.
func (s Secret) GoString() string {
	return s.String()
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Clear zeros the underlying bytes. Copies of the Secret made before Clear
// share the same storage and are cleared as well.
func (s *Secret) Clear() {
	for i := range s.value {
		s.value[i] = 0
	}
	s.value = nil
}
