package identity

import (
	"github.com/pkg/errors"
)

// ErrNotInitialized is reported by a Capability whose bootstrap failed.
// Its text is the message returned to API callers.
var ErrNotInitialized = errors.New("Firebase Admin not initialized.")

// ConfigError describes why the admin client could not be built at startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return "credentials " + e.Path + ": unavailable"
	}
	return "credentials " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes every ConfigError match ErrNotInitialized.
func (e *ConfigError) Is(target error) bool { return target == ErrNotInitialized }
