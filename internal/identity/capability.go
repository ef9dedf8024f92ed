// Package identity owns the Firebase Admin client and the startup decision
// of whether admin features are available at all.
//
// The decision is made once by Bootstrap and captured in an immutable
// Capability. Handlers never see the client directly; they ask the
// Capability for it and get ErrNotInitialized when bootstrap failed.
package identity

import (
	"context"

	"pkt.systems/pslog"
)

// Capability records the outcome of bootstrapping the admin client.
type Capability struct {
	users UserLister
	err   error
}

// Available wraps an already constructed lister.
func Available(users UserLister) *Capability {
	if users == nil {
		return Unavailable(nil)
	}
	return &Capability{users: users}
}

// Unavailable records a failed bootstrap. A nil cause is reported as
// ErrNotInitialized.
func Unavailable(cause error) *Capability {
	if cause == nil {
		cause = ErrNotInitialized
	}
	return &Capability{err: cause}
}

// Ready reports whether the admin client was constructed.
func (c *Capability) Ready() bool {
	return c != nil && c.users != nil
}

// Users returns the admin client or ErrNotInitialized.
func (c *Capability) Users() (UserLister, error) {
	if !c.Ready() {
		return nil, ErrNotInitialized
	}
	return c.users, nil
}

// Err returns the bootstrap failure, nil when ready.
func (c *Capability) Err() error {
	if c == nil {
		return ErrNotInitialized
	}
	return c.err
}

// Constructor builds the admin client from a credentials path.
type Constructor func(ctx context.Context, credentialsPath string) (UserLister, error)

// FirebaseConstructor is the production Constructor.
func FirebaseConstructor(ctx context.Context, credentialsPath string) (UserLister, error) {
	return NewFirebaseUserLister(ctx, credentialsPath)
}

// Bootstrap tries to build the admin client and never fails: any error is
// logged as a warning and yields an unavailable Capability.
func Bootstrap(ctx context.Context, credentialsPath string, build Constructor, logger pslog.Logger) *Capability {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	if build == nil {
		build = FirebaseConstructor
	}
	users, err := build(ctx, credentialsPath)
	if err != nil {
		cfgErr := &ConfigError{Path: credentialsPath, Err: err}
		logger.Warn("firebase admin sdk not initialized",
			"path", credentialsPath,
			"error", err.Error(),
			"hint", "download serviceAccountKey.json from the Firebase console to enable admin features",
		)
		return Unavailable(cfgErr)
	}
	logger.Info("firebase admin sdk initialized", "path", credentialsPath)
	return Available(users)
}
