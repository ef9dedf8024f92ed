package identity

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firebase.google.com/go/v4/auth"
	"pkt.systems/pslog"
)

type stubLister struct{}

func (stubLister) ListUsers(context.Context, int) ([]*auth.ExportedUserRecord, error) {
	return nil, nil
}

func TestBootstrapMissingCredentialsDegrades(t *testing.T) {
	var buf bytes.Buffer
	logger := pslog.NewStructured(context.Background(), &buf)
	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")

	capability := Bootstrap(context.Background(), path, nil, logger)
	if capability.Ready() {
		t.Fatal("expected capability to be unavailable without a key file")
	}
	if _, err := capability.Users(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Users error = %v, want ErrNotInitialized", err)
	}
	var cfgErr *ConfigError
	if !errors.As(capability.Err(), &cfgErr) {
		t.Fatalf("Err = %T, want *ConfigError", capability.Err())
	}
	if !errors.Is(cfgErr, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", cfgErr)
	}
	if !errors.Is(capability.Err(), ErrNotInitialized) {
		t.Fatal("config errors should match ErrNotInitialized")
	}
	if !strings.Contains(buf.String(), "firebase admin sdk not initialized") {
		t.Fatalf("missing warning in log output: %q", buf.String())
	}
}

func TestBootstrapMalformedCredentialsDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	capability := Bootstrap(context.Background(), path, nil, pslog.NoopLogger())
	if capability.Ready() {
		t.Fatal("expected malformed key to leave capability unavailable")
	}
	if !strings.Contains(capability.Err().Error(), "parse service account key") {
		t.Fatalf("unexpected error: %v", capability.Err())
	}
}

func TestBootstrapUsesConstructor(t *testing.T) {
	var gotPath string
	build := func(_ context.Context, path string) (UserLister, error) {
		gotPath = path
		return stubLister{}, nil
	}
	var buf bytes.Buffer
	capability := Bootstrap(context.Background(), "/etc/key.json", build, pslog.NewStructured(context.Background(), &buf))
	if !capability.Ready() {
		t.Fatalf("expected ready capability, err=%v", capability.Err())
	}
	if gotPath != "/etc/key.json" {
		t.Fatalf("constructor path = %q", gotPath)
	}
	users, err := capability.Users()
	if err != nil || users == nil {
		t.Fatalf("Users() = %v, %v", users, err)
	}
	if capability.Err() != nil {
		t.Fatalf("Err() = %v, want nil", capability.Err())
	}
	if !strings.Contains(buf.String(), "firebase admin sdk initialized") {
		t.Fatalf("missing info line: %q", buf.String())
	}
}

func TestBootstrapConstructorFailure(t *testing.T) {
	build := func(context.Context, string) (UserLister, error) {
		return nil, errors.New("permission denied")
	}
	capability := Bootstrap(context.Background(), "key.json", build, nil)
	if capability.Ready() {
		t.Fatal("expected unavailable capability")
	}
	if got := capability.Err().Error(); got != "credentials key.json: permission denied" {
		t.Fatalf("Err() = %q", got)
	}
}

func TestNilAndEmptyCapability(t *testing.T) {
	var nilCap *Capability
	if nilCap.Ready() {
		t.Fatal("nil capability must not be ready")
	}
	if _, err := nilCap.Users(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("nil Users err = %v", err)
	}
	if Available(nil).Ready() {
		t.Fatal("Available(nil) must not be ready")
	}
	if !errors.Is(Unavailable(nil).Err(), ErrNotInitialized) {
		t.Fatal("Unavailable(nil) should report ErrNotInitialized")
	}
}
