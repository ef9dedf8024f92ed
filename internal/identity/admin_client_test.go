package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

type batchGetServer struct {
	mu         sync.Mutex
	calls      int
	maxResults []string
	status     int
	body       string
}

func (s *batchGetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/accounts:batchGet") {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	s.calls++
	s.maxResults = append(s.maxResults, r.URL.Query().Get("maxResults"))
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.body))
}

func writeTestKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "elearning-test",
		"private_key_id": "test-key",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "firebase-adminsdk@elearning-test.iam.gserviceaccount.com",
		"client_id":      "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "serviceAccountKey.json")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEmulatedLister(t *testing.T, srv *batchGetServer) *FirebaseUserLister {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", strings.TrimPrefix(ts.URL, "http://"))
	lister, err := NewFirebaseUserLister(context.Background(), writeTestKey(t))
	if err != nil {
		t.Fatalf("NewFirebaseUserLister: %v", err)
	}
	return lister
}

func TestFirebaseListUsersSingleFetch(t *testing.T) {
	srv := &batchGetServer{
		status: http.StatusOK,
		body: `{"users":[
			{"localId":"u-1","email":"ada@example.com"},
			{"localId":"u-2","email":"grace@example.com"},
			{"localId":"u-3","email":"linus@example.com"}
		],"nextPageToken":"t1"}`,
	}
	lister := newEmulatedLister(t, srv)

	users, err := lister.ListUsers(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}
	if users[0].UID != "u-1" || users[2].Email != "linus@example.com" {
		t.Fatalf("unexpected records: %+v %+v", users[0].UserInfo, users[2].UserInfo)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.calls != 1 {
		t.Fatalf("batchGet calls = %d, want 1 (continuation token must not be followed)", srv.calls)
	}
	if srv.maxResults[0] != "10" {
		t.Fatalf("maxResults = %q, want 10", srv.maxResults[0])
	}
}

func TestFirebaseListUsersEmptyProject(t *testing.T) {
	srv := &batchGetServer{status: http.StatusOK, body: `{}`}
	lister := newEmulatedLister(t, srv)

	users, err := lister.ListUsers(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("users = %#v, want empty non-nil slice", users)
	}
}

func TestFirebaseListUsersDownstreamError(t *testing.T) {
	srv := &batchGetServer{
		status: http.StatusForbidden,
		body:   `{"error":{"code":403,"message":"PERMISSION_DENIED"}}`,
	}
	lister := newEmulatedLister(t, srv)

	_, err := lister.ListUsers(context.Background(), 10)
	if err == nil {
		t.Fatal("expected downstream error")
	}
	if got, want := err.Error(), errors.Cause(err).Error(); got != want {
		t.Fatalf("message altered: %q vs sdk %q", got, want)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.calls != 1 {
		t.Fatalf("batchGet calls = %d, want 1", srv.calls)
	}
}
