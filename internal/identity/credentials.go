package identity

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCredentialsPath is where the service account key is expected when
// nothing else is configured. Download it from the Firebase console under
// Project Settings -> Service Accounts.
const DefaultCredentialsPath = "./serviceAccountKey.json"

// ServiceAccount is the subset of a Google service account key file the
// admin client needs before it is constructed.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	ClientID    string `json:"client_id"`
}

// LoadServiceAccount reads and validates the key file at path. The raw file
// contents are returned alongside the parsed account so the SDK receives the
// document exactly as downloaded.
func LoadServiceAccount(path string) (*ServiceAccount, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read service account key")
	}
	sa, err := ParseServiceAccount(raw)
	if err != nil {
		return nil, nil, err
	}
	return sa, raw, nil
}

// ParseServiceAccount decodes a service account key document and checks the
// fields required to mint admin credentials.
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, errors.Wrap(err, "parse service account key")
	}
	if sa.Type != "" && sa.Type != "service_account" {
		return nil, errors.Errorf("unexpected credential type %q", sa.Type)
	}
	missing := []string{}
	if strings.TrimSpace(sa.ProjectID) == "" {
		missing = append(missing, "project_id")
	}
	if strings.TrimSpace(sa.PrivateKey) == "" {
		missing = append(missing, "private_key")
	}
	if strings.TrimSpace(sa.ClientEmail) == "" {
		missing = append(missing, "client_email")
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("service account key must contain %s", strings.Join(missing, ", "))
	}
	return &sa, nil
}
