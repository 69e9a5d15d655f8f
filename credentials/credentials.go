// Package credentials loads the Google service account the pipeline runs as
// and turns it into an authorized HTTP client.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/kbukum/transcribe-worker/errors"
)

// CloudPlatformScope covers both Cloud Storage and Speech-to-Text.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ServiceAccount is the subset of a Google service account key file the
// worker needs.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// Parse decodes a service account key document.
func Parse(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, errors.CredentialsFailed(fmt.Errorf("decode service account: %w", err))
	}
	if err := sa.Validate(); err != nil {
		return nil, err
	}
	return &sa, nil
}

// Validate checks that the fields used for signing are present.
func (sa *ServiceAccount) Validate() error {
	switch {
	case sa.ProjectID == "":
		return errors.CredentialsFailed(fmt.Errorf("service account: project_id is required"))
	case sa.ClientEmail == "":
		return errors.CredentialsFailed(fmt.Errorf("service account: client_email is required"))
	case sa.PrivateKey == "":
		return errors.CredentialsFailed(fmt.Errorf("service account: private_key is required"))
	}
	return nil
}

// LogFields returns the identifying fields that are safe to log.
func (sa *ServiceAccount) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"project_id":     sa.ProjectID,
		"client_email":   sa.ClientEmail,
		"private_key_id": sa.PrivateKeyID,
	}
}

// String never includes the private key.
func (sa *ServiceAccount) String() string {
	return fmt.Sprintf("ServiceAccount{project=%s email=%s key_id=%s}", sa.ProjectID, sa.ClientEmail, sa.PrivateKeyID)
}

// JWTConfig returns the two-legged OAuth2 configuration for the account.
// tokenURL overrides the token endpoint; empty uses the account's token_uri
// or Google's default.
func (sa *ServiceAccount) JWTConfig(tokenURL string, scopes ...string) *jwt.Config {
	if len(scopes) == 0 {
		scopes = []string{CloudPlatformScope}
	}
	if tokenURL == "" {
		tokenURL = sa.TokenURI
	}
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	return &jwt.Config{
		Email:        sa.ClientEmail,
		PrivateKey:   []byte(sa.PrivateKey),
		PrivateKeyID: sa.PrivateKeyID,
		Scopes:       scopes,
		TokenURL:     tokenURL,
	}
}

// HTTPClient returns a client that attaches a bearer token minted from the
// service account to every request. Tokens are fetched lazily and cached.
func (sa *ServiceAccount) HTTPClient(ctx context.Context, scopes ...string) *http.Client {
	return sa.JWTConfig("", scopes...).Client(ctx)
}
