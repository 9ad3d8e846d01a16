package foundry

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// DefaultResource is the token audience for Foundry project endpoints.
const DefaultResource = "https://ai.azure.com"

// NewStaticTokenSource wraps a fixed bearer token, for setups where the
// token is provisioned out of band.
func NewStaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// AzureCLITokenSource acquires tokens from a pre-authenticated az login
// session by shelling out to the Azure CLI. It implements oauth2.TokenSource.
type AzureCLITokenSource struct {
	// Resource is the token audience; defaults to DefaultResource.
	Resource string

	// run executes the az invocation; replaceable in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewAzureCLITokenSource returns a caching token source backed by the
// Azure CLI. Tokens are reused until shortly before expiry.
func NewAzureCLITokenSource(resource string) oauth2.TokenSource {
	if resource == "" {
		resource = DefaultResource
	}
	return oauth2.ReuseTokenSource(nil, &AzureCLITokenSource{Resource: resource})
}

// cliToken is the shape of `az account get-access-token` output.
type cliToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresOn   string `json:"expiresOn"`           // local wall-clock time
	ExpiresUnix string `json:"expires_on,omitempty"` // unix seconds, newer CLIs
}

// Token fetches a fresh access token via the Azure CLI.
func (s *AzureCLITokenSource) Token() (*oauth2.Token, error) {
	resource := s.Resource
	if resource == "" {
		resource = DefaultResource
	}

	run := s.run
	if run == nil {
		run = runAz
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := run(ctx, "account", "get-access-token", "--resource", resource, "--output", "json")
	if err != nil {
		return nil, fmt.Errorf("az account get-access-token (is `az login` done?): %w", err)
	}

	var tok cliToken
	if err := json.Unmarshal(out, &tok); err != nil {
		return nil, fmt.Errorf("parse az token output: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("az returned an empty access token")
	}

	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		Expiry:      parseExpiry(tok),
	}, nil
}

// parseExpiry extracts the token expiry, preferring the unix form.
// An unparseable expiry yields the zero time, which oauth2 treats as
// never-expiring; ReuseTokenSource then serves the token for the process
// lifetime, matching the one-session scope of this tool.
func parseExpiry(tok cliToken) time.Time {
	if tok.ExpiresUnix != "" {
		if secs, err := strconv.ParseInt(tok.ExpiresUnix, 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	if tok.ExpiresOn != "" {
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05.000000", tok.ExpiresOn, time.Local); err == nil {
			return ts
		}
		if ts, err := time.ParseInLocation(time.DateTime, tok.ExpiresOn, time.Local); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func runAz(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "az", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("az exited %d: %s", exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return nil, err
	}
	return out, nil
}
