package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cfg := newConfig(t, false)

	stdout, stderr, code := runCommand(t, cfg, &commands.LoginCmd{}, nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "error: oauth_client.json not found in "+cfg.Dir) {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if !strings.Contains(stderr, "taskmgr login") {
		t.Error("setup instructions should name the login command")
	}
}

func TestLoginCommand_InvalidOAuthClient(t *testing.T) {
	cfg := newConfig(t, false)
	writeFile(t, cfg.Dir, config.OAuthClientFile, "{}")

	_, stderr, code := runCommand(t, cfg, &commands.LoginCmd{}, nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: invalid oauth_client.json") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// A token without a refresh token is not reused; login starts a new flow,
// which the cancelled context stops immediately.
func TestLoginCommand_NoRefreshToken(t *testing.T) {
	cfg := newConfig(t, false)
	writeFile(t, cfg.Dir, config.OAuthClientFile, testOAuthClient)
	writeFile(t, cfg.Dir, config.TokenFile, `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut strings.Builder
	code := (&commands.LoginCmd{}).Run(ctx, cfg, nil, nil, &out, &errOut)

	if out.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with token missing refresh_token")
	}
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cfg := newConfig(t, false)
	oauthPath := writeFile(t, cfg.Dir, config.OAuthClientFile, testOAuthClient)
	tokenPath := writeFile(t, cfg.Dir, config.TokenFile, `{"access_token":"test","refresh_token":"test"}`)

	stdout, stderr, code := runCommand(t, cfg, &commands.LogoutCmd{}, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(oauthPath); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		want  string
	}{
		{"normal", false, "not logged in\n"},
		{"quiet", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runCommand(t, newConfig(t, tt.quiet), &commands.LogoutCmd{}, nil)

			if code != exitcode.Success {
				t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
			}
			if stderr != "" {
				t.Errorf("expected no stderr, got %q", stderr)
			}
			if stdout != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stdout)
			}
		})
	}
}
