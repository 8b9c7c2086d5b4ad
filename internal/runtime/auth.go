// internal/runtime/auth.go
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/mailexpiry/internal/gmail"
)

// Files expected in the config directory. The layout matches gmailctl's, so
// an existing ~/.gmailctl can be reused once its token carries the
// gmail.readonly scope.
const (
	CredentialsFile = "credentials.json"
	TokenFile       = "token.json"
)

// NewGmailClient builds a read-only Gmail client from the OAuth files in cfgDir.
func NewGmailClient(ctx context.Context, cfgDir string) (gc.Client, error) {
	ts, err := tokenSource(ctx, cfgDir)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

func tokenSource(ctx context.Context, cfgDir string) (oauth2.TokenSource, error) {
	credPath := filepath.Join(cfgDir, CredentialsFile)
	creds, err := os.ReadFile(filepath.Clean(credPath))
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credPath, err)
	}
	cfg, err := google.ConfigFromJSON(creds, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tokPath := filepath.Join(cfgDir, TokenFile)
	raw, err := os.ReadFile(filepath.Clean(tokPath))
	if err != nil {
		return nil, fmt.Errorf("read token %s: %w", tokPath, err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return cfg.TokenSource(ctx, tok), nil
}

// NewLogger returns the text logger every command writes to stderr.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func DefaultLogger() *slog.Logger {
	return NewLogger(false)
}
