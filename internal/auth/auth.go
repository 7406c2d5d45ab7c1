// Package auth stores the bearer token sent to the records API.
package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const (
	credFileName = "credentials.json"
	tokenEnv     = "RECORDS_TOKEN"
)

// ErrNoToken is returned by Require when no token is configured.
var ErrNoToken = errors.New("no token found. Set RECORDS_TOKEN or run `records auth login`")

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional
}

func credsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".records"), nil
}

// CredFilePath is where `auth login` stores the token.
func CredFilePath() (string, error) {
	dir, err := credsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

// GetToken returns the configured token, or nil when logged out.
// RECORDS_TOKEN wins over the credentials file.
func GetToken() (*TokenInfo, error) {
	env := strings.TrimSpace(os.Getenv(tokenEnv))
	if env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	p, err := CredFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Require is GetToken that treats a missing token as an error.
func Require() (*TokenInfo, error) {
	ti, err := GetToken()
	if err != nil {
		return nil, err
	}
	if ti == nil || strings.TrimSpace(ti.Token) == "" {
		return nil, ErrNoToken
	}
	return ti, nil
}

// SetToken writes the token to the credentials file (0600, atomically).
func SetToken(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return errors.New("empty token")
	}
	dir, err := credsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p := filepath.Join(dir, credFileName)
	if err := atomic.WriteFile(p, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	// atomic.WriteFile leaves new files with the default mode
	if err := os.Chmod(p, 0o600); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}

// DeleteToken removes the credentials file. Missing files are fine.
func DeleteToken() error {
	p, err := CredFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
