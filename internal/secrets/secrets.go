// Package secrets resolves API credentials from the OS keychain, with an
// environment variable fallback for headless deployments.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobfinder-engine/internal/config"
)

const (
	// Service groups the engine's secrets in the OS keychain.
	Service = "jobfinder"

	SerperAPIKey = "serper_api_key"
	CronSecret   = "cron_secret"
	GitHubToken  = "github_token"
)

// envNames maps keychain accounts to their environment fallbacks.
var envNames = map[string]string{
	SerperAPIKey: "SERPER_API_KEY",
	CronSecret:   "CRON_SECRET",
	GitHubToken:  "GITHUB_TOKEN",
}

// Get looks up a named secret, keychain first, env second. Returns "" with a
// nil error when the secret is simply unset.
func Get(name string) (string, error) {
	pw, err := keyring.Get(Service, name)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		// Keychain broken (locked session, no dbus). Fall through to env.
		if v := os.Getenv(envNames[name]); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("keyring get %s: %w", name, err)
	}
	return os.Getenv(envNames[name]), nil
}

func Set(name string, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(Service, name, value)
}

func Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is empty")
	}
	return keyring.Delete(Service, name)
}

// IMAPAccount is the keychain account used for the mail poller's password,
// scoped to the configured mailbox identity.
func IMAPAccount(cfg config.Config) string {
	return fmt.Sprintf("imap:%s@%s", cfg.Email.Username, cfg.Email.IMAPHost)
}

// GetIMAPPassword resolves the mail password for the configured account.
func GetIMAPPassword(cfg config.Config) (string, error) {
	account := IMAPAccount(cfg)
	pw, err := keyring.Get(Service, account)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if v := os.Getenv("IMAP_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errors.New("IMAP password not found (set it in the keychain or IMAP_PASSWORD)")
}

func SetIMAPPassword(cfg config.Config, password string) error {
	return Set(IMAPAccount(cfg), password)
}
