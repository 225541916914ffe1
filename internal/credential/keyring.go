// Package credential stores the Jira API token in the system keyring so it
// does not have to live in the environment or the config file.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "jps"

// ErrNotFound is returned by Get when no token is stored for the account.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance. Tests replace it.
var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/jps/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("jps-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// tokenKey namespaces the stored token by Jira account.
func tokenKey(email string) string {
	return "jira-token:" + email
}

// GetToken returns the Jira API token stored for email.
func GetToken(email string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey(email))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting token for %q: %w", email, err)
	}

	return string(item.Data), nil
}

// SetToken stores the Jira API token for email.
func SetToken(email, token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   tokenKey(email),
		Data:  []byte(token),
		Label: "jps Jira API token",
	})
	if err != nil {
		return fmt.Errorf("setting token for %q: %w", email, err)
	}

	return nil
}

// DeleteToken removes the stored token for email. Removing a token that was
// never stored is not an error.
func DeleteToken(email string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey(email))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token for %q: %w", email, err)
	}

	return nil
}
