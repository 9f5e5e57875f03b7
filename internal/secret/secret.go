// Package secret keeps server passwords in the operating system keyring so
// they do not have to be written to the configuration file.
package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "pgkv"

// ErrNotFound is returned when no password is stored for a server.
var ErrNotFound = errors.New("secret: password not found")

func key(alias, user string) string {
	return alias + "/" + user
}

// Get returns the password stored for user on the server alias.
func Get(alias, user string) (string, error) {
	pw, err := keyring.Get(service, key(alias, user))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return pw, nil
}

// Set stores the password for user on the server alias.
func Set(alias, user, password string) error {
	if err := keyring.Set(service, key(alias, user), password); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the stored password. Deleting a missing password is not an error.
func Delete(alias, user string) error {
	err := keyring.Delete(service, key(alias, user))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// Resolve returns password when it is set, otherwise the keyring entry.
// A missing keyring entry yields an empty password.
func Resolve(alias, user, password string) (string, error) {
	if password != "" || user == "" {
		return password, nil
	}
	pw, err := Get(alias, user)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return pw, err
}
