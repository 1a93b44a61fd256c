// Package auth guards the admin and preview views with a single configured credential pair.
package auth

import (
	"bytes"
	"crypto/subtle"
	"errors"

	"aetheria-site/internal/storage"
)

const (
	invalidCredentials = "Invalid username or password"
	loggedIn           = "Login successful"
)

var trueJSON = []byte("true")

// Result is the outcome of a login attempt.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Gate checks credentials and records the outcome in a session store.
type Gate struct {
	Username string
	Password string
}

// Login compares the credentials and, on a match, marks store as authenticated.
// A failed attempt leaves the store untouched.
func (g Gate) Login(store storage.Store, username, password string) Result {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.Password)) == 1
	if !userOK || !passOK || g.Username == "" {
		return Result{Message: invalidCredentials}
	}
	if err := store.Set(storage.KeyAuthenticated, trueJSON); err != nil {
		return Result{Message: "Could not start session: " + err.Error()}
	}
	return Result{OK: true, Message: loggedIn}
}

// IsAuthenticated reports whether store carries the auth flag.
func IsAuthenticated(store storage.Store) bool {
	raw, err := store.Get(storage.KeyAuthenticated)
	if err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(raw), trueJSON)
}

// Logout clears the auth flag.
func Logout(store storage.Store) error {
	if err := store.Delete(storage.KeyAuthenticated); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
