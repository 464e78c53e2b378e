// Package appgroup opens the storage area shared by every process of one
// application group. Each group owns a container directory under the home
// directory holding a single preferences database; values are addressed by
// key inside the group's suite.
package appgroup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ports/contentvault/internal/db"
)

// DefaultGroupID is the application group shared by the share extension
// and the host application.
const DefaultGroupID = "group.com.sangdae.contentvault.dw002"

// ErrUnavailable is returned when the storage area cannot be opened.
var ErrUnavailable = errors.New("app group storage unavailable")

const prefsFile = "prefs.db"

// Suite is an open storage area for one application group.
type Suite struct {
	id string
	db *db.DB
}

// ContainerDir returns the container directory for groupID under home.
func ContainerDir(home, groupID string) string {
	return filepath.Join(home, "groups", groupID)
}

// ValidateID reports whether groupID is a well-formed application group
// identifier ("group." followed by a reverse-DNS name).
func ValidateID(groupID string) error {
	name, ok := strings.CutPrefix(groupID, "group.")
	if !ok || name == "" || strings.ContainsAny(name, `/\ `) {
		return fmt.Errorf("invalid app group identifier %q", groupID)
	}
	return nil
}

// Open opens the storage area for groupID, creating the container on first
// use. Every failure wraps ErrUnavailable.
func Open(home, groupID string) (*Suite, error) {
	if err := ValidateID(groupID); err != nil {
		return nil, fmt.Errorf("appgroup.Open: %w: %w", ErrUnavailable, err)
	}
	if home == "" {
		return nil, fmt.Errorf("appgroup.Open: %w: empty home directory", ErrUnavailable)
	}

	dir := ContainerDir(home, groupID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("appgroup.Open: %w: %w", ErrUnavailable, err)
	}
	d, err := db.Open(filepath.Join(dir, prefsFile))
	if err != nil {
		return nil, fmt.Errorf("appgroup.Open: %w: %w", ErrUnavailable, err)
	}
	return &Suite{id: groupID, db: d}, nil
}

// ID returns the application group identifier.
func (s *Suite) ID() string { return s.id }

// Close releases the underlying database.
func (s *Suite) Close() error { return s.db.Close() }

// Data returns the raw value stored under key.
func (s *Suite) Data(key string) ([]byte, bool, error) {
	return s.db.Get(s.id, key)
}

// SetData stores value under key.
func (s *Suite) SetData(key string, value []byte) error {
	return s.db.Set(s.id, key, value)
}

// RemoveObject deletes key. Removing an absent key is not an error.
func (s *Suite) RemoveObject(key string) error {
	_, err := s.db.Remove(s.id, key)
	return err
}

// Update performs an atomic read-modify-write of key.
func (s *Suite) Update(key string, fn db.UpdateFunc) error {
	return s.db.Update(s.id, key, fn)
}

// Keys lists the keys present in the suite.
func (s *Suite) Keys() ([]string, error) {
	return s.db.Keys(s.id)
}
