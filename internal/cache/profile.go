// Package cache persists the last-known profile on the device so sessions can
// render immediately on restart, before the store round-trip completes.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/saloonq/queue-service/internal/models"
)

// Fixed storage key; one profile per device.
const barberKey = "barberData"

type ProfileCache struct {
	dir string
}

func New(dir string) *ProfileCache {
	return &ProfileCache{dir: dir}
}

func (c *ProfileCache) SaveBarber(b *models.Barber) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	payload := struct {
		ID string `json:"uid"`
		*models.Barber
	}{ID: b.ID, Barber: b}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal barber profile: %w", err)
	}

	return os.WriteFile(c.path(barberKey), data, 0o600)
}

// LoadBarber returns the cached profile, or (nil, nil) when none is stored.
func (c *ProfileCache) LoadBarber() (*models.Barber, error) {
	data, err := os.ReadFile(c.path(barberKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read barber profile: %w", err)
	}

	var payload struct {
		ID string `json:"uid"`
		models.Barber
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal barber profile: %w", err)
	}

	b := payload.Barber
	b.ID = payload.ID

	return &b, nil
}

// Clear removes the cached profile; called at logout.
func (c *ProfileCache) Clear() error {
	err := os.Remove(c.path(barberKey))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear profile cache: %w", err)
	}
	return nil
}

func (c *ProfileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
