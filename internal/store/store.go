// Package store persists devices, their dietary profile and their menu history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist for the device.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a new record reuses an existing id.
	ErrConflict = errors.New("record already exists")
)

// MenuStore is the per-device menu history, listed newest first.
// CreateMenu only inserts. UpdateMenu only rewrites the restaurant, dishes, language and
// icon of a menu the same device owns; scan time, owner and photos never change.
type MenuStore interface {
	CreateMenu(ctx context.Context, menu *models.Menu) error
	UpdateMenu(ctx context.Context, menu *models.Menu) error
	GetMenu(ctx context.Context, deviceID, menuID uuid.UUID) (*models.Menu, error)
	ListMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error)
	DeleteMenu(ctx context.Context, deviceID, menuID uuid.UUID) error
	DeleteAllMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error)
}

// ProfileStore holds the single profile record of each device. Saves are last-write-wins.
type ProfileStore interface {
	GetProfile(ctx context.Context, deviceID uuid.UUID) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// DeviceStore registers devices.
type DeviceStore interface {
	CreateDevice(ctx context.Context, device *models.Device, profile *models.UserProfile) error
	GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error)
	TouchDevice(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Store is everything the API needs from persistence.
type Store interface {
	MenuStore
	ProfileStore
	DeviceStore
}
