package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/knoweat/backend/internal/models"
)

// GormStore implements Store on postgres or sqlite.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the tables of every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Device{}, &models.UserProfile{}, &models.Menu{})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateMenu inserts a new menu. An id already in use, by any device, is ErrConflict.
func (s *GormStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Menu{}).Where("id = ?", menu.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check menu id: %w", err)
		}
		if n > 0 {
			return ErrConflict
		}
		if err := tx.Create(menu).Error; err != nil {
			return fmt.Errorf("failed to create menu: %w", err)
		}
		return nil
	})
}

// UpdateMenu rewrites the editable fields of a menu owned by menu.DeviceID
func (s *GormStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	res := s.db.WithContext(ctx).
		Model(&models.Menu{}).
		Where("id = ? AND device_id = ?", menu.ID, menu.DeviceID).
		Updates(map[string]interface{}{
			"restaurant":    menu.Restaurant,
			"dishes":        menu.Dishes,
			"menu_language": menu.MenuLanguage,
			"category_icon": menu.CategoryIcon,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update menu: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMenu loads one menu owned by deviceID
func (s *GormStore) GetMenu(ctx context.Context, deviceID, menuID uuid.UUID) (*models.Menu, error) {
	var menu models.Menu
	err := s.db.WithContext(ctx).
		Where("id = ? AND device_id = ?", menuID, deviceID).
		First(&menu).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &menu, nil
}

// ListMenus returns the device's history, newest scan first
func (s *GormStore) ListMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error) {
	var menus []models.Menu
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("scanned_at DESC").
		Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	return menus, nil
}

// DeleteMenu removes one menu
func (s *GormStore) DeleteMenu(ctx context.Context, deviceID, menuID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND device_id = ?", menuID, deviceID).
		Delete(&models.Menu{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete menu: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllMenus clears the device's history and returns what was removed
func (s *GormStore) DeleteAllMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error) {
	var removed []models.Menu
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", deviceID).Find(&removed).Error; err != nil {
			return err
		}
		return tx.Where("device_id = ?", deviceID).Delete(&models.Menu{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete menus: %w", err)
	}
	return removed, nil
}

// GetProfile loads the device's profile
func (s *GormStore) GetProfile(ctx context.Context, deviceID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// SaveProfile writes the whole profile record
func (s *GormStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// CreateDevice registers a device together with its initial profile
func (s *GormStore) CreateDevice(ctx context.Context, device *models.Device, profile *models.UserProfile) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(device).Error; err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}
		profile.DeviceID = device.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

// GetDevice loads a device by id
func (s *GormStore) GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	var device models.Device
	if err := s.db.WithContext(ctx).First(&device, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

// TouchDevice records the last time the device made an authenticated call
func (s *GormStore) TouchDevice(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Device{}).Where("id = ?", id).Update("last_seen_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to update device: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
