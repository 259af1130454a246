package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/models"
)

// MemoryStore is a process-local Store. Values are copied through JSON on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	menus    map[uuid.UUID][]models.Menu
	profiles map[uuid.UUID]models.UserProfile
	devices  map[uuid.UUID]models.Device
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		menus:    make(map[uuid.UUID][]models.Menu),
		profiles: make(map[uuid.UUID]models.UserProfile),
		devices:  make(map[uuid.UUID]models.Device),
	}
}

func copyMenu(m models.Menu) models.Menu {
	out := m
	out.Dishes = make(models.Dishes, len(m.Dishes))
	for i, d := range m.Dishes {
		out.Dishes[i] = d
		out.Dishes[i].Ingredients = append([]string{}, d.Ingredients...)
		out.Dishes[i].RestrictionTags = append([]string{}, d.RestrictionTags...)
	}
	if m.PhotoKeys != nil {
		out.PhotoKeys = append(models.JSONBStringArray{}, m.PhotoKeys...)
	}
	return out
}

func copyProfile(p models.UserProfile) (models.UserProfile, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return models.UserProfile{}, err
	}
	var out models.UserProfile
	if err := json.Unmarshal(data, &out); err != nil {
		return models.UserProfile{}, err
	}
	out.DeviceID = p.DeviceID
	out.UpdatedAt = p.UpdatedAt
	return out, nil
}

// CreateMenu inserts a menu at the front of the device's history
func (s *MemoryStore) CreateMenu(ctx context.Context, menu *models.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, history := range s.menus {
		for _, m := range history {
			if m.ID == menu.ID {
				return ErrConflict
			}
		}
	}
	s.menus[menu.DeviceID] = append([]models.Menu{copyMenu(*menu)}, s.menus[menu.DeviceID]...)
	return nil
}

// UpdateMenu rewrites the editable fields of a menu owned by menu.DeviceID
func (s *MemoryStore) UpdateMenu(ctx context.Context, menu *models.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.menus[menu.DeviceID]
	for i := range history {
		if history[i].ID != menu.ID {
			continue
		}
		edited := copyMenu(*menu)
		history[i].Restaurant = edited.Restaurant
		history[i].Dishes = edited.Dishes
		history[i].MenuLanguage = edited.MenuLanguage
		history[i].CategoryIcon = edited.CategoryIcon
		return nil
	}
	return ErrNotFound
}

// GetMenu returns a copy of one menu
func (s *MemoryStore) GetMenu(ctx context.Context, deviceID, menuID uuid.UUID) (*models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.menus[deviceID] {
		if m.ID == menuID {
			out := copyMenu(m)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListMenus returns the history, most recently inserted first
func (s *MemoryStore) ListMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.menus[deviceID]
	out := make([]models.Menu, len(history))
	for i, m := range history {
		out[i] = copyMenu(m)
	}
	return out, nil
}

// DeleteMenu removes one menu
func (s *MemoryStore) DeleteMenu(ctx context.Context, deviceID, menuID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.menus[deviceID]
	for i, m := range history {
		if m.ID == menuID {
			s.menus[deviceID] = append(history[:i:i], history[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteAllMenus clears the history
func (s *MemoryStore) DeleteAllMenus(ctx context.Context, deviceID uuid.UUID) ([]models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.menus[deviceID]
	delete(s.menus, deviceID)
	if removed == nil {
		removed = []models.Menu{}
	}
	return removed, nil
}

// GetProfile returns a copy of the device's profile
func (s *MemoryStore) GetProfile(ctx context.Context, deviceID uuid.UUID) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	out, err := copyProfile(p)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveProfile stores a copy of profile
func (s *MemoryStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	p, err := copyProfile(*profile)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.DeviceID] = p
	return nil
}

// CreateDevice registers a device and its initial profile
func (s *MemoryStore) CreateDevice(ctx context.Context, device *models.Device, profile *models.UserProfile) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	profile.DeviceID = device.ID

	p, err := copyProfile(*profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[device.ID] = *device
	s.profiles[device.ID] = p
	return nil
}

// GetDevice returns a registered device
func (s *MemoryStore) GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

// TouchDevice updates LastSeenAt
func (s *MemoryStore) TouchDevice(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return ErrNotFound
	}
	d.LastSeenAt = at
	s.devices[id] = d
	return nil
}
