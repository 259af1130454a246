package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

var (
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrUnknownCategory = errors.New("unknown restriction category")
)

// ProfileService handles the dietary profile of a device. Every mutation is committed
// with a single explicit save.
type ProfileService struct {
	store  store.ProfileStore
	tax    *taxonomy.Taxonomy
	logger *zap.Logger
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(st store.ProfileStore, tax *taxonomy.Taxonomy, logger *zap.Logger) *ProfileService {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: st, tax: tax, logger: logger}
}

// GetProfile retrieves a device's profile
func (s *ProfileService) GetProfile(ctx context.Context, deviceID uuid.UUID) (*models.UserProfile, error) {
	return s.store.GetProfile(ctx, deviceID)
}

// UpdateProfile replaces the whole profile record
func (s *ProfileService) UpdateProfile(ctx context.Context, deviceID uuid.UUID, profile *models.UserProfile) (*models.UserProfile, error) {
	if err := profile.Normalize(s.tax); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	profile.DeviceID = deviceID
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("profile updated",
		zap.String("device_id", deviceID.String()),
		zap.Int("restrictions", profile.RestrictionCount()))
	return profile, nil
}

// ToggleRestriction flips one id in one category and saves. It returns whether the id is now selected.
func (s *ProfileService) ToggleRestriction(ctx context.Context, deviceID uuid.UUID, category, id string) (bool, *models.UserProfile, error) {
	c, ok := taxonomy.ParseCategory(category)
	if !ok {
		return false, nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	profile, err := s.store.GetProfile(ctx, deviceID)
	if err != nil {
		return false, nil, err
	}

	selected, err := profile.Toggle(s.tax, c, id)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return false, nil, err
	}
	return selected, profile, nil
}
