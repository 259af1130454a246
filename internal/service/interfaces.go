package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/types"
)

// IMenuAnalyzer reads a menu from photos or text
type IMenuAnalyzer interface {
	AnalyzeMenu(ctx context.Context, images [][]byte, userLanguage string) (*models.Menu, error)
	AnalyzeMenuText(ctx context.Context, text, userLanguage string) (*models.Menu, error)
}

// IRetranslator translates a dish list
type IRetranslator interface {
	Retranslate(ctx context.Context, dishes []models.Dish, targetLanguage string) ([]models.Dish, error)
}

// IDeviceService defines the interface for device registration and tokens
type IDeviceService interface {
	Register(ctx context.Context, platform string, profile *models.UserProfile) (*models.Device, string, error)
	GenerateToken(deviceID uuid.UUID) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	Touch(ctx context.Context, deviceID uuid.UUID)
}

// IProfileService defines the interface for dietary profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, deviceID uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, deviceID uuid.UUID, profile *models.UserProfile) (*models.UserProfile, error)
	ToggleRestriction(ctx context.Context, deviceID uuid.UUID, category, id string) (bool, *models.UserProfile, error)
}

// IMenuService defines the interface for menu analysis and history operations
type IMenuService interface {
	Analyze(ctx context.Context, deviceID uuid.UUID, in AnalyzeInput) (*types.MenuAnalysis, error)
	Save(ctx context.Context, deviceID uuid.UUID, menu *models.Menu, restaurant string) (*types.MenuAnalysis, error)
	List(ctx context.Context, deviceID uuid.UUID) []types.MenuSummary
	Get(ctx context.Context, deviceID, menuID uuid.UUID) (*types.MenuAnalysis, error)
	Rename(ctx context.Context, deviceID, menuID uuid.UUID, name string) (*types.MenuAnalysis, error)
	Retranslate(ctx context.Context, deviceID, menuID uuid.UUID, targetLanguage string) (*types.MenuAnalysis, error)
	Delete(ctx context.Context, deviceID, menuID uuid.UUID) error
	DeleteAll(ctx context.Context, deviceID uuid.UUID) (int, error)
}

var (
	_ IMenuAnalyzer = (*MenuAnalyzer)(nil)
	_ IRetranslator = (*Retranslator)(nil)
)
