package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/matcher"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// RegisterDeviceRequest is the onboarding body. Profile uses the persisted profile shape.
type RegisterDeviceRequest struct {
	Platform string             `json:"platform"`
	Profile  models.UserProfile `json:"profile"`
}

// RegisterDeviceResponse carries the bearer token for all later calls
type RegisterDeviceResponse struct {
	DeviceID uuid.UUID           `json:"deviceId"`
	Token    string              `json:"token"`
	Profile  *models.UserProfile `json:"profile"`
}

// ToggleRestrictionRequest flips one selection in one category
type ToggleRestrictionRequest struct {
	Category string `json:"category" binding:"required"`
	ID       string `json:"id" binding:"required"`
}

// ToggleRestrictionResponse reports the new state of the toggled id
type ToggleRestrictionResponse struct {
	Selected bool                `json:"selected"`
	Profile  *models.UserProfile `json:"profile"`
}

// AnalyzeMenuRequest is the JSON form of an analysis request. Images are base64 encoded.
type AnalyzeMenuRequest struct {
	Images   []string `json:"images"`
	Text     string   `json:"text"`
	Language string   `json:"language"`
}

// MenuAnalysis is a menu together with its per-dish verdicts for the caller's profile
type MenuAnalysis struct {
	Menu        *models.Menu           `json:"menu"`
	Dishes      []matcher.AnalyzedDish `json:"dishes"`
	SafeCount   int                    `json:"safeCount"`
	UnsafeCount int                    `json:"unsafeCount"`
	// NeedsName is set when the restaurant is unknown and must be named before saving.
	NeedsName bool     `json:"needsName"`
	PhotoURLs []string `json:"photoUrls,omitempty"`
	// Groups is filled when the caller asks for dishes grouped by menu section.
	Groups []matcher.CategoryGroup `json:"groups,omitempty"`
	// Persisted is false when the change could not be written; the menu shown is still current.
	Persisted *bool `json:"persisted,omitempty"`
}

// SaveMenuRequest stores an analyzed menu in the history
type SaveMenuRequest struct {
	Menu       models.Menu `json:"menu"`
	Restaurant string      `json:"restaurant"`
}

// RenameMenuRequest renames a saved menu
type RenameMenuRequest struct {
	Restaurant string `json:"restaurant" binding:"required"`
}

// RetranslateMenuRequest translates a saved menu into another language
type RetranslateMenuRequest struct {
	TargetLanguage string `json:"targetLanguage" binding:"required"`
}

// MenuSummary is one row of the history list
type MenuSummary struct {
	ID           uuid.UUID `json:"id"`
	Restaurant   string    `json:"restaurant"`
	ScannedAt    time.Time `json:"scannedAt"`
	CategoryIcon string    `json:"categoryIcon"`
	MenuLanguage string    `json:"menuLanguage"`
	DishCount    int       `json:"dishCount"`
	UnsafeCount  int       `json:"unsafeCount"`
}

// MenuListResponse is the history, newest first
type MenuListResponse struct {
	Menus []MenuSummary `json:"menus"`
}

// TaxonomyCategory is one restriction catalog with its section metadata
type TaxonomyCategory struct {
	Category    taxonomy.Category         `json:"category"`
	ProfileKey  string                    `json:"profileKey"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Icon        string                    `json:"icon"`
	Tags        []taxonomy.RestrictionTag `json:"tags"`
}

// TaxonomyResponse lists everything a client needs to render the profile screens
type TaxonomyResponse struct {
	Categories    []TaxonomyCategory `json:"categories"`
	CategoryIcons []string           `json:"categoryIcons"`
	Languages     []string           `json:"languages"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}
