package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// UnknownLanguage is stored when the menu language could not be determined.
const UnknownLanguage = "Unknown"

// UnknownRestaurant is what the model writes when no restaurant name is visible.
const UnknownRestaurant = "Unknown"

// MaxRestaurantNameLength caps user supplied restaurant names.
const MaxRestaurantNameLength = 20

// Menu is one scanned menu. Restaurant, Dishes, MenuLanguage and CategoryIcon may be
// replaced by a rename or a retranslation; everything else is fixed at scan time.
type Menu struct {
	ID           uuid.UUID        `gorm:"type:varchar(36);primarykey" json:"id"`
	DeviceID     uuid.UUID        `gorm:"type:varchar(36);not null;index" json:"-"`
	Restaurant   string           `gorm:"size:255;not null" json:"restaurant"`
	Dishes       Dishes           `gorm:"not null" json:"dishes"`
	ScannedAt    time.Time        `gorm:"not null;index" json:"scannedAt"`
	CategoryIcon string           `gorm:"size:32;not null;default:'restaurant'" json:"categoryIcon"`
	MenuLanguage string           `gorm:"size:64;not null;default:'Unknown'" json:"menuLanguage"`
	PhotoKeys    JSONBStringArray `json:"-"`
}

// TableName returns the table name for the Menu model
func (Menu) TableName() string {
	return "menus"
}

// NewMenu builds a menu scanned now. The icon is coerced to the fixed list and an
// empty language becomes UnknownLanguage.
func NewMenu(restaurant string, dishes []Dish, categoryIcon, menuLanguage string) *Menu {
	if dishes == nil {
		dishes = []Dish{}
	}
	return &Menu{
		ID:           uuid.New(),
		Restaurant:   strings.TrimSpace(restaurant),
		Dishes:       Dishes(dishes),
		ScannedAt:    time.Now().UTC(),
		CategoryIcon: taxonomy.NormalizeCategoryIcon(categoryIcon),
		MenuLanguage: NormalizeLanguageName(menuLanguage),
	}
}

// IsUnnamed reports whether the restaurant name is missing or the model's "Unknown" placeholder.
func (m *Menu) IsUnnamed() bool {
	name := strings.TrimSpace(m.Restaurant)
	return name == "" || strings.EqualFold(name, UnknownRestaurant)
}

// Rename replaces the restaurant name.
func (m *Menu) Rename(name string) {
	m.Restaurant = strings.TrimSpace(name)
}

// ReplaceDishes swaps in a translated dish list.
func (m *Menu) ReplaceDishes(dishes []Dish, menuLanguage string) {
	m.Dishes = Dishes(dishes)
	m.MenuLanguage = NormalizeLanguageName(menuLanguage)
}

// Categories returns the distinct dish categories, sorted.
func (m *Menu) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range m.Dishes {
		if d.Category == "" {
			continue
		}
		if _, ok := seen[d.Category]; ok {
			continue
		}
		seen[d.Category] = struct{}{}
		out = append(out, d.Category)
	}
	sort.Strings(out)
	return out
}

// UnmarshalJSON applies the persisted-shape defaults: an unknown or missing icon becomes
// "restaurant" and a missing language becomes "Unknown".
func (m *Menu) UnmarshalJSON(data []byte) error {
	type alias Menu
	aux := (*alias)(m)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	m.CategoryIcon = taxonomy.NormalizeCategoryIcon(m.CategoryIcon)
	if strings.TrimSpace(m.MenuLanguage) == "" {
		m.MenuLanguage = UnknownLanguage
	}
	if m.Dishes == nil {
		m.Dishes = Dishes{}
	}
	return nil
}

// NormalizeLanguageName trims and title-cases a free text language name ("italian" -> "Italian").
func NormalizeLanguageName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownLanguage
	}
	return cases.Title(language.Und).String(name)
}
