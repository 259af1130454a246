package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// ErrUnknownRestriction is returned when an id is not part of the category it was filed under.
var ErrUnknownRestriction = errors.New("unknown restriction id for category")

// RestrictionSelections maps each category to the tag ids the user picked in it.
type RestrictionSelections map[taxonomy.Category][]string

// Value implements the driver.Valuer interface
func (r RestrictionSelections) Value() (driver.Value, error) {
	b, err := json.Marshal(r.byProfileKey())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (r *RestrictionSelections) Scan(value interface{}) error {
	*r = RestrictionSelections{}
	if value == nil {
		return nil
	}
	raw := map[string][]string{}
	if err := scanJSON(value, &raw); err != nil {
		return err
	}
	*r = selectionsFromProfileKeys(raw)
	return nil
}

// GormDBDataType implements schema.GormDBDataTypeInterface
func (RestrictionSelections) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonColumnType(db)
}

func (r RestrictionSelections) byProfileKey() map[string][]string {
	out := make(map[string][]string, len(taxonomy.Categories))
	for _, c := range taxonomy.Categories {
		ids := r[c]
		if ids == nil {
			ids = []string{}
		}
		out[c.ProfileKey()] = ids
	}
	return out
}

func selectionsFromProfileKeys(raw map[string][]string) RestrictionSelections {
	out := make(RestrictionSelections, len(taxonomy.Categories))
	for _, c := range taxonomy.Categories {
		ids := raw[c.ProfileKey()]
		if ids == nil {
			ids = []string{}
		}
		out[c] = ids
	}
	return out
}

// UserProfile is the single dietary profile of a device.
type UserProfile struct {
	DeviceID       uuid.UUID             `gorm:"type:varchar(36);primarykey" json:"-"`
	NativeLanguage string                `gorm:"size:64;not null" json:"nativeLanguage"`
	Restrictions   RestrictionSelections `gorm:"not null" json:"-"`
	SaveHistory    bool                  `gorm:"not null" json:"saveHistory"`
	UpdatedAt      time.Time             `json:"-"`
}

// TableName returns the table name for the UserProfile model
func (UserProfile) TableName() string {
	return "user_profiles"
}

// NewUserProfile creates a profile with no selections and history saving on.
func NewUserProfile(nativeLanguage string) *UserProfile {
	return &UserProfile{
		NativeLanguage: nativeLanguage,
		Restrictions:   selectionsFromProfileKeys(nil),
		SaveHistory:    true,
	}
}

// IDs returns the selections for one category.
func (p *UserProfile) IDs(c taxonomy.Category) []string {
	return cloneStrings(p.Restrictions[c])
}

// SetIDs replaces the selections of a category after checking every id belongs to it.
// Duplicates are dropped and the result is sorted.
func (p *UserProfile) SetIDs(tax *taxonomy.Taxonomy, c taxonomy.Category, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !tax.Contains(c, id) {
			return fmt.Errorf("%w: %q in %s", ErrUnknownRestriction, id, c)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	if p.Restrictions == nil {
		p.Restrictions = selectionsFromProfileKeys(nil)
	}
	p.Restrictions[c] = out
	return nil
}

// Normalize checks every selection against the taxonomy, dropping duplicates and
// sorting each category. The native language must be set.
func (p *UserProfile) Normalize(tax *taxonomy.Taxonomy) error {
	p.NativeLanguage = strings.TrimSpace(p.NativeLanguage)
	if p.NativeLanguage == "" {
		return errors.New("nativeLanguage is required")
	}
	for _, c := range taxonomy.Categories {
		if err := p.SetIDs(tax, c, p.Restrictions[c]); err != nil {
			return err
		}
	}
	return nil
}

// IsSelected reports whether id is selected in category c.
func (p *UserProfile) IsSelected(c taxonomy.Category, id string) bool {
	for _, got := range p.Restrictions[c] {
		if got == id {
			return true
		}
	}
	return false
}

// Toggle flips one selection and reports whether it is now selected.
func (p *UserProfile) Toggle(tax *taxonomy.Taxonomy, c taxonomy.Category, id string) (bool, error) {
	if !tax.Contains(c, id) {
		return false, fmt.Errorf("%w: %q in %s", ErrUnknownRestriction, id, c)
	}
	current := p.IDs(c)
	if p.IsSelected(c, id) {
		next := current[:0]
		for _, got := range current {
			if got != id {
				next = append(next, got)
			}
		}
		return false, p.SetIDs(tax, c, next)
	}
	return true, p.SetIDs(tax, c, append(current, id))
}

// ActiveRestrictions is the union of the five category selections.
func (p *UserProfile) ActiveRestrictions() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range taxonomy.Categories {
		for _, id := range p.Restrictions[c] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// RestrictionCount is the total number of selections across categories.
func (p *UserProfile) RestrictionCount() int {
	n := 0
	for _, c := range taxonomy.Categories {
		n += len(p.Restrictions[c])
	}
	return n
}

type profileJSON struct {
	NativeLanguage *string  `json:"nativeLanguage"`
	AllergenIDs    []string `json:"allergenIds"`
	IntoleranceIDs []string `json:"intoleranceIds"`
	ConditionIDs   []string `json:"conditionIds"`
	DietIDs        []string `json:"dietIds"`
	SituationIDs   []string `json:"situationIds"`
	SaveHistory    *bool    `json:"saveHistory"`
}

// MarshalJSON writes the flat persisted shape with one array per category.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	byKey := p.Restrictions.byProfileKey()
	lang := p.NativeLanguage
	save := p.SaveHistory
	return json.Marshal(profileJSON{
		NativeLanguage: &lang,
		AllergenIDs:    byKey[taxonomy.CategoryAllergen.ProfileKey()],
		IntoleranceIDs: byKey[taxonomy.CategoryIntolerance.ProfileKey()],
		ConditionIDs:   byKey[taxonomy.CategoryCondition.ProfileKey()],
		DietIDs:        byKey[taxonomy.CategoryDiet.ProfileKey()],
		SituationIDs:   byKey[taxonomy.CategorySituation.ProfileKey()],
		SaveHistory:    &save,
	})
}

// UnmarshalJSON reads the persisted shape. nativeLanguage is required; missing category
// arrays default to empty and a missing saveHistory defaults to true.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw profileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.NativeLanguage == nil {
		return errors.New("user profile is missing nativeLanguage")
	}
	p.NativeLanguage = *raw.NativeLanguage
	p.Restrictions = selectionsFromProfileKeys(map[string][]string{
		taxonomy.CategoryAllergen.ProfileKey():    raw.AllergenIDs,
		taxonomy.CategoryIntolerance.ProfileKey(): raw.IntoleranceIDs,
		taxonomy.CategoryCondition.ProfileKey():   raw.ConditionIDs,
		taxonomy.CategoryDiet.ProfileKey():        raw.DietIDs,
		taxonomy.CategorySituation.ProfileKey():   raw.SituationIDs,
	})
	p.SaveHistory = true
	if raw.SaveHistory != nil {
		p.SaveHistory = *raw.SaveHistory
	}
	return nil
}
