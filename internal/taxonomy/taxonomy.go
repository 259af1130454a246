// Package taxonomy holds the restriction tag catalogs and the ingredient keyword index.
//
// Catalogs are bundled with the binary and parsed once. A tag id belongs to exactly one
// category, decided by the catalog file it appears in.
package taxonomy

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/*.json
var dataFS embed.FS

// Category groups restriction tags.
type Category string

const (
	CategoryAllergen    Category = "allergen"
	CategoryIntolerance Category = "intolerance"
	CategoryCondition   Category = "condition"
	CategoryDiet        Category = "diet"
	CategorySituation   Category = "situation"
)

// Categories lists every category in catalog order.
var Categories = []Category{
	CategoryAllergen,
	CategoryIntolerance,
	CategoryCondition,
	CategoryDiet,
	CategorySituation,
}

type categoryInfo struct {
	file        string
	profileKey  string
	title       string
	icon        string
	description string
}

var categoryMeta = map[Category]categoryInfo{
	CategoryAllergen:    {"allergens.json", "allergenIds", "Allergens", "exclamationmark.shield.fill", "Food allergens that can cause reactions."},
	CategoryIntolerance: {"intolerances.json", "intoleranceIds", "Intolerances", "pills.fill", "Foods your body has trouble digesting."},
	CategoryCondition:   {"conditions.json", "conditionIds", "Medical Conditions", "heart.text.clipboard.fill", "Conditions that affect your diet."},
	CategoryDiet:        {"diets.json", "dietIds", "Diets", "fork.knife", "Lifestyle or religious diets."},
	CategorySituation:   {"situations.json", "situationIds", "Situations", "figure.and.child.holdinghands", "Temporary situations."},
}

// ParseCategory accepts a category name in singular or plural form.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if s == string(c) || s == string(c)+"s" || s == strings.ToLower(categoryMeta[c].profileKey) {
			return c, true
		}
	}
	return "", false
}

// ProfileKey is the JSON field a user profile stores this category's selections under.
func (c Category) ProfileKey() string { return categoryMeta[c].profileKey }

// Title is the human readable section heading.
func (c Category) Title() string { return categoryMeta[c].title }

// Description is a one line explanation of the category.
func (c Category) Description() string { return categoryMeta[c].description }

// Icon is the symbol shown next to the section heading.
func (c Category) Icon() string { return categoryMeta[c].icon }

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	_, ok := categoryMeta[c]
	return ok
}

// RestrictionTag is a single selectable restriction.
type RestrictionTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// HardAllergenCount is the size of the allergen catalog.
const HardAllergenCount = 14

// Taxonomy is the immutable set of catalogs plus the keyword index.
type Taxonomy struct {
	catalogs   map[Category][]RestrictionTag
	byID       map[string]RestrictionTag
	categoryOf map[string]Category
	keywords   map[string][]string
	allIDs     []string
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
	defaultErr  error
)

// Default returns the taxonomy parsed from the bundled catalogs.
// It panics if the bundled data is invalid, which can only happen on a broken build.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		defaultTax, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultTax
}

// Load parses the bundled catalogs and keyword index.
func Load() (*Taxonomy, error) {
	t := &Taxonomy{
		catalogs:   make(map[Category][]RestrictionTag, len(Categories)),
		byID:       make(map[string]RestrictionTag),
		categoryOf: make(map[string]Category),
	}

	for _, c := range Categories {
		raw, err := dataFS.ReadFile("data/" + categoryMeta[c].file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s catalog: %w", c, err)
		}
		var tags []RestrictionTag
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, fmt.Errorf("failed to parse %s catalog: %w", c, err)
		}
		for _, tag := range tags {
			if tag.ID == "" {
				return nil, fmt.Errorf("%s catalog has a tag without id", c)
			}
			if prev, dup := t.categoryOf[tag.ID]; dup {
				return nil, fmt.Errorf("tag %q appears in both %s and %s catalogs", tag.ID, prev, c)
			}
			t.byID[tag.ID] = tag
			t.categoryOf[tag.ID] = c
			t.allIDs = append(t.allIDs, tag.ID)
		}
		t.catalogs[c] = tags
	}

	if n := len(t.catalogs[CategoryAllergen]); n != HardAllergenCount {
		return nil, fmt.Errorf("allergen catalog must hold %d tags, got %d", HardAllergenCount, n)
	}

	raw, err := dataFS.ReadFile("data/keywords.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword index: %w", err)
	}
	var kw map[string][]string
	if err := json.Unmarshal(raw, &kw); err != nil {
		return nil, fmt.Errorf("failed to parse keyword index: %w", err)
	}
	t.keywords = make(map[string][]string, len(kw))
	for id, words := range kw {
		if _, ok := t.byID[id]; !ok {
			return nil, fmt.Errorf("keyword index references unknown tag %q", id)
		}
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(w); w != "" {
				lowered = append(lowered, w)
			}
		}
		t.keywords[id] = lowered
	}

	return t, nil
}

// Catalog returns a copy of the tags in one category.
func (t *Taxonomy) Catalog(c Category) []RestrictionTag {
	tags := t.catalogs[c]
	out := make([]RestrictionTag, len(tags))
	copy(out, tags)
	return out
}

// IDs returns the tag ids of one category in catalog order.
func (t *Taxonomy) IDs(c Category) []string {
	tags := t.catalogs[c]
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.ID
	}
	return out
}

// AllIDs returns every tag id across the five catalogs, in category order.
func (t *Taxonomy) AllIDs() []string {
	out := make([]string, len(t.allIDs))
	copy(out, t.allIDs)
	return out
}

// Tag looks up a tag by id.
func (t *Taxonomy) Tag(id string) (RestrictionTag, bool) {
	tag, ok := t.byID[id]
	return tag, ok
}

// Name returns the display name of id, or id itself when unknown.
func (t *Taxonomy) Name(id string) string {
	if tag, ok := t.byID[id]; ok {
		return tag.Name
	}
	return id
}

// CategoryOf returns the category a tag id belongs to.
func (t *Taxonomy) CategoryOf(id string) (Category, bool) {
	c, ok := t.categoryOf[id]
	return c, ok
}

// Contains reports whether id is part of category c.
func (t *Taxonomy) Contains(c Category, id string) bool {
	got, ok := t.categoryOf[id]
	return ok && got == c
}

// Known reports whether id is in any catalog.
func (t *Taxonomy) Known(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// IsHardAllergen reports whether id is one of the fourteen catalog allergens.
func (t *Taxonomy) IsHardAllergen(id string) bool {
	return t.Contains(CategoryAllergen, id)
}
