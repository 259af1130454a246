package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tax, err := Load()
	require.NoError(t, err)

	t.Run("catalog sizes", func(t *testing.T) {
		assert.Len(t, tax.Catalog(CategoryAllergen), 14)
		assert.Len(t, tax.Catalog(CategoryIntolerance), 4)
		assert.Len(t, tax.Catalog(CategoryCondition), 6)
		assert.Len(t, tax.Catalog(CategoryDiet), 5)
		assert.Len(t, tax.Catalog(CategorySituation), 2)
		assert.Len(t, tax.AllIDs(), 31)
	})

	t.Run("fixed vocabularies", func(t *testing.T) {
		assert.Equal(t, []string{
			"gluten", "crustaceans", "eggs", "fish", "peanuts", "soy", "dairy",
			"tree_nuts", "celery", "mustard", "sesame", "sulfites", "lupins", "mollusks",
		}, tax.IDs(CategoryAllergen))
		assert.Equal(t, []string{"lactose", "fructose", "histamine", "fodmap"}, tax.IDs(CategoryIntolerance))
		assert.Equal(t, []string{"celiac", "diabetes", "hypertension", "kidney_disease", "gout", "favism"}, tax.IDs(CategoryCondition))
		assert.Equal(t, []string{"vegetarian", "vegan", "pescatarian", "halal", "kosher"}, tax.IDs(CategoryDiet))
		assert.Equal(t, []string{"pregnant", "breastfeeding"}, tax.IDs(CategorySituation))
	})

	t.Run("category membership", func(t *testing.T) {
		c, ok := tax.CategoryOf("vegan")
		require.True(t, ok)
		assert.Equal(t, CategoryDiet, c)

		assert.True(t, tax.IsHardAllergen("peanuts"))
		assert.False(t, tax.IsHardAllergen("lactose"))
		assert.False(t, tax.IsHardAllergen("unknown"))
		assert.False(t, tax.Known("spaceship"))
	})

	t.Run("catalog is copied", func(t *testing.T) {
		tags := tax.Catalog(CategorySituation)
		tags[0].Name = "changed"
		assert.Equal(t, "Pregnant", tax.Name("pregnant"))
	})
}

func TestMatchKeyword(t *testing.T) {
	tax := Default()

	tests := []struct {
		name       string
		id         string
		ingredient string
		want       bool
	}{
		{"english wheat", "gluten", "Wheat flour", true},
		{"spanish flour", "gluten", "Harina de maíz", true},
		{"italian cream", "dairy", "Panna fresca", true},
		{"no match", "peanuts", "Tomato sauce", false},
		{"unknown tag", "spaceship", "anything", false},
		{"case insensitive", "fish", "SALMON fillet", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := tax.MatchKeyword(tt.id, tt.ingredient)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryIcons(t *testing.T) {
	assert.Len(t, CategoryIcons, 17)
	assert.Equal(t, "ramen", NormalizeCategoryIcon("ramen"))
	assert.Equal(t, DefaultCategoryIcon, NormalizeCategoryIcon("spaceship"))
	assert.Equal(t, DefaultCategoryIcon, NormalizeCategoryIcon(""))
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"allergen":       CategoryAllergen,
		"Diets":          CategoryDiet,
		"situationIds":   CategorySituation,
		" intolerances ": CategoryIntolerance,
	} {
		got, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCategory("cuisine")
	assert.False(t, ok)
}
