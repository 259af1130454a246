package matcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

func menuOf(dishes ...models.Dish) *models.Menu {
	return models.NewMenu("Test", dishes, "restaurant", "English")
}

func dish(name string, ingredients []string, tags ...string) models.Dish {
	return models.NewDish(name, "", "", "", ingredients, tags)
}

func profileWith(t *testing.T, selections map[taxonomy.Category][]string) *models.UserProfile {
	t.Helper()
	p := models.NewUserProfile("English")
	for c, ids := range selections {
		require.NoError(t, p.SetIDs(taxonomy.Default(), c, ids))
	}
	return p
}

func TestAnalyzeScenarios(t *testing.T) {
	m := New(nil)

	t.Run("hard allergen is dangerous", func(t *testing.T) {
		p := profileWith(t, map[taxonomy.Category][]string{
			taxonomy.CategoryAllergen: {"peanuts"},
			taxonomy.CategoryDiet:     {"vegetarian"},
		})
		got := m.AnalyzeProfile(menuOf(dish("Satay", []string{"Peanut sauce"}, "peanuts", "vegetarian")), p)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"peanuts", "vegetarian"}, got[0].MatchedTagIDs)
		assert.Equal(t, []string{"peanuts"}, got[0].HardAllergenIDs)
		assert.Equal(t, Dangerous, got[0].Severity)
		assert.Equal(t, "Contains Peanuts. Not suitable for: Vegetarian.", got[0].Explanation)
	})

	t.Run("diet only is advisory", func(t *testing.T) {
		p := profileWith(t, map[taxonomy.Category][]string{taxonomy.CategoryDiet: {"vegan"}})
		got := m.AnalyzeProfile(menuOf(dish("Steak", []string{"Beef"}, "vegan")), p)
		assert.Equal(t, []string{"vegan"}, got[0].MatchedTagIDs)
		assert.Empty(t, got[0].HardAllergenIDs)
		assert.Equal(t, Advisory, got[0].Severity)
	})

	t.Run("empty profile is safe", func(t *testing.T) {
		got := m.AnalyzeProfile(menuOf(dish("Bread", []string{"Wheat flour"}, "gluten")), models.NewUserProfile("English"))
		assert.Empty(t, got[0].MatchedTagIDs)
		assert.Equal(t, Safe, got[0].Severity)
		assert.False(t, got[0].Ingredients[0].Flagged)
	})

	t.Run("wheat flour is flagged for gluten", func(t *testing.T) {
		got := m.Analyze(menuOf(dish("Bread", []string{"Wheat flour", "Water"}, "gluten")), []string{"gluten"})
		require.Len(t, got[0].Ingredients, 2)
		assert.True(t, got[0].Ingredients[0].Flagged)
		assert.Equal(t, "gluten", got[0].Ingredients[0].TagID)
		assert.Equal(t, "wheat", got[0].Ingredients[0].Keyword)
		assert.False(t, got[0].Ingredients[1].Flagged)
	})

	t.Run("nil and empty inputs", func(t *testing.T) {
		assert.Empty(t, m.Analyze(nil, []string{"gluten"}))
		assert.Empty(t, m.Analyze(menuOf(), nil))
		assert.Equal(t, Safe, m.Analyze(menuOf(dish("Water", nil, "gluten")), nil)[0].Severity)
	})
}

func TestAnalyzeProperties(t *testing.T) {
	m := New(nil)
	menu := menuOf(
		dish("Carbonara", []string{"Spaghetti", "Egg yolk", "Pancetta"}, "gluten", "eggs", "halal", "pregnant"),
		dish("Salad", []string{"Lettuce"}, "vegan"),
		dish("Tiramisu", []string{"Mascarpone", "Coffee"}, "dairy", "eggs", "lactose", "pregnant"),
		dish("Water", nil),
	)
	small := []string{"lactose", "halal"}
	large := []string{"lactose", "halal", "eggs", "pregnant"}

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, m.Analyze(menu, large), m.Analyze(menu, large))
	})

	t.Run("monotonic", func(t *testing.T) {
		a := m.Analyze(menu, small)
		b := m.Analyze(menu, large)
		for i := range a {
			assert.Subset(t, b[i].MatchedTagIDs, a[i].MatchedTagIDs)
			assert.GreaterOrEqual(t, int(b[i].Severity), int(a[i].Severity))
		}
	})

	t.Run("partition", func(t *testing.T) {
		for _, a := range m.Analyze(menu, large) {
			assert.ElementsMatch(t, a.MatchedTagIDs, append(append([]string{}, a.HardAllergenIDs...), a.AdvisoryIDs...))
			for _, id := range a.HardAllergenIDs {
				assert.NotContains(t, a.AdvisoryIDs, id)
			}
			assert.Equal(t, len(a.HardAllergenIDs) > 0, a.Severity == Dangerous)
		}
	})

	t.Run("counts", func(t *testing.T) {
		analyzed := m.Analyze(menu, large)
		assert.Equal(t, 2, SafeCount(analyzed))
		assert.Equal(t, 2, UnsafeCount(analyzed))
		assert.Equal(t, map[Severity]int{Safe: 2, Advisory: 0, Dangerous: 2}, CountBySeverity(analyzed))
	})
}

func TestExplain(t *testing.T) {
	m := New(nil)
	got := m.Analyze(menuOf(dish("Cake", nil, "lactose", "diabetes", "pregnant")), []string{"lactose", "diabetes", "pregnant"})
	assert.Equal(t, "May trigger intolerance: Lactose. Not recommended with: Diabetes. Caution if: Pregnant.", got[0].Explanation)

	safe := m.Analyze(menuOf(dish("Water", nil)), nil)
	assert.Equal(t, "No conflicts with your profile.", safe[0].Explanation)
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(Dangerous)
	require.NoError(t, err)
	assert.JSONEq(t, `"dangerous"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"advisory"`), &s))
	assert.Equal(t, Advisory, s)
	assert.Error(t, json.Unmarshal([]byte(`"lethal"`), &s))
}

func TestFilterAndGroup(t *testing.T) {
	m := New(nil)
	pasta := models.NewDish("Lasagna", "Lasagne", "", "Pasta", []string{"Ricotta"}, []string{"dairy"})
	soup := models.NewDish("Minestrone", "", "", "Soups", []string{"Beans"}, nil)
	bread := models.NewDish("Focaccia", "", "", "", []string{"Flour"}, nil)
	analyzed := m.Analyze(menuOf(pasta, soup, bread), []string{"dairy"})

	assert.Len(t, Filter(analyzed, FilterOptions{}), 3)
	assert.Len(t, Filter(analyzed, FilterOptions{SafeOnly: true}), 2)
	assert.Len(t, Filter(analyzed, FilterOptions{Category: "pasta"}), 1)
	assert.Len(t, Filter(analyzed, FilterOptions{Category: OtherCategory}), 1)

	byIngredient := Filter(analyzed, FilterOptions{Query: "ricotta"})
	require.Len(t, byIngredient, 1)
	assert.Equal(t, "Lasagna", byIngredient[0].Dish.Name)

	groups := GroupByCategory(analyzed)
	require.Len(t, groups, 3)
	assert.Equal(t, "Other", groups[0].Category)
	assert.Equal(t, "Pasta", groups[1].Category)
	assert.Equal(t, "Soups", groups[2].Category)
}
