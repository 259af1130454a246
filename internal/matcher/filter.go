package matcher

import (
	"sort"
	"strings"
)

// OtherCategory groups dishes the model gave no category.
const OtherCategory = "Other"

// FilterOptions narrows an analyzed dish list. Zero values match everything.
type FilterOptions struct {
	Category string
	Query    string
	SafeOnly bool
}

// Filter keeps the dishes matching every set option. Query is a case-insensitive
// substring over name, description and ingredients.
func Filter(analyzed []AnalyzedDish, opts FilterOptions) []AnalyzedDish {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	out := make([]AnalyzedDish, 0, len(analyzed))
	for _, a := range analyzed {
		if opts.SafeOnly && !a.IsSafe() {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(categoryOf(a), opts.Category) {
			continue
		}
		if query != "" && !matchesQuery(a, query) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesQuery(a AnalyzedDish, query string) bool {
	if strings.Contains(strings.ToLower(a.Dish.Name), query) ||
		strings.Contains(strings.ToLower(a.Dish.Description), query) {
		return true
	}
	for _, ing := range a.Dish.Ingredients {
		if strings.Contains(strings.ToLower(ing), query) {
			return true
		}
	}
	return false
}

func categoryOf(a AnalyzedDish) string {
	if c := strings.TrimSpace(a.Dish.Category); c != "" {
		return c
	}
	return OtherCategory
}

// CategoryGroup is one section of a grouped dish list.
type CategoryGroup struct {
	Category string         `json:"category"`
	Dishes   []AnalyzedDish `json:"dishes"`
}

// GroupByCategory groups dishes by category, sorted by name, keeping dish order inside a group.
func GroupByCategory(analyzed []AnalyzedDish) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, a := range analyzed {
		c := categoryOf(a)
		i, ok := index[c]
		if !ok {
			i = len(groups)
			index[c] = i
			groups = append(groups, CategoryGroup{Category: c})
		}
		groups[i].Dishes = append(groups[i].Dishes, a)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
