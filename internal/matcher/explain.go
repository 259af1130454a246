package matcher

import (
	"strings"

	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// Explain renders a one line verdict, e.g. "Contains Peanuts. Not suitable for: Vegetarian."
func (m *Matcher) Explain(a AnalyzedDish) string {
	if len(a.MatchedTagIDs) == 0 {
		return "No conflicts with your profile."
	}

	var parts []string
	if len(a.HardAllergenIDs) > 0 {
		parts = append(parts, "Contains "+m.names(a.HardAllergenIDs)+".")
	}

	byCategory := make(map[taxonomy.Category][]string)
	for _, id := range a.AdvisoryIDs {
		c, _ := m.tax.CategoryOf(id)
		byCategory[c] = append(byCategory[c], id)
	}
	if ids := byCategory[taxonomy.CategoryIntolerance]; len(ids) > 0 {
		parts = append(parts, "May trigger intolerance: "+m.names(ids)+".")
	}
	if ids := byCategory[taxonomy.CategoryCondition]; len(ids) > 0 {
		parts = append(parts, "Not recommended with: "+m.names(ids)+".")
	}
	if ids := byCategory[taxonomy.CategoryDiet]; len(ids) > 0 {
		parts = append(parts, "Not suitable for: "+m.names(ids)+".")
	}
	if ids := byCategory[taxonomy.CategorySituation]; len(ids) > 0 {
		parts = append(parts, "Caution if: "+m.names(ids)+".")
	}
	if ids := byCategory[""]; len(ids) > 0 {
		parts = append(parts, "Flagged: "+m.names(ids)+".")
	}
	return strings.Join(parts, " ")
}

func (m *Matcher) names(ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = m.tax.Name(id)
	}
	return strings.Join(names, ", ")
}
