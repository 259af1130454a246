// Package matcher cross references dish restriction tags with a user's active
// restrictions and grades every dish as safe, advisory or dangerous.
//
// Everything here is a pure function of its arguments and safe for concurrent use.
package matcher

import (
	"encoding/json"
	"fmt"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// Severity orders verdicts: Safe < Advisory < Dangerous.
type Severity int

const (
	Safe Severity = iota
	Advisory
	Dangerous
)

func (s Severity) String() string {
	switch s {
	case Safe:
		return "safe"
	case Advisory:
		return "advisory"
	case Dangerous:
		return "dangerous"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalJSON writes the severity name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "safe":
		*s = Safe
	case "advisory":
		*s = Advisory
	case "dangerous":
		*s = Dangerous
	default:
		return fmt.Errorf("unknown severity %q", name)
	}
	return nil
}

// IngredientHighlight marks one ingredient of a dish. Keyword and TagID are set only when flagged.
type IngredientHighlight struct {
	Ingredient string `json:"ingredient"`
	Flagged    bool   `json:"flagged"`
	TagID      string `json:"tagId,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
}

// AnalyzedDish is the verdict for one dish under one restriction set. It is never stored.
type AnalyzedDish struct {
	Dish            models.Dish           `json:"dish"`
	MatchedTagIDs   []string              `json:"matchedTagIds"`
	HardAllergenIDs []string              `json:"hardAllergenIds"`
	AdvisoryIDs     []string              `json:"advisoryIds"`
	Severity        Severity              `json:"severity"`
	Ingredients     []IngredientHighlight `json:"ingredients"`
	Explanation     string                `json:"explanation"`
}

// IsSafe reports whether no active restriction matched.
func (a AnalyzedDish) IsSafe() bool { return a.Severity == Safe }

// Matcher grades dishes against a taxonomy.
type Matcher struct {
	tax *taxonomy.Taxonomy
}

// New returns a Matcher over tax, or over the bundled taxonomy when tax is nil.
func New(tax *taxonomy.Taxonomy) *Matcher {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Matcher{tax: tax}
}

// Analyze grades every dish of menu against the active restriction ids, keeping dish order.
func (m *Matcher) Analyze(menu *models.Menu, active []string) []AnalyzedDish {
	if menu == nil {
		return []AnalyzedDish{}
	}
	return m.AnalyzeDishes(menu.Dishes, active)
}

// AnalyzeProfile grades menu against the union of the profile's selections.
func (m *Matcher) AnalyzeProfile(menu *models.Menu, profile *models.UserProfile) []AnalyzedDish {
	var active []string
	if profile != nil {
		active = profile.ActiveRestrictions()
	}
	return m.Analyze(menu, active)
}

// AnalyzeDishes grades a bare dish list.
func (m *Matcher) AnalyzeDishes(dishes []models.Dish, active []string) []AnalyzedDish {
	set := make(map[string]struct{}, len(active))
	for _, id := range active {
		set[id] = struct{}{}
	}

	out := make([]AnalyzedDish, 0, len(dishes))
	for _, dish := range dishes {
		out = append(out, m.analyzeDish(dish, set))
	}
	return out
}

func (m *Matcher) analyzeDish(dish models.Dish, active map[string]struct{}) AnalyzedDish {
	matched := make([]string, 0)
	seen := make(map[string]struct{}, len(dish.RestrictionTags))
	for _, id := range dish.RestrictionTags {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := active[id]; ok {
			matched = append(matched, id)
		}
	}

	hard, advisory, severity := m.Classify(matched)
	a := AnalyzedDish{
		Dish:            dish,
		MatchedTagIDs:   matched,
		HardAllergenIDs: hard,
		AdvisoryIDs:     advisory,
		Severity:        severity,
		Ingredients:     m.HighlightIngredients(dish.Ingredients, matched),
	}
	a.Explanation = m.Explain(a)
	return a
}

// Classify splits matched ids into hard allergens and advisory ids and derives the severity.
// Any hard allergen makes the dish Dangerous; advisory ids alone make it Advisory.
func (m *Matcher) Classify(matched []string) (hard, advisory []string, severity Severity) {
	hard = make([]string, 0)
	advisory = make([]string, 0)
	for _, id := range matched {
		if m.tax.IsHardAllergen(id) {
			hard = append(hard, id)
		} else {
			advisory = append(advisory, id)
		}
	}
	switch {
	case len(hard) > 0:
		severity = Dangerous
	case len(advisory) > 0:
		severity = Advisory
	default:
		severity = Safe
	}
	return hard, advisory, severity
}

// HighlightIngredients flags every ingredient containing a keyword of one of the matched tags.
// The first matching tag, in matched order, wins.
func (m *Matcher) HighlightIngredients(ingredients, matched []string) []IngredientHighlight {
	out := make([]IngredientHighlight, len(ingredients))
	for i, ingredient := range ingredients {
		out[i] = IngredientHighlight{Ingredient: ingredient}
		for _, id := range matched {
			if kw, ok := m.tax.MatchKeyword(id, ingredient); ok {
				out[i].Flagged = true
				out[i].TagID = id
				out[i].Keyword = kw
				break
			}
		}
	}
	return out
}

// SafeCount counts dishes with no matched restriction.
func SafeCount(analyzed []AnalyzedDish) int {
	n := 0
	for _, a := range analyzed {
		if a.IsSafe() {
			n++
		}
	}
	return n
}

// UnsafeCount counts dishes with at least one matched restriction.
func UnsafeCount(analyzed []AnalyzedDish) int {
	return len(analyzed) - SafeCount(analyzed)
}

// CountBySeverity tallies verdicts.
func CountBySeverity(analyzed []AnalyzedDish) map[Severity]int {
	out := map[Severity]int{Safe: 0, Advisory: 0, Dangerous: 0}
	for _, a := range analyzed {
		out[a.Severity]++
	}
	return out
}
