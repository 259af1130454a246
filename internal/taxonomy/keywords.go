package taxonomy

import "strings"

// Keywords returns the lowercase ingredient substrings that indicate tag id.
// Lists mix languages and are matched as plain substrings, so partial-word hits
// ("pan" in "panna") are possible.
func (t *Taxonomy) Keywords(id string) []string {
	words := t.keywords[id]
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// MatchKeyword returns the first keyword of tag id found in ingredient.
func (t *Taxonomy) MatchKeyword(id, ingredient string) (string, bool) {
	lower := strings.ToLower(ingredient)
	for _, w := range t.keywords[id] {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}
