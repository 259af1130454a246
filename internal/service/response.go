package service

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// StripCodeFences removes Markdown code fences and surrounding whitespace from a model reply.
func StripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// extractJSON cuts a reply down to the outermost open..close pair when the model
// wrapped the JSON in prose.
func extractJSON(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeReply unmarshals a stripped reply, retrying on the embedded JSON value if the
// whole text does not parse.
func decodeReply(content string, open, close byte, dst interface{}) error {
	cleaned := StripCodeFences(content)
	err := json.Unmarshal([]byte(cleaned), dst)
	if err == nil {
		return nil
	}
	if inner, ok := extractJSON(cleaned, open, close); ok && inner != cleaned {
		if json.Unmarshal([]byte(inner), dst) == nil {
			return nil
		}
	}
	return newAnalysisError(KindInvalidResponse, err, "reply is not valid JSON")
}

// flexString accepts a JSON string or number, since models sometimes emit prices as numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = flexString(num.String())
		return nil
	}
	return newAnalysisError(KindInvalidResponse, nil, "expected string or number, got %s", string(data))
}

type menuReply struct {
	Restaurant   *string     `json:"restaurant"`
	CategoryIcon string      `json:"categoryIcon"`
	MenuLanguage string      `json:"menuLanguage"`
	Dishes       *[]dishWire `json:"dishes"`
}

// dishWire is the per-dish shape exchanged with the model in both directions.
type dishWire struct {
	Name        *string    `json:"name"`
	Description flexString `json:"description,omitempty"`
	Price       flexString `json:"price,omitempty"`
	Category    flexString `json:"category,omitempty"`
	Ingredients *[]string  `json:"ingredients"`
	AllergenIDs *[]string  `json:"allergenIds"`
	TagIDs      *[]string  `json:"tagIds,omitempty"`
}

func dishToWire(d models.Dish) dishWire {
	name := d.Name
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	tags := d.RestrictionTags
	if tags == nil {
		tags = []string{}
	}
	return dishWire{
		Name:        &name,
		Description: flexString(d.Description),
		Price:       flexString(d.Price),
		Category:    flexString(d.Category),
		Ingredients: &ingredients,
		AllergenIDs: &tags,
	}
}

// replyParser turns model replies into domain values.
type replyParser struct {
	tax    *taxonomy.Taxonomy
	logger *zap.Logger
}

// parseMenu validates an analysis reply. A missing restaurant or an absent or empty dish
// list is UnreadableMenu; anything structurally wrong is InvalidResponse.
func (p *replyParser) parseMenu(content, userLanguage string) (*models.Menu, error) {
	var reply menuReply
	if err := decodeReply(content, '{', '}', &reply); err != nil {
		return nil, err
	}
	if reply.Restaurant == nil {
		return nil, newAnalysisError(KindUnreadableMenu, nil, "reply has no restaurant")
	}
	if reply.Dishes == nil || len(*reply.Dishes) == 0 {
		return nil, newAnalysisError(KindUnreadableMenu, nil, "reply has no dishes")
	}

	dishes, err := p.buildDishes(*reply.Dishes)
	if err != nil {
		return nil, err
	}

	if reply.CategoryIcon != "" && !taxonomy.IsCategoryIcon(reply.CategoryIcon) {
		p.logger.Debug("coercing unknown category icon", zap.String("icon", reply.CategoryIcon))
	}

	language := strings.TrimSpace(reply.MenuLanguage)
	if language == "" {
		language = userLanguage
	}

	return models.NewMenu(*reply.Restaurant, dishes, reply.CategoryIcon, language), nil
}

// parseDishes validates a retranslation reply, a bare JSON array of dishes.
func (p *replyParser) parseDishes(content string) ([]models.Dish, error) {
	var reply []dishWire
	if err := decodeReply(content, '[', ']', &reply); err != nil {
		return nil, err
	}
	return p.buildDishes(reply)
}

func (p *replyParser) buildDishes(wire []dishWire) ([]models.Dish, error) {
	dishes := make([]models.Dish, 0, len(wire))
	for i, w := range wire {
		if w.Name == nil || strings.TrimSpace(*w.Name) == "" {
			return nil, newAnalysisError(KindInvalidResponse, nil, "dish %d has no name", i)
		}
		if w.Ingredients == nil {
			return nil, newAnalysisError(KindInvalidResponse, nil, "dish %d (%s) has no ingredients array", i, *w.Name)
		}
		tags := w.AllergenIDs
		if tags == nil {
			tags = w.TagIDs
		}
		if tags == nil {
			return nil, newAnalysisError(KindInvalidResponse, nil, "dish %d (%s) has no allergenIds array", i, *w.Name)
		}

		dishes = append(dishes, models.NewDish(
			strings.TrimSpace(*w.Name),
			strings.TrimSpace(string(w.Description)),
			strings.TrimSpace(string(w.Price)),
			strings.TrimSpace(string(w.Category)),
			cleanIngredients(*w.Ingredients),
			p.cleanTags(*w.Name, *tags),
		))
	}
	return dishes, nil
}

func cleanIngredients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, ing := range in {
		if ing = strings.TrimSpace(ing); ing != "" {
			out = append(out, ing)
		}
	}
	return out
}

// cleanTags lowercases ids, drops duplicates and drops ids outside the taxonomy.
func (p *replyParser) cleanTags(dish string, in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, id := range in {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if !p.tax.Known(id) {
			p.logger.Warn("dropping unknown restriction tag", zap.String("dish", dish), zap.String("tag", id))
			continue
		}
		out = append(out, id)
	}
	return out
}
