package taxonomy

// DefaultCategoryIcon is used when the model picks no icon or one outside the list.
const DefaultCategoryIcon = "restaurant"

// CategoryIcons is the fixed set of restaurant icons the model may choose from.
var CategoryIcons = []string{
	"beer", "dinner", "fried-rice", "lasagna", "lunch-bag", "nachos",
	"pancake", "pasta", "pastry", "pizza-slice", "ramen", "restaurant",
	"rice", "salad", "sausage", "shrimp", "taco",
}

var categoryIconSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CategoryIcons))
	for _, icon := range CategoryIcons {
		m[icon] = struct{}{}
	}
	return m
}()

// IsCategoryIcon reports whether icon is in CategoryIcons.
func IsCategoryIcon(icon string) bool {
	_, ok := categoryIconSet[icon]
	return ok
}

// NormalizeCategoryIcon coerces anything outside the fixed list to DefaultCategoryIcon.
func NormalizeCategoryIcon(icon string) string {
	if IsCategoryIcon(icon) {
		return icon
	}
	return DefaultCategoryIcon
}

// SupportedLanguages are the native languages a profile can pick.
var SupportedLanguages = []string{"English", "Español", "Italiano"}
