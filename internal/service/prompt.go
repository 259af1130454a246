package service

import (
	"fmt"
	"strings"

	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

const (
	analyzeImagesInstruction = "Analyze this restaurant menu and return the structured JSON."
	analyzeTextInstruction   = "Analyze this restaurant menu text and return the structured JSON."
)

// tagSemantics tells the model what each non-allergen id means for a dish.
const tagSemantics = "These cover allergens (gluten, dairy, eggs...), intolerances (lactose, fructose, histamine, fodmap), " +
	"medical conditions the dish is problematic for (celiac, diabetes=high sugar, hypertension=high sodium, " +
	"kidney_disease=high potassium/phosphorus, gout=high purines, favism=fava beans), diets the dish violates " +
	"(vegetarian=contains meat/fish, vegan=contains any animal product, pescatarian=contains meat but not fish, " +
	"halal=contains pork/alcohol, kosher=not kosher), and situations where the dish should be avoided " +
	"(pregnant=raw fish/unpasteurized/high mercury, breastfeeding=alcohol/high caffeine)."

// buildAnalysisPrompt renders the system instruction for a menu analysis call.
func buildAnalysisPrompt(tax *taxonomy.Taxonomy, userLanguage string) string {
	ids := strings.Join(tax.AllIDs(), ", ")
	icons := strings.Join(taxonomy.CategoryIcons, ", ")

	var b strings.Builder
	b.WriteString("You are a menu analysis assistant. Analyze the restaurant menu and return ONLY valid JSON with this exact structure:\n")
	b.WriteString("{\n")
	b.WriteString(`  "restaurant": "Name of the restaurant if visible, otherwise 'Unknown'",` + "\n")
	b.WriteString(`  "categoryIcon": "best matching icon for this restaurant type",` + "\n")
	b.WriteString(`  "menuLanguage": "detected language of the menu",` + "\n")
	b.WriteString(`  "dishes": [` + "\n")
	b.WriteString("    {\n")
	fmt.Fprintf(&b, "      \"name\": \"Dish name translated to %s\",\n", userLanguage)
	b.WriteString(`      "description": "Original dish name as written on the menu",` + "\n")
	b.WriteString(`      "price": "Price if visible",` + "\n")
	fmt.Fprintf(&b, "      \"category\": \"Menu section translated to %s with original in parentheses\",\n", userLanguage)
	b.WriteString(`      "ingredients": ["ingredient1", "ingredient2"],` + "\n")
	b.WriteString(`      "allergenIds": ["id1", "id2"]` + "\n")
	b.WriteString("    }\n  ]\n}\n\n")

	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- LANGUAGE: All dish names, categories, and ingredients MUST be translated to %s. Keep the original name in the description field.\n", userLanguage)
	fmt.Fprintf(&b, "- For ingredients: list the most likely ingredients even if not explicitly stated on the menu. Use your culinary knowledge. Translate them to %s.\n", userLanguage)
	fmt.Fprintf(&b, "- For allergenIds: tag each dish with ALL applicable IDs from this list: %s\n", ids)
	fmt.Fprintf(&b, "  %s\n", tagSemantics)
	fmt.Fprintf(&b, "- For categoryIcon: pick the SINGLE best matching icon from this list based on the restaurant's cuisine type: %s. If none fits well, use \"%s\".\n", icons, taxonomy.DefaultCategoryIcon)
	b.WriteString("- For menuLanguage: detect the original language of the menu text and return its name in English (e.g. \"Italian\", \"Japanese\", \"Spanish\").\n")
	fmt.Fprintf(&b, "- For category: translate the menu section heading to %s and include the original in parentheses (e.g. \"Land Appetizers (Antipasti di Terra)\").\n", userLanguage)
	b.WriteString("- For description: always put the original dish name as written on the menu (in its original language).\n")
	b.WriteString("- Include ALL dishes visible in the menu.\n")
	b.WriteString("- Return ONLY the JSON, no markdown formatting, no code fences, no extra text.")
	return b.String()
}

// buildRetranslationPrompt renders the system instruction for a retranslation call.
func buildRetranslationPrompt(targetLanguage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a translation assistant. Translate menu dishes to %s.\n", targetLanguage)
	b.WriteString("For each dish:\n")
	fmt.Fprintf(&b, "- \"name\": translate the dish name to %s\n", targetLanguage)
	b.WriteString("- \"description\": keep EXACTLY as is (original name from menu)\n")
	b.WriteString("- \"price\": keep EXACTLY as is\n")
	fmt.Fprintf(&b, "- \"category\": translate to %s with original in parentheses\n", targetLanguage)
	fmt.Fprintf(&b, "- \"ingredients\": translate all to %s\n", targetLanguage)
	b.WriteString("- \"allergenIds\": keep EXACTLY as is\n")
	b.WriteString("Return ONLY a valid JSON array. No markdown, no code fences, no extra text.")
	return b.String()
}
