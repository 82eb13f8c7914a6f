package ai

import (
	"fmt"
	"strings"

	"github.com/foodisave/backend/internal/domain/recipe"
)

const variantsSchema = "Svar endast i JSON-format, ingen extra text. \n" +
	"Använd exakt följande JSON-struktur:\n" +
	"{\n" +
	`  "recipes": [` + "\n" +
	"    {\n" +
	`      "title": "Titel på receptet",` + "\n" +
	`      "description": "En kort beskrivning av rätten.",` + "\n" +
	`      "category": "Ange kategori: Fågel, Kött, Fisk, Vegetarisk, Frukost, Bakning.",` + "\n" +
	`      "ingredients": [` + "\n" +
	`        {"name": "Ingrediensnamn", "amount": "Mängd", "unit": "Enhet"}` + "\n" +
	"      ],\n" +
	`      "instructions": [` + "\n" +
	`        "Steg 1: Beskrivning",` + "\n" +
	`        "Steg 2: Beskrivning",` + "\n" +
	`        "Steg 3: Beskrivning"` + "\n" +
	"      ],\n" +
	`      "cook_time": "Total tillagningstid (t.ex. 30 min)",` + "\n" +
	`      "servings": "Antal portioner (t.ex. 4 portioner)",` + "\n" +
	`      "energy": "Antal kcal per portion",` + "\n" +
	`      "protein": "Gram protein per portion",` + "\n" +
	`      "carbohydrates": "Gram kolhydrater per portion",` + "\n" +
	`      "fat": "Gram fett per portion"` + "\n" +
	"    }\n" +
	"  ]\n" +
	"}"

// imageRecipeSchema matches the user recipe fields so answers can be stored directly.
const imageRecipeSchema = "Svar endast i JSON-format, ingen extra text. \n" +
	"Använd exakt följande JSON-struktur:\n" +
	"{\n" +
	`  "recipes": [` + "\n" +
	"    {\n" +
	`      "name": "Titel på receptet",` + "\n" +
	`      "descriptions": "En kort beskrivning av rätten.",` + "\n" +
	`      "category": "Ange kategori: Fågel, Kött, Fisk, Vegetarisk, Frukost, Bakning.",` + "\n" +
	`      "ingredients": [` + "\n" +
	`        "Ingrediensnamn mängd enhet"` + "\n" +
	"      ],\n" +
	`      "instructions": [` + "\n" +
	`        "Beskrivning",` + "\n" +
	`        "Beskrivning",` + "\n" +
	`        "Beskrivning"` + "\n" +
	"      ],\n" +
	`      "cook_time": "Total tillagningstid (t.ex. 30 min)",` + "\n" +
	`      "servings": "Antal portioner (t.ex. 4 portioner)",` + "\n" +
	`      "calories": "Antal kcal per portion",` + "\n" +
	`      "protein": "Gram protein per portion",` + "\n" +
	`      "carbohydrates": "Gram kolhydrater per portion",` + "\n" +
	`      "fat": "Gram fett per portion"` + "\n" +
	"    }\n" +
	"  ]\n" +
	"}"

const imageRecipeRules = "Utöver de ingredienser du identifierar, anta att basvaror som salt, peppar, smör och olja redan finns hemma och inkludera dem i receptet om de är nödvändiga. " +
	"Skapa en detaljerad lista på ett recept som kan lagas med de ingredienser du har identifierat samt de nödvändiga basvarorna. " +
	"Ge även näringsinformation per portion med ENDAST siffran så det är en float: energi (kcal), protein, kolhydrater och fett. \n\n"

const nutritionLine = "Ge även näringsinformation per portion: energi (kcal), protein, kolhydrater och fett. \n\n"

// describeRecipe renders the catalog entry the way it is embedded in prompts.
func describeRecipe(r *recipe.Recipe) string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(" (ingredienser: ")
	b.WriteString(r.Ingredients)
	b.WriteString(")")
	if r.CookTime != nil {
		fmt.Fprintf(&b, ", tillagningstid: %s", *r.CookTime)
	}
	return b.String()
}

func shoppingListPrompt(r *recipe.Recipe, portions int) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Jag har följande recept: %s.\n", r.Name)
	prompt.WriteString("Originalportioner: 4\n")
	fmt.Fprintf(&prompt, "Önskat antal portioner: %d\n", portions)
	prompt.WriteString("Ingredienser:\n")
	for _, ingredient := range strings.Split(r.Ingredients, " | ") {
		prompt.WriteString(strings.TrimSpace(ingredient))
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
	prompt.WriteString("Uppgift: Skapa en detaljerad inköpslista med justerade ingredienskvantiteter för det önskade antalet portioner.\n")
	prompt.WriteString("Regler för svaret:\n")
	prompt.WriteString("1. Svara ENDAST i JSON-format\n")
	prompt.WriteString("2. Ingen extra text eller förklaringar\n")
	prompt.WriteString("3. Använd följande JSON-struktur exakt:\n")
	prompt.WriteString("{\n" +
		`  "recipes": [` + "\n" +
		"    {\n" +
		`      "name": "Ingrediensnamn",` + "\n" +
		`      "amount": "Justerad mängd",` + "\n" +
		`      "unit": "Enhet"` + "\n" +
		"    }\n" +
		"  ]\n" +
		"}")
	return prompt.String()
}

func similarPrompt(r *recipe.Recipe) string {
	return fmt.Sprintf("Jag har följande recept: %s. \n", describeRecipe(r)) +
		"Skapa en detaljerad lista på **tre recept** som liknar detta recept.\n" +
		nutritionLine + variantsSchema
}

func changeIngredientsPrompt(r *recipe.Recipe, ingredients []string) string {
	return fmt.Sprintf("Jag har följande recept: %s. \n", describeRecipe(r)) +
		fmt.Sprintf("jag behöver byta ut dessa ingredienser %s med andra ingredienser som passar.\n", strings.Join(ingredients, ", ")) +
		"Skapa en detaljerad lista på **tre recept** med dem utbytta ingredienserna.\n" +
		nutritionLine + variantsSchema
}

func addIngredientsPrompt(r *recipe.Recipe, ingredients []string) string {
	return fmt.Sprintf("Jag har följande recept: %s. \n", describeRecipe(r)) +
		fmt.Sprintf("jag behöver lägga till dessa ingredienser %s.\n", strings.Join(ingredients, ", ")) +
		"Skapa en detaljerad lista på **tre recept** med dem tillagda ingredienserna.\n" +
		nutritionLine + variantsSchema
}

const ingredientsImagePrompt = "Du är en mästerkock och ska nu följa instruktionerna nedan. " +
	"Analysera bilden med ingredienser och identifiera de ingredienser som syns i bilden. " +
	imageRecipeRules + imageRecipeSchema

const plateImagePrompt = "Du är en mästerkock och ska nu följa instruktionerna nedan. " +
	"Analysera och identifiera maträtten på bilden och föreslå ett recept med instruktionerna nedan som passar till den maten du ser på tallriken. " +
	imageRecipeRules + imageRecipeSchema

const boughtItemsPrompt = "Du är en AI-specialist på att identifiera livsmedelsprodukter. " +
	"Analysera bilden och identifiera alla matvaror som finns på bilden. " +
	"För varje identifierad vara, extrahera dess namn och storlek (vikt, volym eller antal beroende på kontext). " +
	"Om storleken inte är tydlig, gör en kvalificerad gissning baserat på standardstorlekar. " +
	"Svar endast i JSON-format, ingen extra text.\n\n" +
	"Använd exakt följande JSON-struktur:\n" +
	"{\n" +
	`  "items": [` + "\n" +
	"    {\n" +
	`      "name": "Namn på matvaran",` + "\n" +
	`      "size": "Storlek eller mängd (t.ex. 500g, 1L, 6-pack)"` + "\n" +
	"    }\n" +
	"  ]\n" +
	"}"

func chatPrompt(contextText, message string) string {
	return "Du är en hjälpsam och kreativ kockassistent. " +
		"Använd följande kontext från användarens webbsida som bakgrundsinformation:\n" +
		contextText + "\n\n" +
		"Svara endast på användarens fråga om den är relaterad till kontexten fått innan. " +
		"Användarens fråga: " + message + "\n\n" +
		"Svara tydligt och koncist på användarens fråga, ENDAST i ren text."
}
