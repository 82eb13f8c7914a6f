package recipe

import "strings"

// Category narrows a random draw by what the ingredient text mentions.
type Category string

const (
	CategoryAny        Category = ""
	CategoryPoultry    Category = "poultry"
	CategoryFish       Category = "fish"
	CategoryMeat       Category = "meat"
	CategoryVegetarian Category = "vegetarian"
)

var (
	poultryKeywords = []string{"kyckling", "anka", "kalkon"}
	fishKeywords    = []string{"fisk", "skaldjur", "tonfisk", "lax", "bläckfisk", "räkor", "krabba", "hummer"}
	meatKeywords    = []string{"nötkött", "fläsk", "bacon", "kött", "lamm"}
)

// ParseCategory maps an English or Swedish tag to a Category. Unknown or empty tags
// yield CategoryAny.
func ParseCategory(tag string) Category {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "poultry", "fågel":
		return CategoryPoultry
	case "fish", "fisk":
		return CategoryFish
	case "meat", "kött":
		return CategoryMeat
	case "vegetarian", "vegetarisk":
		return CategoryVegetarian
	default:
		return CategoryAny
	}
}

// Keywords returns the substrings that place a recipe in c. For CategoryVegetarian it
// returns the excluded set, and Excludes reports true.
func (c Category) Keywords() []string {
	switch c {
	case CategoryPoultry:
		return poultryKeywords
	case CategoryFish:
		return fishKeywords
	case CategoryMeat:
		return meatKeywords
	case CategoryVegetarian:
		all := make([]string, 0, len(poultryKeywords)+len(fishKeywords)+len(meatKeywords))
		all = append(all, poultryKeywords...)
		all = append(all, meatKeywords...)
		return append(all, fishKeywords...)
	default:
		return nil
	}
}

// Excludes reports whether the keywords of c must all be absent instead of one present.
func (c Category) Excludes() bool {
	return c == CategoryVegetarian
}

// Matches applies the category rule to an ingredient text, case-insensitively.
func (c Category) Matches(ingredients string) bool {
	keywords := c.Keywords()
	if keywords == nil {
		return true
	}
	text := strings.ToLower(ingredients)
	hit := false
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hit = true
			break
		}
	}
	if c.Excludes() {
		return !hit
	}
	return hit
}
