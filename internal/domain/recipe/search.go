package recipe

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// RandomSampleSize is how many recipes a random draw returns.
	RandomSampleSize = 11

	// maxOffset bounds Page*PageSize. Any page past it is empty anyway.
	maxOffset = math.MaxInt32
)

// SearchQuery filters the catalog. Nil bounds and empty strings disable their predicate.
type SearchQuery struct {
	Query            string
	MaxCarbohydrates *int
	MaxCalories      *int
	MinProtein       *int
	Ingredients      string
	Page             int
	PageSize         int
}

// Normalize fills in the default page size and rejects negative paging. Pages far past
// the catalog are clamped so the offset cannot overflow; they still come back empty.
func (q *SearchQuery) Normalize() error {
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 0 {
		return ErrInvalidPage
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	if last := maxOffset / q.PageSize; q.Page > last {
		q.Page = last
	}
	return nil
}

// Offset is the number of rows skipped before the page starts.
func (q SearchQuery) Offset() int {
	return q.Page * q.PageSize
}

// IngredientTokens splits the comma separated ingredient filter. Every token must match.
func (q SearchQuery) IngredientTokens() []string {
	return SplitList(q.Ingredients)
}

// SplitList splits a comma separated list, trimming blanks and dropping empty entries.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
