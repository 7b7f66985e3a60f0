package catalog

import "strings"

// Strategy looks a free-text reference up in a catalog and returns the first matching id.
type Strategy func(ref string, products []Product) (string, bool)

// NamedStrategy pairs a Strategy with a name for logging.
type NamedStrategy struct {
	Name  string
	Match Strategy
}

// Strategies is the resolution cascade, tried in order. The first strategy with any match
// wins and the first product in catalog order is taken; there is no ranking.
var Strategies = []NamedStrategy{
	{Name: "exact_name", Match: ExactName},
	{Name: "normalized_name", Match: NormalizedName},
	{Name: "substring", Match: Substring},
	{Name: "normalized_substring", Match: NormalizedSubstring},
}

// normalize turns slugs such as "cheddar_melts" into "cheddar melts".
func normalize(ref string) string {
	return strings.TrimSpace(strings.ReplaceAll(ref, "_", " "))
}

// ExactName matches the full name, ignoring case.
func ExactName(ref string, products []Product) (string, bool) {
	return first(products, func(p Product) bool {
		return strings.EqualFold(strings.TrimSpace(p.Name), ref)
	})
}

// NormalizedName matches the full name after replacing underscores with spaces.
func NormalizedName(ref string, products []Product) (string, bool) {
	return ExactName(normalize(ref), products)
}

// Substring matches names containing ref, ignoring case.
func Substring(ref string, products []Product) (string, bool) {
	needle := strings.ToLower(ref)
	if needle == "" {
		return "", false
	}
	return first(products, func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
}

// NormalizedSubstring is Substring on the underscore-normalized reference.
func NormalizedSubstring(ref string, products []Product) (string, bool) {
	return Substring(normalize(ref), products)
}

func first(products []Product, match func(Product) bool) (string, bool) {
	for _, p := range products {
		if match(p) {
			return p.ProductID, true
		}
	}
	return "", false
}
