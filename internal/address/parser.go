// Package address turns a free-text, comma-delimited delivery address into a structured
// record. It is a heuristic, not a postal validator: Parse never fails and falls back to
// defaults when parts are missing.
package address

import (
	"regexp"
	"strings"
)

const (
	// NoNumber is used when no street number could be found.
	NoNumber = "S/N"
	// DefaultNeighborhood fills the neighborhood when the input has fewer than three parts.
	DefaultNeighborhood = "Centro"
	// NotInformed is the city sentinel for an empty address.
	NotInformed = "Não informado"
)

// Parsed is the structured breakdown of a free-text address.
type Parsed struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Complement   string `json:"complement,omitempty"`
}

var (
	spaces = regexp.MustCompile(`\s+`)
	// standalone number, optionally followed by one letter ("123", "123A")
	numberToken  = regexp.MustCompile(`(?:^|\s)(\d+[A-Za-z]?)(?:\s|$)`)
	purelyNumber = regexp.MustCompile(`^\d+$`)
)

// Parts splits raw on commas, trims each part and drops the empty ones.
func Parts(raw string) []string {
	raw = spaces.ReplaceAllString(strings.TrimSpace(raw), " ")
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Parse maps raw onto street, number, neighborhood, city and complement by part count.
func Parse(raw string) Parsed {
	parts := Parts(raw)
	out := Parsed{Number: NoNumber, Neighborhood: DefaultNeighborhood}

	if len(parts) == 0 {
		out.City = NotInformed
		return out
	}

	if m := numberToken.FindStringSubmatchIndex(parts[0]); m != nil {
		out.Number = parts[0][m[2]:m[3]]
		parts[0] = strings.TrimSpace(spaces.ReplaceAllString(parts[0][:m[2]]+" "+parts[0][m[3]:], " "))
	} else if len(parts) > 1 && purelyNumber.MatchString(parts[1]) {
		out.Number = parts[1]
		parts = append(parts[:1], parts[2:]...)
	}

	out.Street = parts[0]
	n := len(parts)
	switch {
	case n >= 5:
		out.Complement = strings.Join(parts[1:n-2], ", ")
		out.Neighborhood = parts[n-2]
		out.City = parts[n-1]
	case n == 4:
		out.Complement = parts[1]
		out.Neighborhood = parts[2]
		out.City = parts[3]
	case n == 3:
		out.Neighborhood = parts[1]
		out.City = parts[2]
	case n == 2:
		out.City = parts[1]
	default:
		out.City = parts[0]
	}
	return out
}
