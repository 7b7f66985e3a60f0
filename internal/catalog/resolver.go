package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var canonicalID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsCanonicalID reports whether ref has the 8-4-4-4-12 hex grammar of a product id.
func IsCanonicalID(ref string) bool {
	return canonicalID.MatchString(ref)
}

// Reader is the product lookup the resolver needs.
type Reader interface {
	Get(ctx context.Context, productID string) (*Product, error)
	ActiveByRestaurant(ctx context.Context, restaurantID string) ([]Product, error)
}

// Resolution is the outcome of resolving a reference.
type Resolution struct {
	ProductID string
	Name      string
	Strategy  string // "canonical_id" or one of Strategies
}

// Resolver maps loosely specified product references to canonical ids of one restaurant.
type Resolver struct {
	products Reader
	logger   *zap.Logger
}

// NewResolver returns a Resolver over products.
func NewResolver(products Reader, logger *zap.Logger) *Resolver {
	return &Resolver{products: products, logger: logger.Named("resolver")}
}

// Resolve returns ErrNotFound for a canonical id outside the restaurant and ErrUnresolved
// when no strategy matches a free-text reference.
func (r *Resolver) Resolve(ctx context.Context, restaurantID, ref string) (Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Resolution{}, fmt.Errorf("%w: empty reference", ErrUnresolved)
	}

	if IsCanonicalID(ref) {
		p, err := r.products.Get(ctx, ref)
		if err != nil {
			return Resolution{}, err
		}
		if p == nil || p.RestaurantID != restaurantID {
			return Resolution{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return Resolution{ProductID: p.ProductID, Name: p.Name, Strategy: "canonical_id"}, nil
	}

	products, err := r.products.ActiveByRestaurant(ctx, restaurantID)
	if err != nil {
		return Resolution{}, err
	}

	for _, s := range Strategies {
		id, ok := s.Match(ref, products)
		if !ok {
			continue
		}
		res := Resolution{ProductID: id, Strategy: s.Name}
		for _, p := range products {
			if p.ProductID == id {
				res.Name = p.Name
				break
			}
		}
		r.logger.Debug("product reference resolved",
			zap.String("restaurant_id", restaurantID),
			zap.String("reference", ref),
			zap.String("product_id", id),
			zap.String("strategy", s.Name))
		return res, nil
	}

	r.logger.Info("product reference unresolved",
		zap.String("restaurant_id", restaurantID),
		zap.String("reference", ref))
	return Resolution{}, fmt.Errorf("%w: %q", ErrUnresolved, ref)
}

// Filter narrows products by category (case-insensitive equality) and search text
// (case-insensitive substring of name or description). Empty arguments do not filter.
func Filter(products []Product, category, search string) []Product {
	category = strings.TrimSpace(category)
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}
