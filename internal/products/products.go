// Package products maps material names to storefront product URLs. The
// mapping is consulted only for display enrichment, never for retrieval.
package products

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Source is where a persisted product mapping lives, typically the database
// store.
type Source interface {
	Products(ctx context.Context) (map[string]string, error)
}

// Matcher attaches product links to answer materials.
type Matcher struct {
	mapping map[string]string
}

// NewMatcher creates a matcher over a material-name-to-URL mapping.
func NewMatcher(mapping map[string]string) *Matcher {
	if mapping == nil {
		mapping = map[string]string{}
	}
	return &Matcher{mapping: mapping}
}

// Load reads the product mapping from the persisted source, falling back to
// the JSON seed file when nothing has been seeded yet.
func Load(ctx context.Context, source Source, seedPath string) (map[string]string, error) {
	mapping, err := source.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product map: %w", err)
	}
	if len(mapping) > 0 {
		return mapping, nil
	}
	return LoadSeedFile(seedPath)
}

// LoadSeedFile reads a product mapping from a JSON file of the form
// {"material name": "https://store/..."}. A missing file yields an empty
// mapping rather than an error.
func LoadSeedFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read product map %s: %w", path, err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse product map %s: %w", path, err)
	}
	return mapping, nil
}

// Match returns the product URL for a material name, or "" when no product
// matches. Matching is case-insensitive and accepts either the mapping key
// containing the material name or the other way round.
func (m *Matcher) Match(materialName string) string {
	name := strings.ToLower(strings.TrimSpace(materialName))
	if name == "" {
		return ""
	}

	for key, url := range m.mapping {
		lowered := strings.ToLower(key)
		if strings.Contains(name, lowered) || strings.Contains(lowered, name) {
			return url
		}
	}
	return ""
}

// Enrich fills the ProductMatch field of every material that has a matching
// product. Materials are modified in place and returned for convenience.
func (m *Matcher) Enrich(materials []models.Material) []models.Material {
	for i := range materials {
		if materials[i].ProductMatch == "" {
			materials[i].ProductMatch = m.Match(materials[i].Name)
		}
	}
	return materials
}

// Len returns the number of product mappings.
func (m *Matcher) Len() int { return len(m.mapping) }
