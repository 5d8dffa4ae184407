// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the pool of candidate neighborhoods. Candidates come
// from JSON or YAML files or from discovery around city centres.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/neighborfit/internal/metrics"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// ErrUnsupportedFormat is returned for catalog files that are neither JSON
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// idSpace namespaces generated candidate IDs.
var idSpace = uuid.MustParse("5b2f8c1e-8d4a-4c37-9a51-0f3e7d6b2a90")

// LoadFile reads an array of candidates from a .json, .yaml or .yml file.
// Missing IDs are filled in.
func LoadFile(path string) ([]types.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var out []types.Candidate
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	AssignIDs(out)
	return out, nil
}

// WriteFile saves candidates in the format implied by the file extension.
func WriteFile(path string, candidates []types.Candidate) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(candidates, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(candidates)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", path, err)
	}
	return nil
}

func dedupKey(c types.Candidate) string {
	return strings.ToLower(strings.TrimSpace(c.Name) + "|" + strings.TrimSpace(c.City))
}

// CandidateID is the stable ID for a name and city pair.
func CandidateID(name, city string) string {
	return uuid.NewSHA1(idSpace, []byte(dedupKey(types.Candidate{Name: name, City: city}))).String()
}

// AssignIDs fills in the ID of every candidate that lacks one.
func AssignIDs(candidates []types.Candidate) {
	for i := range candidates {
		if candidates[i].ID == "" {
			candidates[i].ID = CandidateID(candidates[i].Name, candidates[i].City)
		}
	}
}

// Dedupe drops candidates whose lower-cased name and city were already seen,
// keeping the first. Unnamed candidates are dropped too. It returns the
// survivors and the number removed.
func Dedupe(candidates []types.Candidate) ([]types.Candidate, int) {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		key := dedupKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, len(candidates) - len(out)
}

// FilterCity keeps candidates in city, compared case-insensitively. An
// empty city keeps everything.
func FilterCity(candidates []types.Candidate, city string) []types.Candidate {
	city = strings.TrimSpace(city)
	if city == "" {
		return candidates
	}
	var out []types.Candidate
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.City), city) {
			out = append(out, c)
		}
	}
	return out
}

// Catalog is the in-memory candidate pool shared by request handlers.
type Catalog struct {
	mu         sync.RWMutex
	candidates []types.Candidate
}

// New returns a catalog holding candidates.
func New(candidates []types.Candidate) *Catalog {
	c := &Catalog{}
	c.Replace(candidates)
	return c
}

// Replace swaps the pool after deduplicating and assigning IDs.
func (c *Catalog) Replace(candidates []types.Candidate) {
	next, _ := Dedupe(candidates)
	AssignIDs(next)

	c.mu.Lock()
	c.candidates = next
	c.mu.Unlock()
	metrics.CatalogSize.Set(float64(len(next)))
}

// All returns a copy of the pool.
func (c *Catalog) All() []types.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Candidate(nil), c.candidates...)
}

// ByCity returns a copy of the candidates in city. An empty city returns
// the whole pool.
func (c *Catalog) ByCity(city string) []types.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Candidate(nil), FilterCity(c.candidates, city)...)
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.candidates)
}
