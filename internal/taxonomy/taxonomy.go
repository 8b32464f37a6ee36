// Package taxonomy holds the canonical skill tags, the per-platform tag
// vocabularies and the difficulty constants. All tables are loaded from YAML
// and are read-only after construction.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jonathan/algomentor/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultYAML []byte

// Band is an inclusive Codeforces rating range.
type Band struct {
	Min int
	Max int
}

type fileFormat struct {
	Canonical             []string           `yaml:"canonical"`
	DefaultWeakTags       []string           `yaml:"default_weak_tags"`
	LeetCodeToCanonical   map[string]string  `yaml:"leetcode_to_canonical"`
	CodeforcesToCanonical map[string]*string `yaml:"codeforces_to_canonical"`
	CanonicalToLeetCode   map[string]string  `yaml:"canonical_to_leetcode"`
	CanonicalToCodeforces map[string]string  `yaml:"canonical_to_codeforces"`
	RatingBuckets         struct {
		EasyMax   int `yaml:"easy_max"`
		MediumMax int `yaml:"medium_max"`
	} `yaml:"rating_buckets"`
	RatingBands      map[string][]int `yaml:"rating_bands"`
	LeetCodeTierRank map[string]int   `yaml:"leetcode_tier_rank"`
	FallbackRank     int              `yaml:"fallback_rank"`
}

// Taxonomy is an immutable set of lookup tables.
type Taxonomy struct {
	canonical      []string
	canonicalIndex map[string]int
	defaultWeak    []string
	lcToCanonical  map[string]string
	cfToCanonical  map[string]*string
	canonicalToLC  map[string]string
	canonicalToCF  map[string]string
	easyMax        int
	mediumMax      int
	bands          map[types.Difficulty]Band
	lcTierRank     map[types.Difficulty]int
	fallbackRank   int
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Load reads a taxonomy override file. An empty path returns Default().
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Taxonomy from YAML.
func Parse(data []byte) (*Taxonomy, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if len(f.Canonical) == 0 {
		return nil, fmt.Errorf("taxonomy has no canonical tags")
	}
	if f.RatingBuckets.EasyMax <= 0 || f.RatingBuckets.MediumMax <= f.RatingBuckets.EasyMax {
		return nil, fmt.Errorf("taxonomy rating buckets are invalid: easy_max=%d medium_max=%d",
			f.RatingBuckets.EasyMax, f.RatingBuckets.MediumMax)
	}

	t := &Taxonomy{
		canonical:      append([]string(nil), f.Canonical...),
		canonicalIndex: make(map[string]int, len(f.Canonical)),
		defaultWeak:    append([]string(nil), f.DefaultWeakTags...),
		lcToCanonical:  lowerKeys(f.LeetCodeToCanonical),
		cfToCanonical:  make(map[string]*string, len(f.CodeforcesToCanonical)),
		canonicalToLC:  f.CanonicalToLeetCode,
		canonicalToCF:  f.CanonicalToCodeforces,
		easyMax:        f.RatingBuckets.EasyMax,
		mediumMax:      f.RatingBuckets.MediumMax,
		bands:          make(map[types.Difficulty]Band, len(f.RatingBands)),
		lcTierRank:     make(map[types.Difficulty]int, len(f.LeetCodeTierRank)),
		fallbackRank:   f.FallbackRank,
	}
	for i, tag := range f.Canonical {
		if _, dup := t.canonicalIndex[tag]; dup {
			return nil, fmt.Errorf("duplicate canonical tag %q", tag)
		}
		t.canonicalIndex[tag] = i
	}
	for _, tag := range t.defaultWeak {
		if !t.IsCanonical(tag) {
			return nil, fmt.Errorf("default weak tag %q is not canonical", tag)
		}
	}
	for k, v := range f.CodeforcesToCanonical {
		t.cfToCanonical[strings.ToLower(k)] = v
	}
	for name, bounds := range f.RatingBands {
		if len(bounds) != 2 || bounds[0] > bounds[1] {
			return nil, fmt.Errorf("rating band %q must be [min, max]", name)
		}
		t.bands[types.ParseDifficulty(name)] = Band{Min: bounds[0], Max: bounds[1]}
	}
	for name, rank := range f.LeetCodeTierRank {
		t.lcTierRank[types.ParseDifficulty(name)] = rank
	}
	if t.canonicalToLC == nil {
		t.canonicalToLC = map[string]string{}
	}
	if t.canonicalToCF == nil {
		t.canonicalToCF = map[string]string{}
	}
	return t, nil
}

// Canonical returns the canonical tags in their configured order.
func (t *Taxonomy) Canonical() []string {
	return append([]string(nil), t.canonical...)
}

// CanonicalOrder maps each canonical tag to its position.
func (t *Taxonomy) CanonicalOrder() map[string]int {
	out := make(map[string]int, len(t.canonicalIndex))
	for k, v := range t.canonicalIndex {
		out[k] = v
	}
	return out
}

// IsCanonical reports whether tag belongs to the canonical set.
func (t *Taxonomy) IsCanonical(tag string) bool {
	_, ok := t.canonicalIndex[tag]
	return ok
}

// DefaultWeakTags is used when a user has no tag history.
func (t *Taxonomy) DefaultWeakTags() []string {
	return append([]string(nil), t.defaultWeak...)
}

// FromLeetCode maps a LeetCode tag slug onto a canonical tag. Unmapped slugs
// pass through and are only accepted if they already name a canonical tag.
func (t *Taxonomy) FromLeetCode(slug string) (string, bool) {
	slug = strings.ToLower(slug)
	tag, ok := t.lcToCanonical[slug]
	if !ok {
		tag = slug
	}
	return tag, t.IsCanonical(tag)
}

// FromCodeforces maps a Codeforces tag onto a canonical tag. Unknown and
// null-mapped tags report false.
func (t *Taxonomy) FromCodeforces(tag string) (string, bool) {
	target, ok := t.cfToCanonical[strings.ToLower(tag)]
	if !ok || target == nil {
		return "", false
	}
	return *target, t.IsCanonical(*target)
}

// ToLeetCode maps a canonical tag to the LeetCode search vocabulary.
func (t *Taxonomy) ToLeetCode(tag string) string {
	if v, ok := t.canonicalToLC[tag]; ok {
		return v
	}
	return tag
}

// ToCodeforces maps a canonical tag to the Codeforces search vocabulary.
func (t *Taxonomy) ToCodeforces(tag string) string {
	if v, ok := t.canonicalToCF[tag]; ok {
		return v
	}
	return tag
}

// DifficultyForRating buckets a Codeforces rating. A nil or zero rating is unknown.
func (t *Taxonomy) DifficultyForRating(rating *int) types.Difficulty {
	switch {
	case rating == nil || *rating == 0:
		return types.DifficultyUnknown
	case *rating <= t.easyMax:
		return types.DifficultyEasy
	case *rating <= t.mediumMax:
		return types.DifficultyMedium
	default:
		return types.DifficultyHard
	}
}

// RatingBand returns the rating range for a difficulty label.
func (t *Taxonomy) RatingBand(d types.Difficulty) (Band, bool) {
	b, ok := t.bands[d]
	return b, ok
}

// LeetCodeTierRank returns the ranking weight of a LeetCode difficulty.
func (t *Taxonomy) LeetCodeTierRank(d types.Difficulty) int {
	if r, ok := t.lcTierRank[d]; ok {
		return r
	}
	return t.lcTierRank[types.DifficultyUnknown]
}

// FallbackRank is the sort key for problems with no platform-specific key.
func (t *Taxonomy) FallbackRank() int {
	return t.fallbackRank
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
