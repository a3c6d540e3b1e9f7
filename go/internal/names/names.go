// Package names normalizes celebrity names and scores their similarity
// so the draft engine can reuse an existing person record instead of
// creating a near-duplicate.
package names

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Config tunes matching precision/recall. Operators override it via the
// matcher section of the config file.
type Config struct {
	// SimilarityThreshold is the minimum normalized score considered a
	// match when the names are not identical after normalization.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// MinLengthForFuzzy disables similarity scoring for names shorter
	// than this; short names are too ambiguous to fuzz.
	MinLengthForFuzzy int `yaml:"min_length_for_fuzzy"`
	// SuffixMap standardizes generational suffixes on the last token.
	SuffixMap map[string]string `yaml:"suffix_map"`
}

// DefaultConfig mirrors the production tuning.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		MinLengthForFuzzy:   4,
		SuffixMap: map[string]string{
			"jr.":    "jr",
			"sr.":    "sr",
			"junior": "jr",
			"senior": "sr",
			"iii":    "3",
			"ii":     "2",
		},
	}
}

// Result describes a comparison between two names.
type Result struct {
	Match       bool
	Similarity  float64
	NormalizedA string
	NormalizedB string
	ExactMatch  bool
}

// Matcher is a pure function module; it holds only configuration and is
// safe for concurrent use.
type Matcher struct {
	cfg Config
}

func NewMatcher(cfg Config) *Matcher {
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if cfg.MinLengthForFuzzy == 0 {
		cfg.MinLengthForFuzzy = DefaultConfig().MinLengthForFuzzy
	}
	if cfg.SuffixMap == nil {
		cfg.SuffixMap = DefaultConfig().SuffixMap
	}
	return &Matcher{cfg: cfg}
}

// Normalize lowercases the name, folds commas and periods into spaces,
// collapses repeated whitespace, and standardizes the trailing suffix
// token.
func (m *Matcher) Normalize(name string) string {
	if name == "" {
		return ""
	}

	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, ",", " ")
	normalized = strings.ReplaceAll(normalized, ".", " ")

	words := strings.Fields(normalized)
	if len(words) == 0 {
		return ""
	}
	if mapped, ok := m.cfg.SuffixMap[words[len(words)-1]]; ok {
		words[len(words)-1] = mapped
	}
	return strings.Join(words, " ")
}

// Match compares two names: exact after normalization wins outright,
// short names require exactness, everything else is scored against the
// configured threshold.
func (m *Matcher) Match(a, b string) Result {
	normA := m.Normalize(a)
	normB := m.Normalize(b)

	if normA == normB {
		return Result{
			Match:       true,
			Similarity:  1.0,
			NormalizedA: normA,
			NormalizedB: normB,
			ExactMatch:  true,
		}
	}

	if len(normA) < m.cfg.MinLengthForFuzzy || len(normB) < m.cfg.MinLengthForFuzzy {
		return Result{NormalizedA: normA, NormalizedB: normB}
	}

	similarity := m.Similarity(normA, normB)
	return Result{
		Match:       similarity >= m.cfg.SimilarityThreshold,
		Similarity:  similarity,
		NormalizedA: normA,
		NormalizedB: normB,
	}
}

// Similarity scores two already-normalized names in [0, 1] from their
// Levenshtein distance relative to the longer name.
func (m *Matcher) Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	longest := max(len([]rune(a)), len([]rune(b)))
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}
