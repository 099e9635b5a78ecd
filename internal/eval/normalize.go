package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wczubal1/GreenAgentWitty/internal/domain"
)

// ErrNormalization marks raw case input that cannot be resolved into a
// CaseConfig. It collapses into a case failure, never aborts a run.
var ErrNormalization = errors.New("case normalization failed")

// RawCase is the untrusted case shape accepted from cases files and CLI
// synthesis. Every field is optional; Normalize decides whether enough of
// them line up to grade the case.
type RawCase struct {
	ID             string   `yaml:"id" json:"id"`
	Question       string   `yaml:"question" json:"question"`
	DatasetName    string   `yaml:"dataset_name_eval" json:"dataset_name_eval"`
	DatasetGroup   string   `yaml:"dataset_group_eval" json:"dataset_group_eval"`
	Symbols        []string `yaml:"symbols" json:"symbols"`
	Symbol         string   `yaml:"symbol" json:"symbol"`
	Date           string   `yaml:"date" json:"date"`
	MinAttempts    int      `yaml:"min_attempts" json:"min_attempts"`
	MaturityBucket string   `yaml:"maturity_bucket" json:"maturity_bucket"`
	Benchmark      string   `yaml:"benchmark" json:"benchmark"`
	RequiresDelta  bool     `yaml:"compare_previous_year" json:"compare_previous_year"`
}

// Normalize resolves a raw case into an immutable CaseConfig.
//
// Dataset family resolution order: explicit dataset_name_eval, explicit
// dataset_group_eval, question keyword inference, then a short-interest
// default when symbols are present. Symbols are uppercased and
// deduplicated preserving first-seen order.
func Normalize(raw RawCase) (CaseConfig, error) {
	merged := make([]string, 0, len(raw.Symbols)+1)
	merged = append(merged, raw.Symbols...)
	merged = append(merged, raw.Symbol)
	symbols := NormalizeSymbols(merged)

	family, ok := resolveFamily(raw, len(symbols) > 0)
	if !ok {
		return CaseConfig{}, fmt.Errorf("%w: dataset family undeterminable from question %q", ErrNormalization, raw.Question)
	}

	if strings.TrimSpace(raw.Date) == "" {
		return CaseConfig{}, fmt.Errorf("%w: missing requested date", ErrNormalization)
	}
	requested, err := domain.ParseDate(raw.Date)
	if err != nil {
		return CaseConfig{}, fmt.Errorf("%w: bad date %q: %v", ErrNormalization, raw.Date, err)
	}

	if family != domain.FamilyTreasuryAggregate && len(symbols) == 0 {
		return CaseConfig{}, fmt.Errorf("%w: %s case has no symbols", ErrNormalization, family)
	}

	minAttempts := raw.MinAttempts
	if minAttempts <= 0 {
		minAttempts = DefaultMinAttempts
	}

	cfg := CaseConfig{
		ID:            raw.ID,
		Family:        family,
		Symbols:       symbols,
		RequestedDate: requested,
		MinAttempts:   minAttempts,
		RequiresDelta: raw.RequiresDelta,
		Question:      strings.TrimSpace(raw.Question),
	}

	if family == domain.FamilyTreasuryAggregate {
		if strings.TrimSpace(raw.MaturityBucket) != "" {
			bucket, err := domain.ParseMaturityBucket(raw.MaturityBucket)
			if err != nil {
				return CaseConfig{}, fmt.Errorf("%w: %v", ErrNormalization, err)
			}
			cfg.Bucket = &bucket
		}
		benchmark, err := NormalizeBenchmark(raw.Benchmark)
		if err != nil {
			return CaseConfig{}, fmt.Errorf("%w: %v", ErrNormalization, err)
		}
		cfg.Benchmark = benchmark
	}

	return cfg, nil
}

func resolveFamily(raw RawCase, symbolsPresent bool) (domain.DatasetFamily, bool) {
	if f, ok := domain.ParseDatasetName(raw.DatasetName); ok {
		return f, true
	}
	if f, ok := domain.ParseDatasetName(raw.DatasetGroup); ok {
		return f, true
	}
	return domain.InferFamily(raw.Question, symbolsPresent)
}

// NormalizeSymbols uppercases, trims and deduplicates symbols while
// preserving first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// NormalizeBenchmark canonicalizes a treasury benchmark designation.
// Empty input is allowed and means "any benchmark".
func NormalizeBenchmark(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, " ", "-")
	switch v {
	case "":
		return "", nil
	case "on-the-run", "ontherun", "otr":
		return "On-the-run", nil
	case "off-the-run", "offtherun", "ofr":
		return "Off-the-run", nil
	default:
		return "", fmt.Errorf("unknown benchmark %q", value)
	}
}
