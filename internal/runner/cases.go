package runner

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wczubal1/GreenAgentWitty/internal/config"
	"github.com/wczubal1/GreenAgentWitty/internal/eval"
	"github.com/wczubal1/GreenAgentWitty/internal/universe"
)

// RandomYear is the year random target dates are drawn from when a case
// specifies a target month instead of an explicit date.
const RandomYear = 2025

// casesFile is the YAML shape of a cases file: a flat list of raw cases.
type casesFile struct {
	Cases []eval.RawCase `yaml:"cases"`
}

// LoadCases reads a cases file.
func LoadCases(path string) ([]eval.RawCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases file: %w", err)
	}
	var file casesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cases YAML: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("cases file %s contains no cases", path)
	}
	return file.Cases, nil
}

// SynthesizeCases builds the case list for a run that has no cases file:
// a single case over either the configured symbols or a seeded sample
// from the symbols CSV.
func SynthesizeCases(cfg config.AssessmentConfig) ([]eval.RawCase, error) {
	symbols := cfg.Symbols
	if len(symbols) == 0 && cfg.SymbolsCSV != "" {
		loaded, err := universe.LoadSymbols(cfg.SymbolsCSV)
		if err != nil {
			return nil, err
		}
		symbols, err = universe.Sample(loaded, cfg.SampleSize, cfg.RandomSeed)
		if err != nil {
			return nil, err
		}
	}

	raw := eval.RawCase{
		Question:     cfg.Question,
		DatasetName:  cfg.DatasetName,
		DatasetGroup: cfg.DatasetGroup,
		Symbols:      symbols,
		MinAttempts:  cfg.MinAttempts,
	}
	return []eval.RawCase{raw}, nil
}

// PickRequestedDate resolves the target date for a run. An explicit
// settlement date wins; otherwise the target month selects a random day —
// the 15th or the month's last day — in RandomYear, reproducible when a
// seed is set.
func PickRequestedDate(settlementDate string, targetMonth int, seed *int64) (string, string, error) {
	if settlementDate != "" {
		normalized, err := NormalizeDateInput(settlementDate)
		if err != nil {
			return "", "", err
		}
		return normalized, "provided", nil
	}

	if targetMonth < 1 || targetMonth > 12 {
		return "", "", fmt.Errorf("target month must be between 1 and 12, got %d", targetMonth)
	}

	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	lastDay := time.Date(RandomYear, time.Month(targetMonth)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := 15
	if rng.Intn(2) == 1 {
		day = lastDay
	}
	date := time.Date(RandomYear, time.Month(targetMonth), day, 0, 0, 0, 0, time.UTC)
	return date.Format("2006-01-02"), fmt.Sprintf("random-day-%d", day), nil
}

var usDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// NormalizeDateInput accepts ISO dates as-is and converts MM/DD/YYYY
// operator input to ISO.
func NormalizeDateInput(value string) (string, error) {
	if usDateRe.MatchString(value) {
		t, err := time.Parse("1/2/2006", value)
		if err != nil {
			return "", fmt.Errorf("bad date %q: %w", value, err)
		}
		return t.Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return "", fmt.Errorf("bad date %q: expected YYYY-MM-DD", value)
	}
	return value, nil
}
