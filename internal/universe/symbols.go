package universe

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// LoadSymbols reads ticker symbols from a CSV file. The header row is
// scanned for a "symbol" or "ticker" column; when neither exists the first
// column is used and the header row counts as data. Symbols come back
// uppercased and deduplicated in file order.
func LoadSymbols(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbols CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read symbols CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	column := -1
	for i, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "symbol", "ticker":
			column = i
		}
		if column >= 0 {
			break
		}
	}

	data := rows
	if column >= 0 {
		data = rows[1:]
	} else {
		column = 0
	}

	seen := make(map[string]bool, len(data))
	symbols := make([]string, 0, len(data))
	for _, row := range data {
		if column >= len(row) {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(row[column]))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// Sample draws sampleSize symbols without replacement. A non-nil seed
// makes the draw reproducible. Asking for more symbols than exist is a
// configuration error, not a silent truncation.
func Sample(symbols []string, sampleSize int, seed *int64) ([]string, error) {
	if sampleSize <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", sampleSize)
	}
	if len(symbols) < sampleSize {
		return nil, fmt.Errorf("not enough symbols (%d) to sample %d", len(symbols), sampleSize)
	}

	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(cryptoSeed()))
	}

	picked := make([]string, len(symbols))
	copy(picked, symbols)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:sampleSize], nil
}
