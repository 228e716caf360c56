package universe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aristath/frontier/internal/domain"
)

// MinAssets is the smallest universe an optimization run accepts.
const MinAssets = 3

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-^=]{0,19}$`)

// ParseSymbols splits a comma-separated symbol list, trimming and upper-casing
// every entry. A blank entry such as the middle of "AAPL,,MSFT" is an error.
func ParseSymbols(csv string) ([]string, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, fmt.Errorf("%w: no symbols given", domain.ErrConfiguration)
	}

	parts := strings.Split(csv, ",")
	symbols := make([]string, 0, len(parts))
	for i, part := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol at position %d", domain.ErrConfiguration, i+1)
		}
		symbols = append(symbols, symbol)
	}

	if err := Validate(symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// Validate checks that the universe holds at least MinAssets unique, well-formed symbols.
func Validate(symbols []string) error {
	if len(symbols) < MinAssets {
		return fmt.Errorf("%w: at least %d symbols required, got %d", domain.ErrConfiguration, MinAssets, len(symbols))
	}

	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		if !symbolPattern.MatchString(symbol) {
			return fmt.Errorf("%w: invalid symbol %q", domain.ErrConfiguration, symbol)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("%w: duplicate symbol %s", domain.ErrConfiguration, symbol)
		}
		seen[symbol] = struct{}{}
	}
	return nil
}
