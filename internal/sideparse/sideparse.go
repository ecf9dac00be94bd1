package sideparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

var (
	// First numeric token anywhere in the selection (totals line)
	firstNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// Trailing signed numeric token (spread line)
	trailingSignedPattern = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?$`)
)

// ResolveMarketKey maps a raw pick market key, including its sub-variants, to
// a market type. Sub-variant handling lives here and nowhere else.
func ResolveMarketKey(raw string) (models.MarketType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "total", "totals", "total_over", "total_under":
		return models.MarketTotal, nil
	case "spread", "spreads", "spread_home", "spread_away":
		return models.MarketSpread, nil
	case "moneyline", "h2h":
		return models.MarketMoneyline, nil
	default:
		return "", fmt.Errorf("unknown market key: %q", raw)
	}
}

// ParseSide normalizes a raw selection string into a canonical side.
// Pure and total: unparseable input yields SideUnknown, never an error.
func ParseSide(selection string, market models.MarketType) models.CanonicalSide {
	selection = strings.TrimSpace(selection)

	switch market {
	case models.MarketTotal:
		return parseTotal(selection)
	case models.MarketSpread:
		return parseSpread(selection)
	case models.MarketMoneyline:
		return parseMoneyline(selection)
	default:
		return models.UnknownSide()
	}
}

// parseTotal detects OVER/UNDER and extracts the first numeric token as the line
func parseTotal(selection string) models.CanonicalSide {
	upper := strings.ToUpper(selection)

	var tag string
	switch {
	case strings.Contains(upper, models.TotalOver):
		tag = models.TotalOver
	case strings.Contains(upper, models.TotalUnder):
		tag = models.TotalUnder
	default:
		return models.UnknownSide()
	}

	side := models.CanonicalSide{Kind: models.SideTotal, OverUnder: tag}

	if match := firstNumberPattern.FindString(selection); match != "" {
		if line, err := strconv.ParseFloat(match, 64); err == nil {
			side.Line = &line
		}
	}

	return side
}

// parseSpread requires a leading team token and a trailing signed numeric
// line. A selection missing either is not a spread opinion and stays UNKNOWN
// rather than becoming a phantom camp.
func parseSpread(selection string) models.CanonicalSide {
	match := trailingSignedPattern.FindString(selection)
	if match == "" {
		return models.UnknownSide()
	}

	line, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return models.UnknownSide()
	}

	fields := strings.Fields(strings.TrimSuffix(selection, match))
	if len(fields) == 0 {
		return models.UnknownSide()
	}

	return models.CanonicalSide{
		Kind: models.SideSpread,
		Team: strings.ToUpper(fields[0]),
		Line: &line,
	}
}

// parseMoneyline treats the whole selection as the team
func parseMoneyline(selection string) models.CanonicalSide {
	if selection == "" {
		return models.UnknownSide()
	}

	return models.CanonicalSide{
		Kind: models.SideMoneyline,
		Team: strings.ToUpper(selection),
	}
}
