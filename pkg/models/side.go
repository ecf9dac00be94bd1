package models

import "fmt"

// SideKind tags the canonical side union
type SideKind string

const (
	SideTotal     SideKind = "total"
	SideSpread    SideKind = "spread"
	SideMoneyline SideKind = "moneyline"
	SideUnknown   SideKind = "unknown"
)

// Over/under tags for total markets
const (
	TotalOver  = "OVER"
	TotalUnder = "UNDER"
)

// CanonicalSide is the parsed, comparable representation of a pick's selection.
// Exactly one shape is populated depending on Kind:
//   - SideTotal:     OverUnder + Line
//   - SideSpread:    Team + Line
//   - SideMoneyline: Team
//   - SideUnknown:   nothing - the pick is invisible to consensus
type CanonicalSide struct {
	Kind      SideKind `json:"kind"`
	OverUnder string   `json:"over_under,omitempty"` // "OVER" or "UNDER"
	Team      string   `json:"team,omitempty"`       // Uppercased short code
	Line      *float64 `json:"line,omitempty"`
}

// UnknownSide is the canonical "could not parse" value
func UnknownSide() CanonicalSide {
	return CanonicalSide{Kind: SideUnknown}
}

// IsUnknown reports whether the side failed to parse
func (s CanonicalSide) IsUnknown() bool {
	return s.Kind == SideUnknown
}

// Key returns the grouping key for this side within one (game, market) pair.
// Two picks agree iff their keys are equal.
func (s CanonicalSide) Key() string {
	switch s.Kind {
	case SideTotal:
		return s.OverUnder
	case SideSpread, SideMoneyline:
		return s.Team
	default:
		return ""
	}
}

// String renders the side for logs and reason strings
func (s CanonicalSide) String() string {
	switch s.Kind {
	case SideTotal:
		if s.Line != nil {
			return fmt.Sprintf("%s %g", s.OverUnder, *s.Line)
		}
		return s.OverUnder
	case SideSpread:
		if s.Line != nil {
			return fmt.Sprintf("%s %+g", s.Team, *s.Line)
		}
		return s.Team
	case SideMoneyline:
		return s.Team
	default:
		return "UNKNOWN"
	}
}
