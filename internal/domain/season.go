package domain

import "time"

// Season is a fixed calendar window [Start, End) used for ranking.
// Seasons are precomputed rows, immutable once defined.
type Season struct {
	Number int       `json:"season_number"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Contains reports whether t falls inside the season window.
func (s Season) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}
