package verify

import "math"

// Category weights. They are fixed by the scoring model and sum to
// exactly 1.0.
const (
	weightPostconditions = 0.40
	weightInvariants     = 0.30
	weightScenarios      = 0.20
	weightTemporal       = 0.10
)

// Per-state contribution to a category score.
const (
	valuePass    = 1.0
	valuePartial = 0.4
	valueFail    = 0.0
)

// Recommendation is the ship gate derived from a score.
type Recommendation string

// Recommendations.
const (
	RecProductionReady Recommendation = "production_ready"
	RecShip            Recommendation = "ship"
	RecNoShip          Recommendation = "no_ship"
)

// CategoryScore aggregates one weighted category.
type CategoryScore struct {
	Pass    int     `json:"pass"`
	Partial int     `json:"partial"`
	Fail    int     `json:"fail"`
	Percent float64 `json:"percent"`
}

func (c CategoryScore) total() int { return c.Pass + c.Partial + c.Fail }

// ScoreSummary is the reduction of a full clause-result set.
type ScoreSummary struct {
	Postconditions CategoryScore  `json:"postconditions"`
	Invariants     CategoryScore  `json:"invariants"`
	Scenarios      CategoryScore  `json:"scenarios"`
	Temporal       CategoryScore  `json:"temporal"`
	Score          int            `json:"score"`
	Pass           int            `json:"pass"`
	Partial        int            `json:"partial"`
	Fail           int            `json:"fail"`
	Recommendation Recommendation `json:"recommendation"`
}

// Score reduces completed clause results to a summary. It is a pure
// function: no synchronization needed once all results are collected.
//
// Category score = Σ(PASS=1.0, PARTIAL=0.4, FAIL=0.0) / count, as a
// percentage. Overall = Σ(category% × weight), rounded to the nearest
// integer and clamped to [0,100]. A category with no clauses is vacuously
// complete and contributes its full weight; a run with no clauses at all
// has proven nothing and scores zero.
func Score(results []ClauseResult) ScoreSummary {
	var s ScoreSummary
	for _, r := range results {
		cat := &s.Postconditions
		switch r.Kind {
		case KindInvariant:
			cat = &s.Invariants
		case KindScenario:
			cat = &s.Scenarios
		case KindTemporal:
			cat = &s.Temporal
		}
		switch r.State {
		case StatePass:
			cat.Pass++
			s.Pass++
		case StatePartial:
			cat.Partial++
			s.Partial++
		default:
			cat.Fail++
			s.Fail++
		}
	}

	for _, cat := range []*CategoryScore{&s.Postconditions, &s.Invariants, &s.Scenarios, &s.Temporal} {
		cat.Percent = categoryPercent(*cat)
	}

	if len(results) == 0 {
		s.Recommendation = RecNoShip
		return s
	}

	overall := s.Postconditions.Percent*weightPostconditions +
		s.Invariants.Percent*weightInvariants +
		s.Scenarios.Percent*weightScenarios +
		s.Temporal.Percent*weightTemporal
	s.Score = clamp(int(math.Round(overall)), 0, 100)
	s.Recommendation = recommend(s.Score, s.Fail)
	return s
}

func categoryPercent(c CategoryScore) float64 {
	n := c.total()
	if n == 0 {
		return 100
	}
	sum := float64(c.Pass)*valuePass + float64(c.Partial)*valuePartial + float64(c.Fail)*valueFail
	return sum / float64(n) * 100
}

func recommend(score, fails int) Recommendation {
	switch {
	case score >= 95 && fails == 0:
		return RecProductionReady
	case score >= 85 && fails == 0:
		return RecShip
	default:
		return RecNoShip
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
