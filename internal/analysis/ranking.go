package analysis

import "github.com/kiranshivaraju/recruitai/pkg/models"

// Thresholds are the acceptance limits applied to every item of a batch.
type Thresholds struct {
	MinimumScore     float64 `json:"minimum_score"`
	MaxMissingSkills int     `json:"max_missing_skills"`
}

// DefaultThresholds match the API defaults.
var DefaultThresholds = Thresholds{MinimumScore: 70, MaxMissingSkills: 3}

// Acceptable reports whether a result clears both thresholds.
func (t Thresholds) Acceptable(r models.AnalysisResult) bool {
	return r.Score >= t.MinimumScore && len(r.MissingSkills) <= t.MaxMissingSkills
}

// Rank annotates items in place and returns the same slice. Failed items are
// left untouched. An item is a best match when it is acceptable, has the top
// score, and has the fewest missing skills among top scorers. Exact ties are
// not broken, so several items may be flagged.
func Rank(items []models.BatchItem, th Thresholds, dir models.Direction) []models.BatchItem {
	bestScore, minMissing, found := topOfBatch(items)

	for i := range items {
		it := &items[i]
		if it.Failed() {
			continue
		}
		it.Acceptable = th.Acceptable(it.Analysis)
		it.IsBestMatch = found &&
			it.Acceptable &&
			it.Analysis.Score == bestScore &&
			len(it.Analysis.MissingSkills) == minMissing
		it.EmailType = emailTypeFor(it.Acceptable, dir)
	}
	return items
}

// topOfBatch returns the highest score over successful items and the smallest
// missing-skill count among items at that score.
func topOfBatch(items []models.BatchItem) (bestScore float64, minMissing int, found bool) {
	for _, it := range items {
		if it.Failed() {
			continue
		}
		if !found || it.Analysis.Score > bestScore {
			bestScore = it.Analysis.Score
			found = true
		}
	}
	minMissing = -1
	for _, it := range items {
		if it.Failed() || it.Analysis.Score != bestScore {
			continue
		}
		if n := len(it.Analysis.MissingSkills); minMissing < 0 || n < minMissing {
			minMissing = n
		}
	}
	return bestScore, minMissing, found
}

func emailTypeFor(acceptable bool, dir models.Direction) models.EmailType {
	switch {
	case dir == models.DirectionJobs && acceptable:
		return models.EmailApplication
	case dir == models.DirectionJobs:
		return models.EmailNone
	case acceptable:
		return models.EmailAcceptance
	default:
		return models.EmailRejection
	}
}
