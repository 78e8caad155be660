package analysis

import (
	"testing"

	"github.com/kiranshivaraju/recruitai/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, score float64, missing int) models.BatchItem {
	skills := make([]string, missing)
	for i := range skills {
		skills[i] = "skill" + string(rune('A'+i))
	}
	return models.BatchItem{
		Identifier: id,
		Analysis:   models.AnalysisResult{Score: score, MissingSkills: skills},
	}
}

func bestMatches(items []models.BatchItem) []string {
	var out []string
	for _, it := range items {
		if it.IsBestMatch {
			out = append(out, it.Identifier)
		}
	}
	return out
}

func TestRank_FewestMissingAtTopScoreWins(t *testing.T) {
	items := []models.BatchItem{item("a", 90, 1), item("b", 90, 0), item("c", 70, 0)}

	Rank(items, Thresholds{MinimumScore: 70, MaxMissingSkills: 2}, models.DirectionResumes)

	assert.Equal(t, []string{"b"}, bestMatches(items))
	for _, it := range items {
		assert.True(t, it.Acceptable, it.Identifier)
		assert.Equal(t, models.EmailAcceptance, it.EmailType, it.Identifier)
	}
}

func TestRank_ExactTiesFlagEveryTiedItem(t *testing.T) {
	items := []models.BatchItem{item("a", 88, 1), item("b", 88, 1), item("c", 60, 0)}

	Rank(items, DefaultThresholds, models.DirectionResumes)

	assert.Equal(t, []string{"a", "b"}, bestMatches(items))
}

func TestRank_TopScorerMustBeAcceptable(t *testing.T) {
	// Top score but too many gaps: nobody is the best match, even though
	// another item is acceptable.
	items := []models.BatchItem{item("a", 95, 5), item("b", 80, 0)}

	Rank(items, DefaultThresholds, models.DirectionResumes)

	assert.Empty(t, bestMatches(items))
	assert.Equal(t, models.EmailRejection, items[0].EmailType)
	assert.Equal(t, models.EmailAcceptance, items[1].EmailType)
}

func TestRank_ThresholdBoundariesAreInclusive(t *testing.T) {
	items := []models.BatchItem{item("edge", 70, 3)}

	Rank(items, DefaultThresholds, models.DirectionResumes)

	assert.True(t, items[0].Acceptable)
	assert.True(t, items[0].IsBestMatch)
}

func TestRank_FailedItemsExcluded(t *testing.T) {
	failed := item("broken", 0, 0)
	failed.Error = "extraction failed"
	items := []models.BatchItem{failed, item("ok", 40, 0)}

	Rank(items, Thresholds{MinimumScore: 30, MaxMissingSkills: 1}, models.DirectionResumes)

	assert.False(t, items[0].IsBestMatch)
	assert.Equal(t, models.EmailType(""), items[0].EmailType)
	assert.False(t, items[0].Acceptable)
	assert.True(t, items[1].IsBestMatch)
}

func TestRank_JobsDirection(t *testing.T) {
	items := []models.BatchItem{item("job-1", 85, 0), item("job-2", 50, 4)}

	Rank(items, DefaultThresholds, models.DirectionJobs)

	assert.Equal(t, models.EmailApplication, items[0].EmailType)
	assert.Equal(t, models.EmailNone, items[1].EmailType)
	assert.Equal(t, []string{"job-1"}, bestMatches(items))
}

func TestRank_AllFailed(t *testing.T) {
	a, b := item("a", 0, 0), item("b", 0, 0)
	a.Error, b.Error = "x", "y"
	items := Rank([]models.BatchItem{a, b}, DefaultThresholds, models.DirectionResumes)

	require.Len(t, items, 2)
	assert.Empty(t, bestMatches(items))
}

func TestRank_EmptyBatch(t *testing.T) {
	assert.Empty(t, Rank(nil, DefaultThresholds, models.DirectionResumes))
}
