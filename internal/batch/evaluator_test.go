package batch_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/ai/mock"
	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailBody = strings.Repeat("Thank you for your application. ", 4)

func newServiceEvaluator() (*batch.ServiceEvaluator, *mock.Completer) {
	c := mock.NewCompleterByType(map[string]string{
		ai.TypeResumeAnalysis: "Score: 81\nMissing Skills: Kafka\nRemarks: ok",
		ai.TypeJobAnalysis:    "Score: 64\nMissing Skills: none\nRemarks: ok",
		ai.TypeEmail:          emailBody,
	})
	return batch.NewServiceEvaluator(ai.NewRecruitmentService(c, 0, nil)), c
}

func TestServiceEvaluator_AnalyzeByDirection(t *testing.T) {
	eval, c := newServiceEvaluator()
	ctx := context.Background()

	res, err := eval.Analyze(ctx, models.DirectionResumes, "cv", "jd", "")
	require.NoError(t, err)
	assert.Equal(t, 81.0, res.Score)

	res, err = eval.Analyze(ctx, models.DirectionJobs, "posting", "cv", "Acme")
	require.NoError(t, err)
	assert.Equal(t, 64.0, res.Score)

	calls := c.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, ai.TypeResumeAnalysis, calls[0].CompletionType)
	assert.Equal(t, ai.TypeJobAnalysis, calls[1].CompletionType)
}

func TestServiceEvaluator_EmailByType(t *testing.T) {
	eval, c := newServiceEvaluator()
	ctx := context.Background()

	for _, et := range []models.EmailType{models.EmailAcceptance, models.EmailRejection, models.EmailApplication} {
		text, err := eval.Email(ctx, models.BatchItem{Identifier: "jane_doe.pdf", EmailType: et}, "doc", "counterpart", "Acme")
		require.NoError(t, err, et)
		assert.Equal(t, emailBody, text)
	}
	assert.Len(t, c.Calls(), 3)

	text, err := eval.Email(ctx, models.BatchItem{EmailType: models.EmailNone}, "", "", "")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Len(t, c.Calls(), 3)

	_, err = eval.Email(ctx, models.BatchItem{EmailType: "carrier-pigeon"}, "", "", "")
	assert.Error(t, err)
}
