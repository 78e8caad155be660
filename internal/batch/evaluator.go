package batch

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// ServiceEvaluator adapts ai.RecruitmentService to Evaluator.
type ServiceEvaluator struct {
	svc *ai.RecruitmentService
}

// NewServiceEvaluator wraps svc.
func NewServiceEvaluator(svc *ai.RecruitmentService) *ServiceEvaluator {
	return &ServiceEvaluator{svc: svc}
}

func (e *ServiceEvaluator) Analyze(ctx context.Context, dir models.Direction, document, counterpart, companyName string) (models.AnalysisResult, error) {
	if dir == models.DirectionJobs {
		return e.svc.AnalyzeJob(ctx, document, counterpart, companyName)
	}
	return e.svc.AnalyzeResume(ctx, document, counterpart)
}

func (e *ServiceEvaluator) Email(ctx context.Context, item models.BatchItem, document, counterpart, companyName string) (string, error) {
	switch item.EmailType {
	case models.EmailAcceptance:
		return e.svc.AcceptanceEmail(ctx, item.Identifier, counterpart)
	case models.EmailRejection:
		return e.svc.RejectionEmail(ctx, item.Identifier)
	case models.EmailApplication:
		return e.svc.ApplicationEmail(ctx, document, counterpart, companyName, item.Analysis.MissingSkills)
	case models.EmailNone:
		return "", nil
	default:
		return "", fmt.Errorf("unknown email type %q", item.EmailType)
	}
}

var _ Evaluator = (*ServiceEvaluator)(nil)
