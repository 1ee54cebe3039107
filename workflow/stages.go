package workflow

import (
	"context"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/prompts"
)

// CollectData profiles the applicant's data quality and initial risk signals.
func CollectData(ctx context.Context, rt *Runtime, applicant applications.Applicant) (Outcome[DataCollection], error) {
	return runStage[DataCollection](ctx, rt, prompts.StageDataCollector,
		prompts.Section{Title: "Applicant Data", Value: applicant},
	)
}

// AssessRisk scores the applicant using the data collection profile.
func AssessRisk(
	ctx context.Context,
	rt *Runtime,
	applicant applications.Applicant,
	data Outcome[DataCollection],
) (Outcome[RiskAssessment], error) {
	return runStage[RiskAssessment](ctx, rt, prompts.StageRiskAssessor,
		prompts.Section{Title: "Applicant Data", Value: applicant},
		prompts.Section{Title: "Data Collection Analysis", Value: data},
	)
}

// MakeDecision produces the credit verdict from the risk assessment.
func MakeDecision(
	ctx context.Context,
	rt *Runtime,
	applicant applications.Applicant,
	risk Outcome[RiskAssessment],
) (Outcome[Decision], error) {
	return runStage[Decision](ctx, rt, prompts.StageDecisionMaker,
		prompts.Section{Title: "Applicant Data", Value: applicant},
		prompts.Section{Title: "Risk Assessment", Value: risk},
	)
}

// Audit reviews the full run for compliance and decision quality.
func Audit(
	ctx context.Context,
	rt *Runtime,
	applicant applications.Applicant,
	data Outcome[DataCollection],
	risk Outcome[RiskAssessment],
	decision Outcome[Decision],
) (Outcome[AuditReport], error) {
	return runStage[AuditReport](ctx, rt, prompts.StageAuditor,
		prompts.Section{Title: "Applicant Data", Value: applicant},
		prompts.Section{Title: "Data Collection Analysis", Value: data},
		prompts.Section{Title: "Risk Assessment", Value: risk},
		prompts.Section{Title: "Credit Decision", Value: decision},
	)
}
