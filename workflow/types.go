package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
)

// Processing status values recorded in the decision document.
const (
	ProcessingDataCollection = "step1_data_collection"
	ProcessingRiskAssessment = "step2_risk_assessment"
	ProcessingDecision       = "step3_decision"
	ProcessingAudit          = "step4_audit"
	ProcessingCompleted      = "completed"
	ProcessingFailed         = "failed"
)

// Decision values returned by the decision stage.
const (
	DecisionApprove = "APPROVE"
	DecisionDeny    = "DENY"
	DecisionRefer   = "REFER"
)

// DataCollection is the data collection stage's profile of the applicant.
type DataCollection struct {
	DataCompletenessScore      float64 `json:"data_completeness_score"`
	QualityAssessment          Text    `json:"quality_assessment"`
	KeyRiskIndicators          Strings `json:"key_risk_indicators"`
	PositiveFactors            Strings `json:"positive_factors"`
	MissingDataRecommendations Strings `json:"missing_data_recommendations"`
	ProfileSummary             string  `json:"profile_summary"`
	NextStepRecommendations    Strings `json:"next_step_recommendations"`
}

// RiskAssessment is the risk stage's scoring of the applicant.
type RiskAssessment struct {
	OverallRiskScore           float64 `json:"overall_risk_score"`
	RiskCategory               string  `json:"risk_category"`
	KeyRiskFactors             Strings `json:"key_risk_factors"`
	MitigatingFactors          Strings `json:"mitigating_factors"`
	RecommendedCreditLimit     Number  `json:"recommended_credit_limit"`
	SuggestedInterestRateRange Text    `json:"suggested_interest_rate_range"`
}

// Decision is the decision stage's verdict.
// Older prompts produced "reason" instead of "detailed_reasoning".
type Decision struct {
	Decision          string  `json:"decision"`
	CreditLimit       Number  `json:"credit_limit"`
	InterestRate      Number  `json:"interest_rate"`
	TermLengthMonths  Number  `json:"term_length_months"`
	Conditions        Strings `json:"conditions"`
	Confidence        Number  `json:"confidence"`
	DetailedReasoning Text    `json:"detailed_reasoning"`
	Reason            Text    `json:"reason"`
}

// Explanation returns the reasoning text the model gave for its verdict.
func (d Decision) Explanation() string {
	if s := strings.TrimSpace(string(d.DetailedReasoning)); s != "" {
		return s
	}
	return strings.TrimSpace(string(d.Reason))
}

// AuditReport is the audit stage's compliance review of the run.
type AuditReport struct {
	AuditComplianceScore          float64 `json:"audit_compliance_score"`
	ComplianceIssues              Strings `json:"compliance_issues"`
	RegulatoryFlags               Strings `json:"regulatory_flags"`
	Recommendations               Strings `json:"recommendations"`
	AuditTrailSummary             Text    `json:"audit_trail_summary"`
	DecisionJustificationStrength Text    `json:"decision_justification_strength"`
}

// Document is the agent_output record persisted for an application.
// Stage fields are set only once their stage has finished.
type Document struct {
	Applicant        applications.Applicant   `json:"applicant"`
	DataCollection   *Outcome[DataCollection] `json:"data_collection,omitempty"`
	RiskAssessment   *Outcome[RiskAssessment] `json:"risk_assessment,omitempty"`
	FinalDecision    *Outcome[Decision]       `json:"final_decision,omitempty"`
	AuditReport      *Outcome[AuditReport]    `json:"audit_report,omitempty"`
	ProcessingStatus string                   `json:"processing_status"`
	Progress         []string                 `json:"progress"`
	Timestamp        *time.Time               `json:"timestamp,omitempty"`
	AgentsUsed       []string                 `json:"agents_used,omitempty"`
}

// Result is the outcome of a completed decision run.
type Result struct {
	ApplicationID uuid.UUID           `json:"application_id"`
	Status        applications.Status `json:"status"`
	Reason        *string             `json:"reason,omitempty"`
	Confidence    *float64            `json:"confidence,omitempty"`
	Document      *Document           `json:"document"`
	CompletedAt   time.Time           `json:"completed_at"`
}

// MapDecision converts a decision outcome to a terminal application status.
// Only APPROVE and DENY, in any case, produce a definite status.
func MapDecision(o Outcome[Decision]) applications.Status {
	if !o.Ok() {
		return applications.StatusRefer
	}

	switch strings.ToUpper(strings.TrimSpace(o.Value.Decision)) {
	case DecisionApprove:
		return applications.StatusApproved
	case DecisionDeny:
		return applications.StatusDenied
	default:
		return applications.StatusRefer
	}
}
