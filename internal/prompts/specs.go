package prompts

const dataCollectorSpec = `Respond with a JSON object matching this exact structure:

{
  "data_completeness_score": 0,
  "quality_assessment": "<assessment>",
  "key_risk_indicators": ["<indicator>"],
  "positive_factors": ["<factor>"],
  "missing_data_recommendations": ["<recommendation>"],
  "profile_summary": "<summary>",
  "next_step_recommendations": ["<recommendation>"]
}

Field constraints:
- data_completeness_score: Integer from 1 to 100.
- key_risk_indicators, positive_factors, missing_data_recommendations,
  next_step_recommendations: Arrays of short strings. Use an empty array
  when there is nothing to report.
- profile_summary: Two or three sentences describing the applicant.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Report only what the data supports`

const riskAssessorSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_risk_score": 0,
  "risk_category": "Low",
  "key_risk_factors": ["<factor>"],
  "mitigating_factors": ["<factor>"],
  "recommended_credit_limit": 0,
  "suggested_interest_rate_range": "<low>-<high>%"
}

Field constraints:
- overall_risk_score: Integer from 1 to 100, higher meaning riskier.
- risk_category: One of Low, Medium, High, Very High.
- recommended_credit_limit: Number in dollars, no currency symbols.
- suggested_interest_rate_range: Annual percentage range, e.g. "8.5-11.0%".

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const decisionMakerSpec = `Respond with a JSON object matching this exact structure:

{
  "decision": "APPROVE",
  "credit_limit": 0,
  "interest_rate": 0,
  "term_length_months": 0,
  "conditions": ["<condition>"],
  "confidence": 0,
  "detailed_reasoning": "<reasoning>"
}

Field constraints:
- decision: Exactly one of APPROVE, DENY, REFER.
- credit_limit, interest_rate, term_length_months, conditions: Required
  for APPROVE. Use null or an empty array otherwise.
- interest_rate: Annual percentage as a number, e.g. 9.75.
- confidence: Integer from 1 to 100.
- detailed_reasoning: The evidence the decision rests on.

Behavioral constraints:
- Respond with ONLY the JSON object, no markdown fencing or commentary`

const auditorSpec = `Respond with a JSON object matching this exact structure:

{
  "audit_compliance_score": 0,
  "compliance_issues": ["<issue>"],
  "regulatory_flags": ["<flag>"],
  "recommendations": ["<recommendation>"],
  "audit_trail_summary": "<summary>",
  "decision_justification_strength": "Strong"
}

Field constraints:
- audit_compliance_score: Integer from 1 to 100.
- compliance_issues, regulatory_flags, recommendations: Arrays of short
  strings. Use an empty array when there is nothing to report.
- decision_justification_strength: One of Strong, Moderate, Weak.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageDataCollector: dataCollectorSpec,
	StageRiskAssessor:  riskAssessorSpec,
	StageDecisionMaker: decisionMakerSpec,
	StageAuditor:       auditorSpec,
}

// Spec returns the output format a stage must answer in.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
