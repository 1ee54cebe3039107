package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies one step of the decision pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageDataCollector Stage = "data_collector"
	StageRiskAssessor  Stage = "risk_assessor"
	StageDecisionMaker Stage = "decision_maker"
	StageAuditor       Stage = "auditor"
)

var stages = []Stage{
	StageDataCollector,
	StageRiskAssessor,
	StageDecisionMaker,
	StageAuditor,
}

var names = map[Stage]string{
	StageDataCollector: "DataCollector",
	StageRiskAssessor:  "RiskAssessor",
	StageDecisionMaker: "DecisionMaker",
	StageAuditor:       "Auditor",
}

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return stages
}

// Name returns the agent name used in progress annotations, e.g. "RiskAssessor".
func (s Stage) Name() string {
	return names[s]
}

// Number returns the 1-based position of s in the pipeline, or 0 if unknown.
func (s Stage) Number() int {
	return slices.Index(stages, s) + 1
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known pipeline stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
