package workflow

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/JaimeStill/underwriter/internal/prompts"
)

// Schemas type-check only the fields the pipeline relies on. Everything
// else is recorded as the model wrote it and decoded leniently.
var schemaSources = map[prompts.Stage]string{
	prompts.StageDataCollector: `{
		"type": "object",
		"required": ["data_completeness_score", "profile_summary"],
		"properties": {
			"data_completeness_score": {"type": "number"},
			"profile_summary": {"type": "string"}
		}
	}`,
	prompts.StageRiskAssessor: `{
		"type": "object",
		"required": ["overall_risk_score", "risk_category"],
		"properties": {
			"overall_risk_score": {"type": "number"},
			"risk_category": {"type": "string"}
		}
	}`,
	prompts.StageDecisionMaker: `{
		"type": "object",
		"required": ["decision"],
		"properties": {
			"decision": {"type": "string"}
		}
	}`,
	prompts.StageAuditor: `{
		"type": "object",
		"required": ["audit_compliance_score"],
		"properties": {
			"audit_compliance_score": {"type": "number"}
		}
	}`,
}

var schemas = compileSchemas()

func compileSchemas() map[prompts.Stage]*gojsonschema.Schema {
	compiled := make(map[prompts.Stage]*gojsonschema.Schema, len(schemaSources))
	for stage, src := range schemaSources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("compile %s schema: %v", stage, err))
		}
		compiled[stage] = s
	}
	return compiled
}

// validateDocument checks doc against the output schema for stage.
func validateDocument(stage prompts.Stage, doc []byte) error {
	schema, ok := schemas[stage]
	if !ok {
		return fmt.Errorf("%w: %s", prompts.ErrInvalidStage, stage)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s output: %w", stage, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s output does not match schema: %s", stage, strings.Join(msgs, "; "))
	}

	return nil
}
