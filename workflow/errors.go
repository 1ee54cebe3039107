// Package workflow runs the four-stage credit decision pipeline.
// Each stage prompts a model, recovers a typed result from its text, and
// hands that result to the stages after it. Execute drives one application
// from PENDING to a terminal status, checkpointing the decision document
// after every step.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrPipelineFailed = errors.New("decision pipeline failed")
	ErrPersistence    = errors.New("failed to persist decision")
	ErrPanic          = errors.New("decision run panicked")
)
