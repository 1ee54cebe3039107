package prompts

import "errors"

// ErrInvalidStage indicates an unrecognized pipeline stage.
var ErrInvalidStage = errors.New("invalid pipeline stage")
