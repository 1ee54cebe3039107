// Package prompts composes the prompts sent to each decision pipeline stage.
// A prompt is the stage's role instructions, one titled JSON section per
// input, and the format the stage must answer in.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is a titled input rendered as indented JSON.
type Section struct {
	Title string
	Value any
}

// Compose builds the prompt for stage from its inputs.
func Compose(stage Stage, sections ...Section) (string, error) {
	inst, err := Instructions(stage)
	if err != nil {
		return "", err
	}
	spec, err := Spec(stage)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(inst)

	for _, s := range sections {
		body, err := json.MarshalIndent(s.Value, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render %s: %w", s.Title, err)
		}
		fmt.Fprintf(&b, "\n\n%s:\n%s", strings.ToUpper(s.Title), body)
	}

	b.WriteString("\n\n")
	b.WriteString(spec)

	return b.String(), nil
}
