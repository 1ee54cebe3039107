package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/internal/prompts"
	"github.com/JaimeStill/underwriter/pkg/llm"
)

// Store is the application persistence the pipeline reads and writes.
// applications.System satisfies it.
type Store interface {
	Find(ctx context.Context, id uuid.UUID) (*applications.Application, error)
	SetStatus(ctx context.Context, id uuid.UUID, update applications.StatusUpdate) error
	SetAgentOutput(ctx context.Context, id uuid.UUID, doc json.RawMessage) error
}

// Runtime bundles the dependencies that pipeline stages require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	LLM      llm.Client
	Store    Store
	Pipeline config.PipelineConfig
	// Notifier is optional; a nil Notifier disables progress events.
	Notifier notify.Publisher
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now().UTC()
	}
	return time.Now().UTC()
}

func (rt *Runtime) stageConfig(stage prompts.Stage) config.StageConfig {
	switch stage {
	case prompts.StageDataCollector:
		return rt.Pipeline.DataCollector
	case prompts.StageRiskAssessor:
		return rt.Pipeline.RiskAssessor
	case prompts.StageDecisionMaker:
		return rt.Pipeline.DecisionMaker
	default:
		return rt.Pipeline.Auditor
	}
}
