package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/metrics"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/internal/prompts"
)

const fallbackDecisionReason = "could not parse decision"

// Execute runs the decision pipeline for one application. It marks the
// application PROCESSING, runs the four stages in order, and commits the
// terminal status. Any failure after the application is found ends the
// record in ERROR and returns an error wrapping ErrPipelineFailed.
func Execute(ctx context.Context, rt *Runtime, id uuid.UUID) (*Result, error) {
	app, err := rt.Store.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find application %s: %w", id, err)
	}

	r := &run{
		rt:     rt,
		id:     id,
		logger: rt.Logger.With("application_id", id),
		doc: &Document{
			Applicant: app.Applicant,
			Progress:  []string{},
		},
	}

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	r.logger.InfoContext(ctx, "decision run starting")

	result, err := r.guarded(ctx)
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	metrics.Decisions.WithLabelValues(string(result.Status)).Inc()
	r.logger.InfoContext(ctx, "decision run complete", "status", result.Status)

	return result, nil
}

type run struct {
	rt      *Runtime
	id      uuid.UUID
	logger  *slog.Logger
	doc     *Document
	current prompts.Stage
}

// guarded runs execute and turns a panic into an ErrPanic error so the
// record still reaches ERROR.
func (r *run) guarded(ctx context.Context) (result *Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.ErrorContext(ctx, "decision run panic", "stage", r.current, "panic", v, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("%w: %v", ErrPanic, v)
		}
	}()
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	if err := r.commitStatus(ctx, applications.StatusUpdate{Status: applications.StatusProcessing}); err != nil {
		return nil, err
	}

	r.begin(ctx, prompts.StageDataCollector, ProcessingDataCollection)
	data, err := CollectData(ctx, r.rt, r.doc.Applicant)
	if err != nil {
		return nil, err
	}
	r.doc.DataCollection = &data
	r.finish(ctx, data.Ok())

	r.begin(ctx, prompts.StageRiskAssessor, ProcessingRiskAssessment)
	risk, err := AssessRisk(ctx, r.rt, r.doc.Applicant, data)
	if err != nil {
		return nil, err
	}
	r.doc.RiskAssessment = &risk
	r.finish(ctx, risk.Ok())

	r.begin(ctx, prompts.StageDecisionMaker, ProcessingDecision)
	decision, err := MakeDecision(ctx, r.rt, r.doc.Applicant, risk)
	if err != nil {
		return nil, err
	}
	r.doc.FinalDecision = &decision
	r.finish(ctx, decision.Ok())

	r.begin(ctx, prompts.StageAuditor, ProcessingAudit)
	audit, err := Audit(ctx, r.rt, r.doc.Applicant, data, risk, decision)
	if err != nil {
		return nil, err
	}
	r.doc.AuditReport = &audit
	r.finish(ctx, audit.Ok())

	r.current = ""
	completed := r.rt.now()
	r.doc.ProcessingStatus = ProcessingCompleted
	r.doc.Timestamp = &completed
	r.doc.AgentsUsed = agentNames()

	tctx, cancel := r.terminalContext(ctx)
	defer cancel()

	if err := r.commitDocument(tctx); err != nil {
		return nil, err
	}

	update := terminalUpdate(decision)
	if err := r.commitStatus(tctx, update); err != nil {
		return nil, err
	}

	r.publish(tctx, string(update.Status), "")

	return &Result{
		ApplicationID: r.id,
		Status:        update.Status,
		Reason:        update.Reason,
		Confidence:    update.Confidence,
		Document:      r.doc,
		CompletedAt:   completed,
	}, nil
}

// fail records the run as ERROR. Stage outputs already recorded are kept;
// nothing is written for the stage that failed.
func (r *run) fail(ctx context.Context, cause error) error {
	r.logger.ErrorContext(ctx, "decision run failed", "stage", r.current, "error", cause)
	metrics.Decisions.WithLabelValues(string(applications.StatusError)).Inc()

	tctx, cancel := r.terminalContext(ctx)
	defer cancel()

	if r.current != "" {
		r.annotate(tctx, fmt.Sprintf("Stage %d (%s) failed: %s", r.current.Number(), r.current.Name(), cause))
	} else {
		r.annotate(tctx, fmt.Sprintf("Processing failed: %s", cause))
	}
	r.doc.ProcessingStatus = ProcessingFailed
	r.checkpoint(tctx)

	reason := cause.Error()
	err := r.commitStatus(tctx, applications.StatusUpdate{
		Status: applications.StatusError,
		Reason: &reason,
	})

	failed := fmt.Errorf("%w: %w", ErrPipelineFailed, cause)
	if err != nil {
		return errors.Join(failed, err)
	}

	r.publish(tctx, string(applications.StatusError), "")
	return failed
}

func (r *run) begin(ctx context.Context, stage prompts.Stage, status string) {
	r.current = stage
	r.doc.ProcessingStatus = status
	r.annotate(ctx, fmt.Sprintf("Stage %d (%s) starting", stage.Number(), stage.Name()))
	r.checkpoint(ctx)
}

func (r *run) finish(ctx context.Context, parsed bool) {
	outcome := "completed"
	if !parsed {
		outcome = "returned non-parseable result"
	}
	r.annotate(ctx, fmt.Sprintf("Stage %d (%s) %s", r.current.Number(), r.current.Name(), outcome))
	r.checkpoint(ctx)
}

func (r *run) annotate(ctx context.Context, msg string) {
	entry := fmt.Sprintf("[%s] %s", r.rt.now().Format(time.RFC3339), msg)
	r.doc.Progress = append(r.doc.Progress, entry)
	r.publish(ctx, "", entry)
}

// checkpoint writes the document and logs, but does not return, failures.
func (r *run) checkpoint(ctx context.Context) {
	if err := r.writeDocument(ctx); err != nil {
		r.logger.WarnContext(ctx, "checkpoint failed", "processing_status", r.doc.ProcessingStatus, "error", err)
	}
}

func (r *run) commitDocument(ctx context.Context) error {
	if err := r.writeDocument(ctx); err != nil {
		return fmt.Errorf("%w: write decision document: %w", ErrPersistence, err)
	}
	return nil
}

func (r *run) commitStatus(ctx context.Context, update applications.StatusUpdate) error {
	if err := r.rt.Store.SetStatus(ctx, r.id, update); err != nil {
		return fmt.Errorf("%w: set status %s: %w", ErrPersistence, update.Status, err)
	}
	return nil
}

func (r *run) writeDocument(ctx context.Context) error {
	body, err := json.Marshal(r.doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.rt.Store.SetAgentOutput(ctx, r.id, body)
}

func (r *run) publish(ctx context.Context, status, progress string) {
	if r.rt.Notifier == nil {
		return
	}

	err := r.rt.Notifier.Publish(ctx, notify.Event{
		ApplicationID:    r.id,
		ProcessingStatus: r.doc.ProcessingStatus,
		Status:           status,
		Progress:         progress,
		At:               r.rt.now(),
	})
	if err != nil {
		r.logger.DebugContext(ctx, "progress event not delivered", "error", err)
	}
}

// terminalContext detaches terminal writes from caller cancellation so a
// cancelled run still reaches a terminal status.
func (r *run) terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if d := r.rt.Pipeline.TerminalWriteTimeoutDuration(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func terminalUpdate(decision Outcome[Decision]) applications.StatusUpdate {
	update := applications.StatusUpdate{Status: MapDecision(decision)}

	if !decision.Ok() {
		reason := fallbackDecisionReason
		update.Reason = &reason
		return update
	}

	if reason := decision.Value.Explanation(); reason != "" {
		update.Reason = &reason
	}

	if decision.Value.Confidence.Valid {
		confidence := decision.Value.Confidence.Decimal.InexactFloat64()
		update.Confidence = &confidence
	}

	return update
}

func agentNames() []string {
	stages := prompts.Stages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}
