package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/metrics"
	"github.com/JaimeStill/underwriter/internal/prompts"
	"github.com/JaimeStill/underwriter/pkg/formatting"
	"github.com/JaimeStill/underwriter/pkg/llm"
)

// runStage composes the prompt for stage, invokes the configured model, and
// recovers a T from the response. Unparseable text yields a fallback
// outcome rather than an error.
func runStage[T any](ctx context.Context, rt *Runtime, stage prompts.Stage, sections ...prompts.Section) (Outcome[T], error) {
	cfg := rt.stageConfig(stage)

	prompt, err := prompts.Compose(stage, sections...)
	if err != nil {
		return Outcome[T]{}, fmt.Errorf("%s: compose prompt: %w", stage.Name(), err)
	}

	start := time.Now()

	resp, err := invoke(ctx, rt, stage, cfg, llm.Request{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Prompt:      prompt,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.TemperatureValue(),
	})
	if err != nil {
		metrics.ObserveStage(string(stage), "error", time.Since(start))
		return Outcome[T]{}, fmt.Errorf("%s: %w", stage.Name(), err)
	}

	metrics.ObserveInvocation(resp.Provider, resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Cost)

	rt.Logger.InfoContext(
		ctx, "stage invocation complete",
		"stage", stage,
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"cost", resp.Cost.String(),
		"elapsed", resp.Elapsed,
	)

	out, err := parse[T](stage, resp.Text)
	if err != nil {
		rt.Logger.WarnContext(ctx, "stage returned non-parseable result", "stage", stage, "error", err)
		metrics.ObserveStage(string(stage), string(OutcomeFallback), time.Since(start))
		return Fallback[T](resp.Text), nil
	}

	metrics.ObserveStage(string(stage), string(OutcomeParsed), time.Since(start))
	return out, nil
}

func parse[T any](stage prompts.Stage, text string) (Outcome[T], error) {
	doc, err := formatting.Extract(text)
	if err != nil {
		return Outcome[T]{}, err
	}

	if err := validateDocument(stage, doc); err != nil {
		return Outcome[T]{}, err
	}

	value, err := formatting.Decode[T](doc)
	if err != nil {
		return Outcome[T]{}, err
	}

	return Parsed(value, doc), nil
}

// invoke calls the model under the stage's timeout, retrying retryable
// failures up to cfg.Retries times with doubling backoff.
func invoke(ctx context.Context, rt *Runtime, stage prompts.Stage, cfg config.StageConfig, req llm.Request) (*llm.Response, error) {
	backoff := cfg.RetryBackoffDuration()

	for attempt := 0; ; attempt++ {
		resp, err := invokeOnce(ctx, rt.LLM, cfg.TimeoutDuration(), req)
		if err == nil {
			return resp, nil
		}

		if attempt >= cfg.Retries || !llm.IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}

		rt.Logger.WarnContext(
			ctx, "retrying stage invocation",
			"stage", stage,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}

		backoff *= 2
	}
}

func invokeOnce(ctx context.Context, client llm.Client, timeout time.Duration, req llm.Request) (*llm.Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := client.Invoke(ctx, req)
	if err == nil && resp == nil {
		err = llm.ErrEmptyResponse
	}
	if err != nil && !errors.Is(err, llm.ErrInvocation) {
		err = &llm.InvocationError{Provider: req.Provider, Model: req.Model, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
