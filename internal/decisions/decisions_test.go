package decisions_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/decisions"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/pkg/lifecycle"
	"github.com/JaimeStill/underwriter/pkg/llm"
	"github.com/JaimeStill/underwriter/pkg/routes"
	"github.com/JaimeStill/underwriter/pkg/storage"
	"github.com/JaimeStill/underwriter/workflow"
)

var replies = map[string]string{
	"collector": `{"data_completeness_score": 90, "profile_summary": "Complete profile."}`,
	"risk":      `{"overall_risk_score": 25, "risk_category": "Low"}`,
	"decision":  `{"decision": "APPROVE", "confidence": 88, "detailed_reasoning": "Low risk."}`,
	"audit":     `{"audit_compliance_score": 95}`,
}

type cannedLLM struct{}

func (cannedLLM) Invoke(_ context.Context, req llm.Request) (*llm.Response, error) {
	text, ok := replies[req.Model]
	if !ok {
		return nil, &llm.InvocationError{Provider: "bedrock", Model: req.Model, Err: errors.New("unknown model")}
	}
	return &llm.Response{Text: text, Provider: "bedrock", Model: req.Model}, nil
}

type memApplications struct {
	applications.System

	mu   sync.Mutex
	apps map[uuid.UUID]*applications.Application
}

func newMemApplications() *memApplications {
	return &memApplications{apps: map[uuid.UUID]*applications.Application{}}
}

func (m *memApplications) add() uuid.UUID {
	app, _ := m.Create(context.Background(), applications.CreateCommand{Applicant: applicant()})
	return app.ID
}

func (m *memApplications) Find(_ context.Context, id uuid.UUID) (*applications.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, applications.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *memApplications) Create(_ context.Context, cmd applications.CreateCommand) (*applications.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app := &applications.Application{
		ID:        uuid.New(),
		Applicant: cmd.Applicant,
		Source:    applications.SourceAPI,
		Status:    applications.StatusPending,
	}
	m.apps[app.ID] = app
	cp := *app
	return &cp, nil
}

func (m *memApplications) SetStatus(_ context.Context, id uuid.UUID, update applications.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return applications.ErrNotFound
	}
	app.Status = update.Status
	if update.Reason != nil {
		app.Reason = update.Reason
	}
	return nil
}

func (m *memApplications) SetAgentOutput(_ context.Context, id uuid.UUID, doc json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return applications.ErrNotFound
	}
	app.AgentOutput = doc
	return nil
}

func (m *memApplications) status(id uuid.UUID) applications.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apps[id].Status
}

type memArchive struct {
	mu   sync.Mutex
	puts map[string][]byte
}

var _ storage.System = (*memArchive)(nil)

func (a *memArchive) Start(*lifecycle.Coordinator) error { return nil }
func (a *memArchive) Enabled() bool                      { return true }
func (a *memArchive) Key(parts ...string) string {
	return path.Join(append([]string{"decisions"}, parts...)...)
}

func (a *memArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.puts[key] = data
	return nil
}

func applicant() applications.Applicant {
	return applications.Applicant{
		Name:             "Grace Hopper",
		Age:              45,
		Income:           decimal.NewFromInt(120000),
		EmploymentStatus: "Full-time",
		CreditScore:      780,
		DTIRatio:         decimal.RequireFromString("0.18"),
		ExistingDebts:    decimal.NewFromInt(2500),
		RequestedCredit:  decimal.NewFromInt(15000),
	}
}

func stage(model string) config.StageConfig {
	return config.StageConfig{Model: model, MaxTokens: 200, Timeout: "0s", RetryBackoff: "1ms"}
}

type fixture struct {
	sys     decisions.System
	apps    *memApplications
	archive *memArchive
	redis   *redis.Client
	lc      *lifecycle.Coordinator
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	lc := lifecycle.New()
	t.Cleanup(func() { lc.Shutdown(5 * time.Second) })

	apps := newMemApplications()
	archive := &memArchive{puts: map[string][]byte{}}

	pipeline := config.PipelineConfig{
		DataCollector:        stage("collector"),
		RiskAssessor:         stage("risk"),
		DecisionMaker:        stage("decision"),
		Auditor:              stage("audit"),
		MaxConcurrentRuns:    2,
		LockTTL:              "1m",
		TerminalWriteTimeout: "5s",
	}

	sys := decisions.New(
		apps,
		cannedLLM{},
		client,
		archive,
		lc,
		pipeline,
		3,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &fixture{sys: sys, apps: apps, archive: archive, redis: client, lc: lc}
}

func TestRunArchivesResult(t *testing.T) {
	f := setup(t)
	id := f.apps.add()

	result, err := f.sys.Run(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, applications.StatusApproved, result.Status)
	assert.Equal(t, applications.StatusApproved, f.apps.status(id))

	require.Len(t, f.archive.puts, 1)
	for key, body := range f.archive.puts {
		assert.True(t, strings.HasPrefix(key, "decisions/"+id.String()+"/"), key)
		assert.True(t, strings.HasSuffix(key, ".json"), key)

		var archived workflow.Result
		require.NoError(t, json.Unmarshal(body, &archived))
		assert.Equal(t, id, archived.ApplicationID)
	}
}

func TestRunInProgress(t *testing.T) {
	f := setup(t)
	id := f.apps.add()
	ctx := context.Background()

	lock, err := redislock.New(f.redis).Obtain(ctx, decisions.LockKey(id), time.Minute, nil)
	require.NoError(t, err)

	_, err = f.sys.Run(ctx, id)
	assert.ErrorIs(t, err, decisions.ErrInProgress)
	assert.Equal(t, applications.StatusPending, f.apps.status(id))

	require.NoError(t, lock.Release(ctx))

	result, err := f.sys.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusApproved, result.Status)

	// A finished record can be run again.
	result, err = f.sys.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusApproved, result.Status)
}

func TestSubmit(t *testing.T) {
	f := setup(t)

	err := f.sys.Submit(context.Background(), uuid.New())
	assert.ErrorIs(t, err, applications.ErrNotFound)

	id := f.apps.add()
	require.NoError(t, f.sys.Submit(context.Background(), id))

	assert.Eventually(t, func() bool {
		return f.apps.status(id) == applications.StatusApproved
	}, 5*time.Second, 10*time.Millisecond)
}

func TestApply(t *testing.T) {
	f := setup(t)

	app, err := f.sys.Apply(context.Background(), applications.CreateCommand{Applicant: applicant()})
	require.NoError(t, err)
	assert.Equal(t, applications.StatusPending, app.Status)

	assert.Eventually(t, func() bool {
		return f.apps.status(app.ID) == applications.StatusApproved
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRunBatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, second, missing := f.apps.add(), f.apps.add(), uuid.New()

	items, err := f.sys.RunBatch(ctx, []uuid.UUID{first, missing, second})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, first, items[0].ApplicationID)
	assert.Equal(t, applications.StatusApproved, items[0].Status)
	assert.Empty(t, items[0].Error)

	assert.Equal(t, missing, items[1].ApplicationID)
	assert.Contains(t, items[1].Error, "not found")

	assert.Equal(t, applications.StatusApproved, items[2].Status)

	_, err = f.sys.RunBatch(ctx, nil)
	assert.ErrorIs(t, err, decisions.ErrEmptyBatch)

	_, err = f.sys.RunBatch(ctx, []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()})
	assert.ErrorIs(t, err, decisions.ErrBatchTooLarge)
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("find: %w", applications.ErrNotFound), http.StatusNotFound},
		{"in progress", decisions.ErrInProgress, http.StatusConflict},
		{"invalid application", &applications.ValidationError{Fields: map[string]string{"age": "gte"}}, http.StatusBadRequest},
		{"empty batch", decisions.ErrEmptyBatch, http.StatusBadRequest},
		{"pipeline failed", fmt.Errorf("%w: throttled", workflow.ErrPipelineFailed), http.StatusBadGateway},
		{"terminal write failed", fmt.Errorf("%w: %w", workflow.ErrPipelineFailed, workflow.ErrPersistence), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decisions.MapHTTPStatus(tt.err))
		})
	}
}

func newServer(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, f.sys.Handler().Routes())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandlerRun(t *testing.T) {
	f := setup(t)
	srv := newServer(t, f)
	id := f.apps.add()

	resp, err := http.Post(srv.URL+"/decisions/"+id.String(), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result workflow.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, applications.StatusApproved, result.Status)

	t.Run("unknown id", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/decisions/"+uuid.NewString(), "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/decisions/not-a-uuid", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandlerSubmit(t *testing.T) {
	f := setup(t)
	srv := newServer(t, f)
	id := f.apps.add()

	resp, err := http.Post(srv.URL+"/decisions/"+id.String()+"/submit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted decisions.Accepted
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.Equal(t, id, accepted.ApplicationID)
	assert.True(t, accepted.Queued)
}

func TestHandlerBatch(t *testing.T) {
	f := setup(t)
	srv := newServer(t, f)
	id := f.apps.add()

	body := fmt.Sprintf(`{"ids": [%q]}`, id)
	resp, err := http.Post(srv.URL+"/decisions/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var items []decisions.BatchItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, applications.StatusApproved, items[0].Status)
}

func TestHandlerEvents(t *testing.T) {
	f := setup(t)
	srv := newServer(t, f)
	id := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/decisions/"+id.String()+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	publisher := notify.New(f.redis, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, publisher.Publish(ctx, notify.Event{
		ApplicationID:    id,
		ProcessingStatus: workflow.ProcessingDataCollection,
		Progress:         "Stage 1 (DataCollector) starting",
	}))
	require.NoError(t, publisher.Publish(ctx, notify.Event{
		ApplicationID:    id,
		ProcessingStatus: workflow.ProcessingCompleted,
		Status:           string(applications.StatusApproved),
	}))

	var data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
			data = append(data, line)
		}
	}

	require.Len(t, data, 2)
	assert.Contains(t, data[0], "Stage 1 (DataCollector) starting")
	assert.Contains(t, data[1], `"status":"APPROVED"`)
}
