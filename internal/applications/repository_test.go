package applications_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/pkg/pagination"
)

var columns = []string{
	"id", "applicant_name", "applicant_dob", "age", "income", "employment_status",
	"credit_score", "dti_ratio", "existing_debts", "requested_credit", "source", "status",
	"decision_reason", "decision_confidence", "agent_output", "created_at", "updated_at",
}

var created = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T) (applications.System, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := applications.New(db, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	return sys, mock
}

func row(id uuid.UUID, status string, reason, confidence, output driver.Value) []driver.Value {
	return []driver.Value{
		id.String(), "Ada Lovelace", time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC), int64(40), "85000.00", "Full-time",
		int64(780), "0.25", "12000.00", "15000.00", "web", status,
		reason, confidence, output, created, created,
	}
}

func TestFind(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM public.applications a WHERE a.id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(id, "APPROVED", "strong profile", 90.0, []byte(`{"processing_status":"completed"}`))...))

	app, err := sys.Find(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, app.ID)
	assert.Equal(t, applications.StatusApproved, app.Status)
	assert.Equal(t, applications.SourceWeb, app.Source)
	assert.Equal(t, "1985-04-12", *app.DOB)
	assert.True(t, app.Income.Equal(decimal.NewFromInt(85000)))
	assert.Equal(t, "strong profile", *app.Reason)
	assert.Equal(t, 90.0, *app.Confidence)
	assert.JSONEq(t, `{"processing_status":"completed"}`, string(app.AgentOutput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNotFound(t *testing.T) {
	sys, mock := setup(t)

	mock.ExpectQuery("SELECT .+ FROM public.applications a").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := sys.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, applications.ErrNotFound)
}

func TestFindPendingHasNoDecision(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM public.applications a").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(id, "PENDING", nil, nil, nil)...))

	app, err := sys.Find(context.Background(), id)
	require.NoError(t, err)

	assert.Nil(t, app.Reason)
	assert.Nil(t, app.Confidence)
	assert.Nil(t, app.AgentOutput)
}

func TestFindLatestByApplicant(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(a.applicant_name) = LOWER($1) ORDER BY a.created_at DESC LIMIT 1")).
		WithArgs("ADA LOVELACE").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(id, "REFER", nil, nil, nil)...))

	app, err := sys.FindLatestByApplicant(context.Background(), "  ADA LOVELACE ")
	require.NoError(t, err)
	assert.Equal(t, id, app.ID)

	_, err = sys.FindLatestByApplicant(context.Background(), "   ")
	var verr *applications.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["applicant_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecent(t *testing.T) {
	sys, mock := setup(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY a.created_at DESC LIMIT 10")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(row(uuid.New(), "DENIED", nil, nil, nil)...).
			AddRow(row(uuid.New(), "PENDING", nil, nil, nil)...))

	apps, err := sys.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	sys, mock := setup(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM public.applications a WHERE a.status IN ($1)")).
		WithArgs("APPROVED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 20 OFFSET 0")).
		WithArgs("APPROVED").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(uuid.New(), "APPROVED", nil, nil, nil)...))

	result, err := sys.List(context.Background(), pagination.PageRequest{}, applications.Filters{Status: []applications.Status{applications.StatusApproved}})
	require.NoError(t, err)

	assert.Equal(t, 21, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.Len(t, result.Data, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO applications").
		WithArgs(sqlmock.AnyArg(), "Ada Lovelace", nil, 40, sqlmock.AnyArg(), "Full-time",
			780, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "api", "PENDING").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(id, "PENDING", nil, nil, nil)...))
	mock.ExpectCommit()

	app, err := sys.Create(context.Background(), applications.CreateCommand{Applicant: validApplicant()})
	require.NoError(t, err)

	assert.Equal(t, applications.StatusPending, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCheckViolation(t *testing.T) {
	sys, mock := setup(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO applications").
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "applications_dti_ratio_check"})
	mock.ExpectRollback()

	_, err := sys.Create(context.Background(), applications.CreateCommand{Applicant: validApplicant()})

	assert.ErrorIs(t, err, applications.ErrInvalidApplication)
	assert.NotErrorIs(t, err, applications.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFiltersFromQuery(t *testing.T) {
	f := applications.FiltersFromQuery(url.Values{"status": {"approved, refer,"}, "name": {"ada"}})

	assert.Equal(t, []applications.Status{applications.StatusApproved, applications.StatusRefer}, f.Status)
	require.NotNil(t, f.Name)
	assert.Equal(t, "ada", *f.Name)
	assert.Nil(t, f.Source)
}

func TestCreateRejectsInvalid(t *testing.T) {
	sys, mock := setup(t)

	a := validApplicant()
	a.CreditScore = 900

	_, err := sys.Create(context.Background(), applications.CreateCommand{Applicant: a})

	assert.ErrorIs(t, err, applications.ErrInvalidApplication)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatus(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE applications").
		WithArgs(id, "APPROVED", "strong profile", 90.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE applications").
		WithArgs(id, "PROCESSING", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, sys.SetStatus(context.Background(), id, applications.StatusUpdate{
		Status:     applications.StatusApproved,
		Reason:     ptr("strong profile"),
		Confidence: ptr(90.0),
	}))
	require.NoError(t, sys.SetStatus(context.Background(), id, applications.StatusUpdate{
		Status: applications.StatusProcessing,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusErrors(t *testing.T) {
	sys, mock := setup(t)

	err := sys.SetStatus(context.Background(), uuid.New(), applications.StatusUpdate{Status: "MAYBE"})
	assert.ErrorIs(t, err, applications.ErrInvalidApplication)

	mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 0))
	err = sys.SetStatus(context.Background(), uuid.New(), applications.StatusUpdate{Status: applications.StatusError})
	assert.ErrorIs(t, err, applications.ErrPersistence)
	assert.ErrorIs(t, err, applications.ErrNotFound)

	mock.ExpectExec("UPDATE applications").WillReturnError(sql.ErrConnDone)
	err = sys.SetStatus(context.Background(), uuid.New(), applications.StatusUpdate{Status: applications.StatusError})
	assert.ErrorIs(t, err, applications.ErrPersistence)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestSetAgentOutputIdempotent(t *testing.T) {
	sys, mock := setup(t)
	id := uuid.New()
	doc := json.RawMessage(`{"processing_status":"step2_risk_assessment","progress":["a","b"]}`)

	for range 2 {
		mock.ExpectExec(regexp.QuoteMeta("SET agent_output = $2::jsonb")).
			WithArgs(id, string(doc)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, sys.SetAgentOutput(context.Background(), id, doc))
	require.NoError(t, sys.SetAgentOutput(context.Background(), id, doc))
	assert.NoError(t, mock.ExpectationsWereMet())

	err := sys.SetAgentOutput(context.Background(), id, json.RawMessage(`{"unterminated`))
	assert.ErrorIs(t, err, applications.ErrInvalidApplication)
}

func TestStats(t *testing.T) {
	sys, mock := setup(t)

	mock.ExpectQuery("SELECT .+ FROM applications").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "processing", "approved", "denied", "refer", "error"}).
			AddRow(8, 1, 1, 3, 2, 1, 0))

	stats, err := sys.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Total)
	assert.Equal(t, 3, stats.Approved)
	assert.Equal(t, 37.5, stats.ApprovalRate)
}
