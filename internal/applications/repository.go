package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/pkg/pagination"
	"github.com/JaimeStill/underwriter/pkg/query"
	"github.com/JaimeStill/underwriter/pkg/repository"
)

const defaultRecentLimit = 10

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an application repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "applications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Application], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "EmploymentStatus")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryScalar[int](ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	apps, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanApplication)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	result := pagination.NewPageResult(apps, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Recent(ctx context.Context, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = r.pagination.Clamp(limit)

	q, args := query.NewBuilder(projection, defaultSort).Limit(limit).Build()

	apps, err := repository.QueryMany(ctx, r.db, q, args, scanApplication)
	if err != nil {
		return nil, fmt.Errorf("query recent applications: %w", err)
	}
	return apps, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Application, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanApplication)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) FindLatestByApplicant(ctx context.Context, name string) (*Application, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Fields: map[string]string{"applicant_name": "required"}}
	}

	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereFold("Name", &name).
		BuildSingleOrNull()

	a, err := repository.QueryOne(ctx, r.db, q, args, scanApplication)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Application, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Source == "" {
		cmd.Source = SourceAPI
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO applications(id, applicant_name, applicant_dob, age, income, employment_status,
			credit_score, dti_ratio, existing_debts, requested_credit, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + projection.ColumnNames()

	args := []any{
		uuid.New(),
		cmd.Name,
		cmd.DOB,
		cmd.Age,
		cmd.Income,
		cmd.EmploymentStatus,
		cmd.CreditScore,
		cmd.DTIRatio,
		cmd.ExistingDebts,
		cmd.RequestedCredit,
		cmd.Source,
		StatusPending,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Application, error) {
		return repository.QueryOne(ctx, tx, q, args, scanApplication)
	})
	if repository.IsConstraintViolation(err) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidApplication, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: insert: %w", ErrPersistence, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Info("application created", "id", a.ID, "source", a.Source)
	return &a, nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error {
	if !update.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidApplication, update.Status)
	}

	q := `
		UPDATE applications
		SET status = $2,
			decision_reason = CASE WHEN $2 = 'PROCESSING' THEN NULL ELSE COALESCE($3, decision_reason) END,
			decision_confidence = CASE WHEN $2 = 'PROCESSING' THEN NULL ELSE COALESCE($4, decision_confidence) END,
			updated_at = NOW()
		WHERE id = $1`

	err := repository.ExecExpectOne(ctx, r.db, q, id, update.Status, update.Reason, update.Confidence)
	if err != nil {
		return r.writeError("set status", err)
	}
	return nil
}

func (r *repo) SetAgentOutput(ctx context.Context, id uuid.UUID, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return fmt.Errorf("%w: agent output is not valid JSON", ErrInvalidApplication)
	}

	q := `
		UPDATE applications
		SET agent_output = $2::jsonb,
			updated_at = NOW()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, id, string(doc)); err != nil {
		return r.writeError("set agent output", err)
	}
	return nil
}

func (r *repo) Stats(ctx context.Context) (*Stats, error) {
	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'PROCESSING'),
			COUNT(*) FILTER (WHERE status = 'APPROVED'),
			COUNT(*) FILTER (WHERE status = 'DENIED'),
			COUNT(*) FILTER (WHERE status = 'REFER'),
			COUNT(*) FILTER (WHERE status = 'ERROR')
		FROM applications`

	var s Stats
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Total,
		&s.Pending,
		&s.Processing,
		&s.Approved,
		&s.Denied,
		&s.Refer,
		&s.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("query application stats: %w", err)
	}

	if s.Total > 0 {
		s.ApprovalRate = math.Round(float64(s.Approved)/float64(s.Total)*1000) / 10
	}
	return &s, nil
}

func (r *repo) writeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s: %w", ErrPersistence, op, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
