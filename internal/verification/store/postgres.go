package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	"verifdesk/pkg/platform/sentinel"
	txcontext "verifdesk/pkg/platform/tx"
)

const uniqueViolation = "23505"

const selectColumns = `
	id, status, document_type, risk_level, priority, requested_at, assigned_to,
	source, location, estimated_processing_minutes, applicant, documents,
	verifications, notes, resolved_at, resolved_by, updated_at
`

// PostgresStore persists verification requests in PostgreSQL. Filterable
// fields are columns; nested collections are JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier returns the transaction carried by ctx, if any.
func (s *PostgresStore) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, request *models.VerificationRequest) error {
	row, err := toRow(request)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verification_requests (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.querier(ctx).ExecContext(ctx, query, row.args()...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert verification request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.VerificationID) (*models.VerificationRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_requests WHERE id = $1`
	request, err := scanRequest(s.querier(ctx).QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}
	return request, nil
}

// List returns requests in intake order, restricted to statuses when given.
func (s *PostgresStore) List(ctx context.Context, statuses ...models.Status) ([]*models.VerificationRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_requests`
	var args []any
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, st := range statuses {
			values[i] = st.String()
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(values))
	}
	query += ` ORDER BY seq`

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.VerificationRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		out = append(out, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification requests: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, validates, mutates and
// writes back in one transaction. When ctx already carries a transaction the
// caller owns commit and rollback.
func (s *PostgresStore) Execute(ctx context.Context, requestID id.VerificationID, validate func(*models.VerificationRequest) error, mutate func(*models.VerificationRequest) error) (*models.VerificationRequest, error) {
	var request *models.VerificationRequest
	err := txcontext.RunInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		request, err = s.execute(ctx, tx, requestID, validate, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, requestID id.VerificationID, validate func(*models.VerificationRequest) error, mutate func(*models.VerificationRequest) error) (*models.VerificationRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM verification_requests WHERE id = $1 FOR UPDATE`
	request, err := scanRequest(tx.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock verification request: %w", err)
	}

	if validate != nil {
		if err := validate(request); err != nil {
			return nil, err
		}
	}
	if err := mutate(request); err != nil {
		return nil, err
	}
	if request.ID != requestID {
		return nil, sentinel.ErrInvalidState
	}

	row, err := toRow(request)
	if err != nil {
		return nil, err
	}
	update := `
		UPDATE verification_requests SET
			status = $2,
			assigned_to = $3,
			documents = $4,
			verifications = $5,
			notes = $6,
			resolved_at = $7,
			resolved_by = $8,
			updated_at = $9
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		row.id,
		row.status,
		row.assignedTo,
		row.documents,
		row.verifications,
		row.notes,
		row.resolvedAt,
		row.resolvedBy,
		row.updatedAt,
	); err != nil {
		return nil, fmt.Errorf("update verification request: %w", err)
	}
	return request, nil
}

type requestRow struct {
	id                         string
	status                     string
	documentType               string
	riskLevel                  string
	priority                   int
	requestedAt                time.Time
	assignedTo                 string
	source                     string
	location                   string
	estimatedProcessingMinutes int
	applicant                  []byte
	documents                  []byte
	verifications              []byte
	notes                      []byte
	resolvedAt                 sql.NullTime
	resolvedBy                 string
	updatedAt                  time.Time
}

func (r *requestRow) args() []any {
	return []any{
		r.id, r.status, r.documentType, r.riskLevel, r.priority, r.requestedAt, r.assignedTo,
		r.source, r.location, r.estimatedProcessingMinutes, r.applicant, r.documents,
		r.verifications, r.notes, r.resolvedAt, r.resolvedBy, r.updatedAt,
	}
}

func toRow(request *models.VerificationRequest) (*requestRow, error) {
	row := &requestRow{
		id:                         request.ID.String(),
		status:                     request.Status.String(),
		documentType:               string(request.DocumentType),
		riskLevel:                  string(request.RiskLevel),
		priority:                   request.Priority,
		requestedAt:                request.RequestedAt,
		assignedTo:                 request.AssignedTo.String(),
		source:                     string(request.Source),
		location:                   request.Location,
		estimatedProcessingMinutes: request.EstimatedProcessingMinutes,
		resolvedBy:                 request.ResolvedBy.String(),
		updatedAt:                  request.UpdatedAt,
	}
	if request.ResolvedAt != nil {
		row.resolvedAt = sql.NullTime{Time: *request.ResolvedAt, Valid: true}
	}
	var err error
	if row.applicant, err = json.Marshal(request.Applicant); err != nil {
		return nil, fmt.Errorf("encode applicant: %w", err)
	}
	if row.documents, err = marshalList(request.Documents); err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	if row.verifications, err = marshalList(request.Verifications); err != nil {
		return nil, fmt.Errorf("encode verifications: %w", err)
	}
	if row.notes, err = marshalList(request.Notes); err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}
	return row, nil
}

// marshalList encodes nil slices as [] so the JSONB columns stay arrays.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(sc scanner) (*models.VerificationRequest, error) {
	var row requestRow
	if err := sc.Scan(
		&row.id, &row.status, &row.documentType, &row.riskLevel, &row.priority, &row.requestedAt,
		&row.assignedTo, &row.source, &row.location, &row.estimatedProcessingMinutes, &row.applicant,
		&row.documents, &row.verifications, &row.notes, &row.resolvedAt, &row.resolvedBy, &row.updatedAt,
	); err != nil {
		return nil, err
	}

	request := &models.VerificationRequest{
		ID:                         id.VerificationID(row.id),
		DocumentType:               models.DocumentType(row.documentType),
		Status:                     models.Status(row.status),
		RiskLevel:                  models.RiskLevel(row.riskLevel),
		Priority:                   row.priority,
		RequestedAt:                row.requestedAt,
		AssignedTo:                 id.ReviewerID(row.assignedTo),
		Source:                     models.Source(row.source),
		Location:                   row.location,
		EstimatedProcessingMinutes: row.estimatedProcessingMinutes,
		ResolvedBy:                 id.ReviewerID(row.resolvedBy),
		UpdatedAt:                  row.updatedAt,
	}
	if row.resolvedAt.Valid {
		resolved := row.resolvedAt.Time
		request.ResolvedAt = &resolved
	}
	if err := json.Unmarshal(row.applicant, &request.Applicant); err != nil {
		return nil, fmt.Errorf("%w: applicant: %v", sentinel.ErrInvalidState, err)
	}
	if err := unmarshalList(row.documents, &request.Documents); err != nil {
		return nil, fmt.Errorf("%w: documents: %v", sentinel.ErrInvalidState, err)
	}
	if err := unmarshalList(row.verifications, &request.Verifications); err != nil {
		return nil, fmt.Errorf("%w: verifications: %v", sentinel.ErrInvalidState, err)
	}
	if err := unmarshalList(row.notes, &request.Notes); err != nil {
		return nil, fmt.Errorf("%w: notes: %v", sentinel.ErrInvalidState, err)
	}
	return request, nil
}

// unmarshalList leaves dst nil for empty arrays so round trips match the
// in-memory store.
func unmarshalList[T any](data []byte, dst *[]T) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) > 0 {
		*dst = items
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
