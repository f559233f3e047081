// Package repository archives generated documents in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS rfq_documents (
	id          UUID PRIMARY KEY,
	kind        VARCHAR(16)  NOT NULL,
	category    VARCHAR(64)  NOT NULL,
	title       TEXT         NOT NULL,
	budget      TEXT         NOT NULL,
	document    JSONB        NOT NULL,
	verdict     JSONB,
	audited     BOOLEAN      NOT NULL DEFAULT FALSE,
	refined     BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rfq_documents_category ON rfq_documents (category, created_at DESC);
`

// Record is one archived document.
type Record struct {
	ID        string                  `json:"id"`
	Category  models.Category         `json:"category"`
	Document  models.DocumentEnvelope `json:"document"`
	Verdict   *models.AuditVerdict    `json:"verdict,omitempty"`
	Audited   bool                    `json:"audited"`
	Refined   bool                    `json:"refined"`
	CreatedAt time.Time               `json:"createdAt"`
}

type DocumentRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDocumentRepository(db *sql.DB, log logger.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "document-repository"}),
	}
}

// EnsureSchema creates the archive table when missing.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure rfq_documents schema: %w", err)
	}
	return nil
}

// Save inserts rec, assigning an ID and creation time when unset, and returns the ID.
func (r *DocumentRepository) Save(ctx context.Context, rec *Record) (string, error) {
	doc, err := rec.Document.Document()
	if err != nil {
		return "", apperrors.NewInvalidInputError(err.Error())
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	documentJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return "", apperrors.NewArchiveFailedError(err)
	}
	var verdictJSON interface{}
	if rec.Verdict != nil {
		b, err := json.Marshal(rec.Verdict)
		if err != nil {
			return "", apperrors.NewArchiveFailedError(err)
		}
		verdictJSON = b
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rfq_documents (
			id, kind, category, title, budget, document,
			verdict, audited, refined, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID,
		string(doc.Kind()),
		string(rec.Category),
		doc.Title(),
		doc.Budget(),
		documentJSON,
		verdictJSON,
		rec.Audited,
		rec.Refined,
		rec.CreatedAt,
	)
	if err != nil {
		return "", apperrors.NewArchiveFailedError(err)
	}

	r.logger.Info("document archived", map[string]interface{}{
		"documentId": rec.ID,
		"kind":       string(doc.Kind()),
		"category":   string(rec.Category),
	})
	return rec.ID, nil
}

const selectColumns = `SELECT id, category, document, verdict, audited, refined, created_at FROM rfq_documents`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec          Record
		category     string
		documentJSON []byte
		verdictJSON  []byte
	)
	if err := row.Scan(&rec.ID, &category, &documentJSON, &verdictJSON, &rec.Audited, &rec.Refined, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Category = models.Category(category)
	if err := json.Unmarshal(documentJSON, &rec.Document); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", rec.ID, err)
	}
	if len(verdictJSON) > 0 {
		rec.Verdict = &models.AuditVerdict{}
		if err := json.Unmarshal(verdictJSON, rec.Verdict); err != nil {
			return nil, fmt.Errorf("decode verdict %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// Get loads the record with id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewDocumentNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewArchiveFailedError(err)
	}
	return rec, nil
}

// ListByCategory returns the newest records of category, at most limit.
func (r *DocumentRepository) ListByCategory(ctx context.Context, category models.Category, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE category = $1 ORDER BY created_at DESC LIMIT $2`, string(category), limit)
	if err != nil {
		return nil, apperrors.NewArchiveFailedError(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewArchiveFailedError(err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewArchiveFailedError(err)
	}
	return out, nil
}
