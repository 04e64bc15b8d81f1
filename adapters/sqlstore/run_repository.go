package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"featurelab/domain/core"
	"featurelab/domain/run"
	"featurelab/internal/errors"
	"featurelab/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository over sqlx
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a run history repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// runRow is the stored shape of a run: messages as JSON text, time as unix millis
type runRow struct {
	run.Record
	MessagesJSON string `db:"messages"`
	CreatedAtMS  int64  `db:"created_at"`
}

const runColumns = `id, session_id, dataset, row_count, feature_count, reduction, components,
	algorithm, clusters, noise_count, seed, fingerprint, messages, created_at`

func (row runRow) record() (*run.Record, error) {
	rec := row.Record
	if row.MessagesJSON != "" {
		if err := json.Unmarshal([]byte(row.MessagesJSON), &rec.Messages); err != nil {
			return nil, errors.Wrap(err, "failed to decode run messages")
		}
	}
	rec.CreatedAt = time.UnixMilli(row.CreatedAtMS).UTC()
	return &rec, nil
}

// Create stores a run
func (r *RunRepositoryImpl) Create(ctx context.Context, record *run.Record) error {
	if record.ID.IsEmpty() {
		record.ID = core.NewID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	messages, err := json.Marshal(record.Messages)
	if err != nil {
		return errors.Wrap(err, "failed to encode run messages")
	}
	row := runRow{Record: *record, MessagesJSON: string(messages), CreatedAtMS: record.CreatedAt.UnixMilli()}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO run_history (`+runColumns+`)
		VALUES (:id, :session_id, :dataset, :row_count, :feature_count, :reduction, :components,
			:algorithm, :clusters, :noise_count, :seed, :fingerprint, :messages, :created_at)
	`, row)
	if err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to insert run")
	}
	return nil
}

// GetByID retrieves a run
func (r *RunRepositoryImpl) GetByID(ctx context.Context, id core.ID) (*run.Record, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+runColumns+` FROM run_history WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to load run")
	}
	return row.record()
}

// List returns the most recent runs first
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*run.Record, error) {
	return r.list(ctx, "", nil, limit)
}

// ListBySession returns the runs of one session, most recent first
func (r *RunRepositoryImpl) ListBySession(ctx context.Context, sessionID core.ID, limit int) ([]*run.Record, error) {
	return r.list(ctx, " WHERE session_id = ?", []interface{}{sessionID}, limit)
}

func (r *RunRepositoryImpl) list(ctx context.Context, where string, args []interface{}, limit int) ([]*run.Record, error) {
	query := `SELECT ` + runColumns + ` FROM run_history` + where + ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to list runs")
	}

	records := make([]*run.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
