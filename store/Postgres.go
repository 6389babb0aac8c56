package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/modelstore"
	"github.com/samuelfneumann/gotrain/train"
)

// schema bootstraps the persisted layout. Statements are idempotent
// so every process can run them unconditionally at startup.
const schema = `
CREATE TABLE IF NOT EXISTS model_configs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	dataset_id  TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	layers_json JSONB NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS training_sessions (
	session_id    TEXT PRIMARY KEY,
	model_id      TEXT NOT NULL,
	dataset_id    TEXT NOT NULL,
	status        TEXT NOT NULL,
	total_epochs  INTEGER NOT NULL,
	current_epoch INTEGER NOT NULL DEFAULT 0,
	start_time    TIMESTAMPTZ NOT NULL,
	end_time      TIMESTAMPTZ,
	error_message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS training_metrics (
	session_id TEXT NOT NULL
		REFERENCES training_sessions (session_id) ON DELETE CASCADE,
	epoch      INTEGER NOT NULL,
	loss       DOUBLE PRECISION NOT NULL,
	accuracy   DOUBLE PRECISION,
	timestamp  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, epoch)
);
`

// Postgres implements Store over a Postgres database through
// database/sql and lib/pq.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to the database at url, verifies the
// connection, and bootstraps the schema.
func NewPostgres(ctx context.Context, url string,
	logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("newPostgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("newPostgres: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("newPostgres: bootstrap schema: %w", err)
	}

	logger.Info("session store connected")
	return &Postgres{db: db, logger: logger}, nil
}

// CreateSession records a freshly admitted session.
func (p *Postgres) CreateSession(ctx context.Context,
	s train.Session) error {
	const q = `
		INSERT INTO training_sessions (session_id, model_id,
			dataset_id, status, total_epochs, current_epoch,
			start_time, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := p.db.ExecContext(ctx, q, s.ID, s.ModelID, s.DatasetID,
		string(s.Status), s.TotalEpochs, s.CurrentEpoch, s.StartTime,
		s.ErrorMessage)
	if err != nil {
		return fmt.Errorf("createSession: %v: %w", s.ID, err)
	}
	return nil
}

// AppendMetric records one finished epoch.
func (p *Postgres) AppendMetric(ctx context.Context, sessionID string,
	m train.Metric) error {
	const q = `
		INSERT INTO training_metrics (session_id, epoch, loss,
			accuracy, timestamp)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := p.db.ExecContext(ctx, q, sessionID, m.Epoch, m.Loss,
		nullFloat(m.Accuracy), m.Timestamp)
	if err != nil {
		return fmt.Errorf("appendMetric: %v epoch %d: %w", sessionID,
			m.Epoch, err)
	}
	return nil
}

// UpdateStatus records a lifecycle transition.
func (p *Postgres) UpdateStatus(ctx context.Context,
	s train.Session) error {
	const q = `
		UPDATE training_sessions
		SET status = $2, current_epoch = $3, end_time = $4,
			error_message = $5
		WHERE session_id = $1`

	_, err := p.db.ExecContext(ctx, q, s.ID, string(s.Status),
		s.CurrentEpoch, nullTime(s.EndTime), s.ErrorMessage)
	if err != nil {
		return fmt.Errorf("updateStatus: %v: %w", s.ID, err)
	}
	return nil
}

// LoadSession rebuilds a session snapshot from its persisted rows.
func (p *Postgres) LoadSession(ctx context.Context,
	sessionID string) (train.Session, error) {
	const q = `
		SELECT model_id, dataset_id, status, total_epochs,
			current_epoch, start_time, end_time, error_message
		FROM training_sessions
		WHERE session_id = $1`

	var (
		s   = train.Session{ID: sessionID, Metrics: []train.Metric{}}
		end sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, q, sessionID).Scan(&s.ModelID,
		&s.DatasetID, &s.Status, &s.TotalEpochs, &s.CurrentEpoch,
		&s.StartTime, &end, &s.ErrorMessage)
	if err != nil {
		return train.Session{}, fmt.Errorf("loadSession: %v: %w",
			sessionID, err)
	}
	if end.Valid {
		t := end.Time
		s.EndTime = &t
	}
	s.PollHint = train.PollInterval(s.Status)

	const qm = `
		SELECT epoch, loss, accuracy, timestamp
		FROM training_metrics
		WHERE session_id = $1
		ORDER BY epoch`

	rows, err := p.db.QueryContext(ctx, qm, sessionID)
	if err != nil {
		return train.Session{}, fmt.Errorf("loadSession: %v metrics: %w",
			sessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m   train.Metric
			acc sql.NullFloat64
		)
		if err := rows.Scan(&m.Epoch, &m.Loss, &acc,
			&m.Timestamp); err != nil {
			return train.Session{}, fmt.Errorf(
				"loadSession: %v metrics: %w", sessionID, err)
		}
		if acc.Valid {
			a := acc.Float64
			m.Accuracy = &a
		}
		s.Metrics = append(s.Metrics, m)
	}
	if err := rows.Err(); err != nil {
		return train.Session{}, fmt.Errorf("loadSession: %v metrics: %w",
			sessionID, err)
	}
	return s, nil
}

// SaveModelConfig upserts a model configuration.
func (p *Postgres) SaveModelConfig(ctx context.Context,
	cfg modelstore.Config) error {
	layers, err := json.Marshal(cfg.Layers)
	if err != nil {
		return fmt.Errorf("saveModelConfig: %v: %w", cfg.ID, err)
	}

	const q = `
		INSERT INTO model_configs (id, name, dataset_id, description,
			layers_json, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
			layers_json = EXCLUDED.layers_json,
			status = EXCLUDED.status`

	_, err = p.db.ExecContext(ctx, q, cfg.ID, cfg.Name, cfg.DatasetID,
		cfg.Description, layers, cfg.Status, cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("saveModelConfig: %v: %w", cfg.ID, err)
	}
	return nil
}

// LoadModelConfigs returns every persisted model configuration,
// oldest first.
func (p *Postgres) LoadModelConfigs(ctx context.Context) (
	[]modelstore.Config, error) {
	const q = `
		SELECT id, name, dataset_id, description, layers_json, status,
			created_at
		FROM model_configs
		ORDER BY created_at`

	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("loadModelConfigs: %w", err)
	}
	defer rows.Close()

	var configs []modelstore.Config
	for rows.Next() {
		var (
			cfg    modelstore.Config
			layers []byte
		)
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.DatasetID,
			&cfg.Description, &layers, &cfg.Status,
			&cfg.CreatedAt); err != nil {
			return nil, fmt.Errorf("loadModelConfigs: %w", err)
		}
		if err := json.Unmarshal(layers, &cfg.Layers); err != nil {
			return nil, fmt.Errorf("loadModelConfigs: %v layers: %w",
				cfg.ID, err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadModelConfigs: %w", err)
	}
	return configs, nil
}

// MarkInterrupted fails every session a previous process left
// non-terminal.
func (p *Postgres) MarkInterrupted(ctx context.Context) (int64, error) {
	const q = `
		UPDATE training_sessions
		SET status = $1, error_message = $2, end_time = NOW()
		WHERE status IN ($3, $4, $5)`

	res, err := p.db.ExecContext(ctx, q, string(train.Failed),
		"process restart", string(train.Pending), string(train.Running),
		string(train.Paused))
	if err != nil {
		return 0, fmt.Errorf("markInterrupted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("markInterrupted: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// nullFloat adapts an optional accuracy to its SQL representation.
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// nullTime adapts an optional timestamp to its SQL representation.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
