// Package chartstore keeps charts in PostgreSQL, one row per chart name with
// the JSON document as body.
package chartstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

var tracer = otel.Tracer("github.com/ha1tch/fcstm-toolkit/pkg/chartstore")

// ErrNotFound is returned when no chart has the requested name.
var ErrNotFound = errors.New("chart not found")

const schema = `
CREATE TABLE IF NOT EXISTS charts (
	name       TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	states     INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertChart = `INSERT INTO charts (name, body, states, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name) DO UPDATE
SET body = EXCLUDED.body, states = EXCLUDED.states, updated_at = now()`

const selectChart = `SELECT body FROM charts WHERE name = $1`

const listCharts = `SELECT name, states, updated_at FROM charts ORDER BY name`

const deleteChart = `DELETE FROM charts WHERE name = $1`

// Summary describes a stored chart without loading it.
type Summary struct {
	Name      string    `db:"name"`
	States    int       `db:"states"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Store reads and writes charts through a sqlx handle.
type Store struct {
	db  *sqlx.DB
	log *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New wraps an open database handle.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to PostgreSQL using dsn.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chart store: %w", err)
	}
	return New(db, opts...), nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the charts table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "chartstore.Migrate")
	defer span.End()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fail(span, fmt.Errorf("failed to create charts table: %w", describe(err)))
	}
	s.log.Debug("chart store migrated")
	return nil
}

// Save inserts the chart or replaces the stored chart of the same name.
func (s *Store) Save(ctx context.Context, c *chart.Statechart) error {
	ctx, span := tracer.Start(ctx, "chartstore.Save", trace.WithAttributes(attribute.String("chart", c.Name)))
	defer span.End()

	body, err := chartfile.ToJSON(c, false)
	if err != nil {
		return fail(span, fmt.Errorf("failed to encode chart %q: %w", c.Name, err))
	}
	if _, err := s.db.ExecContext(ctx, upsertChart, c.Name, body, c.NumStates()); err != nil {
		return fail(span, fmt.Errorf("failed to save chart %q: %w", c.Name, describe(err)))
	}
	s.log.Info("chart saved", "chart", c.Name, "states", c.NumStates(), "bytes", len(body))
	return nil
}

// Load fetches a chart by name. Imported references that do not resolve are
// kept dangling for LegalityCheck, as with files.
func (s *Store) Load(ctx context.Context, name string, opts ...chart.Option) (*chart.Statechart, error) {
	ctx, span := tracer.Start(ctx, "chartstore.Load", trace.WithAttributes(attribute.String("chart", name)))
	defer span.End()

	var body []byte
	if err := s.db.GetContext(ctx, &body, selectChart, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fail(span, fmt.Errorf("%w: %q", ErrNotFound, name))
		}
		return nil, fail(span, fmt.Errorf("failed to load chart %q: %w", name, describe(err)))
	}
	c, err := chartfile.ParseJSON(body, opts...)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to decode chart %q: %w", name, err))
	}
	s.log.Debug("chart loaded", "chart", name, "states", c.NumStates())
	return c, nil
}

// List returns a summary of every stored chart ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "chartstore.List")
	defer span.End()

	var out []Summary
	if err := s.db.SelectContext(ctx, &out, listCharts); err != nil {
		return nil, fail(span, fmt.Errorf("failed to list charts: %w", describe(err)))
	}
	span.SetAttributes(attribute.Int("charts", len(out)))
	return out, nil
}

// Delete removes a chart by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "chartstore.Delete", trace.WithAttributes(attribute.String("chart", name)))
	defer span.End()

	res, err := s.db.ExecContext(ctx, deleteChart, name)
	if err != nil {
		return fail(span, fmt.Errorf("failed to delete chart %q: %w", name, describe(err)))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fail(span, fmt.Errorf("failed to delete chart %q: %w", name, err))
	}
	if n == 0 {
		return fail(span, fmt.Errorf("%w: %q", ErrNotFound, name))
	}
	s.log.Info("chart deleted", "chart", name)
	return nil
}

// describe adds the PostgreSQL condition name to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s): %w", pqErr.Code.Name(), pqErr.Code, err)
	}
	return err
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
