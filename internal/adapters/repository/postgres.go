package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"golang.org/x/sync/errgroup"

	"github.com/okian/scorecard/internal/domain/model"
)

const (
	defaultSchema       = "public"
	defaultQueryTimeout = 15 * time.Second
)

var schemaName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresSource reads every collection from Postgres. Dates are stored as
// text exactly as they arrived from the operational sheets.
type PostgresSource struct {
	db      *sql.DB
	schema  string
	timeout time.Duration
}

// NewPostgresSource opens a pool for url and checks connectivity.
func NewPostgresSource(ctx context.Context, url string, opts ...PostgresOption) (*PostgresSource, error) {
	s := &PostgresSource{schema: defaultSchema, timeout: defaultQueryTimeout}
	for _, opt := range opts {
		opt(s)
	}
	schema, err := SanitizeSchema(s.schema)
	if err != nil {
		return nil, err
	}
	s.schema = schema

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	s.db = db
	return s, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// SanitizeSchema validates a schema identifier before it is interpolated
// into SQL.
func SanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !schemaName.MatchString(value) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchema, value)
	}
	return value, nil
}

// Load fetches the five collections concurrently.
func (s *PostgresSource) Load(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var snap model.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Users, err = s.users(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Delegations, err = s.delegations(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Checklists, err = s.checklists(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Orders, err = s.orders(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Steps, err = s.steps(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return snap, nil
}

func (s *PostgresSource) users(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT username, COALESCE(name, ''), COALESCE(role, '')
		FROM %s.users ORDER BY position, username`, s.schema))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Username, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresSource) delegations(ctx context.Context) ([]model.Delegation, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, COALESCE(assignee_name, ''), COALESCE(doer_name, ''), COALESCE(status, ''),
		       COALESCE(due_date, ''), COALESCE(updated_at, ''), COALESCE(description, '')
		FROM %s.delegations ORDER BY id`, s.schema))
	if err != nil {
		return nil, fmt.Errorf("query delegations: %w", err)
	}
	defer rows.Close()

	var out []model.Delegation
	for rows.Next() {
		var d model.Delegation
		if err := rows.Scan(&d.ID, &d.AssigneeName, &d.DoerName, &d.Status, &d.DueDate, &d.UpdatedAt, &d.Description); err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresSource) checklists(ctx context.Context) ([]model.ChecklistItem, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, COALESCE(assignee_name, ''), COALESCE(doer_name, ''), COALESCE(status, ''),
		       COALESCE(due_date, ''), COALESCE(updated_at, ''), COALESCE(description, ''),
		       COALESCE(frequency, '')
		FROM %s.checklist ORDER BY id`, s.schema))
	if err != nil {
		return nil, fmt.Errorf("query checklist: %w", err)
	}
	defer rows.Close()

	var out []model.ChecklistItem
	for rows.Next() {
		var c model.ChecklistItem
		if err := rows.Scan(&c.ID, &c.AssigneeName, &c.DoerName, &c.Status, &c.DueDate, &c.UpdatedAt, &c.Description, &c.Frequency); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// orders joins each order with its items; items are jsonb documents.
func (s *PostgresSource) orders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT o.id, COALESCE(o.party_name, ''), i.data
		FROM %[1]s.orders o
		LEFT JOIN %[1]s.order_items i ON i.order_id = o.id
		ORDER BY o.id, i.position`, s.schema))
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var (
			id, party string
			raw       []byte
		)
		if err := rows.Scan(&id, &party, &raw); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, model.Order{ID: id, PartyName: party})
		}
		if raw == nil {
			continue
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, decodeItem(raw))
	}
	return out, rows.Err()
}

func (s *PostgresSource) steps(ctx context.Context) ([]model.StepConfig, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT step, COALESCE(step_name, ''), COALESCE(doer_name, '')
		FROM %s.step_config ORDER BY step`, s.schema))
	if err != nil {
		return nil, fmt.Errorf("query step config: %w", err)
	}
	defer rows.Close()

	var out []model.StepConfig
	for rows.Next() {
		var c model.StepConfig
		if err := rows.Scan(&c.Step, &c.StepName, &c.DoerName); err != nil {
			return nil, fmt.Errorf("scan step config: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// EnsureSchema creates the scorecard tables when they are missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS %[1]s`,
		`CREATE TABLE IF NOT EXISTS %[1]s.users (
			username text PRIMARY KEY,
			name text,
			role text,
			position integer NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.delegations (
			id text PRIMARY KEY,
			assignee_name text,
			doer_name text,
			status text,
			due_date text,
			updated_at text,
			description text
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.checklist (
			id text PRIMARY KEY,
			assignee_name text,
			doer_name text,
			status text,
			due_date text,
			updated_at text,
			description text,
			frequency text
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.orders (
			id text PRIMARY KEY,
			party_name text
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.order_items (
			order_id text NOT NULL REFERENCES %[1]s.orders(id) ON DELETE CASCADE,
			position integer NOT NULL,
			data jsonb NOT NULL,
			PRIMARY KEY (order_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.step_config (
			step integer PRIMARY KEY,
			step_name text,
			doer_name text NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(stmt, s.schema)); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Replace swaps the stored collections for snap in one transaction.
func (s *PostgresSource) Replace(ctx context.Context, snap model.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"order_items", "orders", "delegations", "checklist", "step_config", "users"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s.%s`, s.schema, table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for i, u := range snap.Users {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.users (username, name, role, position) VALUES ($1,$2,$3,$4)`, s.schema),
			u.Username, nullString(u.Name), nullString(u.Role), i); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
	}
	for _, d := range snap.Delegations {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s.delegations (id, assignee_name, doer_name, status, due_date, updated_at, description)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`, s.schema),
			d.ID, d.AssigneeName, nullString(d.DoerName), d.Status, nullString(d.DueDate), nullString(d.UpdatedAt), nullString(d.Description)); err != nil {
			return fmt.Errorf("insert delegation: %w", err)
		}
	}
	for _, c := range snap.Checklists {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s.checklist (id, assignee_name, doer_name, status, due_date, updated_at, description, frequency)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, s.schema),
			c.ID, c.AssigneeName, nullString(c.DoerName), c.Status, nullString(c.DueDate), nullString(c.UpdatedAt), nullString(c.Description), nullString(c.Frequency)); err != nil {
			return fmt.Errorf("insert checklist item: %w", err)
		}
	}
	for _, o := range snap.Orders {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.orders (id, party_name) VALUES ($1,$2)`, s.schema),
			o.ID, nullString(o.PartyName)); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i, item := range o.Items {
			var raw []byte
			if raw, err = json.Marshal(item); err != nil {
				return fmt.Errorf("encode order item: %w", err)
			}
			if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.order_items (order_id, position, data) VALUES ($1,$2,$3)`, s.schema),
				o.ID, i, raw); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
	}
	for _, c := range snap.Steps {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.step_config (step, step_name, doer_name) VALUES ($1,$2,$3)`, s.schema),
			c.Step, nullString(c.StepName), c.DoerName); err != nil {
			return fmt.Errorf("insert step config: %w", err)
		}
	}
	return tx.Commit()
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
