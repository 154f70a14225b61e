package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // Register sqlite driver

	"github.com/roadsense/autobrake/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS brake_commands (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			time_to_collision_s REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS operators (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT,
			role TEXT DEFAULT 'viewer',
			password TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}

	// Seed default operator
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM operators").Scan(&count); err == nil && count == 0 {
		hash, _ := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		_, _ = db.Exec(`INSERT INTO operators (id, email, name, role, password) VALUES ('admin', 'admin@roadsense.io', 'Admin', 'admin', ?)`, string(hash))
	}

	return nil
}

// InsertCommand persists a published brake command and returns the
// stored record.
func (s *Store) InsertCommand(ctx context.Context, agentID string, cmd models.BrakeCommand) (*models.CommandRecord, error) {
	rec := &models.CommandRecord{
		ID:               uuid.NewString(),
		AgentID:          agentID,
		TimeToCollisionS: cmd.TimeToCollisionS,
		CreatedAt:        time.Now().UTC(),
	}
	query := `INSERT INTO brake_commands (id, agent_id, time_to_collision_s, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.AgentID, rec.TimeToCollisionS, rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert command: %w", err)
	}
	return rec, nil
}

// ListCommands returns the most recent brake commands, newest first.
func (s *Store) ListCommands(ctx context.Context, limit int) ([]models.CommandRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, agent_id, time_to_collision_s, created_at FROM brake_commands ORDER BY created_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	var records []models.CommandRecord
	for rows.Next() {
		var rec models.CommandRecord
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.TimeToCollisionS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// InsertEvent appends a received sensor event to the event log.
func (s *Store) InsertEvent(ctx context.Context, env models.Envelope) error {
	query := `INSERT INTO events (id, agent_id, type, payload, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), env.AgentID, env.Type, string(env.Payload), env.Time)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// CountEvents returns the number of logged events of the given type, or
// of all types when eventType is empty.
func (s *Store) CountEvents(ctx context.Context, eventType string) (int, error) {
	var count int
	var err error
	if eventType == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, eventType).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetOperatorByEmail returns the operator with the given email, or nil
// if none exists.
func (s *Store) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := `SELECT id, email, name, role, password, created_at FROM operators WHERE email = ?`
	row := s.db.QueryRowContext(ctx, query, email)

	op := &models.Operator{}
	if err := row.Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.Password, &op.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}

// CreateOperator inserts a new operator with a bcrypt-hashed password.
func (s *Store) CreateOperator(ctx context.Context, op *models.Operator, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	query := `INSERT INTO operators (id, email, name, role, password, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, op.ID, op.Email, op.Name, op.Role, string(hash), time.Now().UTC())
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
