package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-systems/parley-stack/hub/internal/models"
)

const queryTimeout = 5 * time.Second

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to Postgres and verifies the connection.
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if room.ID == "" {
		id, _ := uuid.NewV7()
		room.ID = id.String()
	}
	if room.Status == "" {
		room.Status = models.RoomStatusIdle
	}

	query := `
		INSERT INTO rooms (id, name, topic, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`

	_, err := r.pool.Exec(ctx, query, room.ID, room.Name, room.Topic, room.Status, room.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrRoomExists
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, name, topic, status, created_by, created_at, updated_at, archived_at
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Topic,
		&room.Status,
		&room.CreatedBy,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.ArchivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return &room, nil
}

func (r *PostgresRepository) ListRooms(ctx context.Context, includeArchived bool) ([]*models.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, name, topic, status, created_by, created_at, updated_at, archived_at
		FROM rooms
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*models.Room, 0)
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Topic,
			&room.Status,
			&room.CreatedBy,
			&room.CreatedAt,
			&room.UpdatedAt,
			&room.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

func (r *PostgresRepository) ArchiveRoom(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE rooms
		SET archived_at = NOW(), status = $2, updated_at = NOW()
		WHERE id = $1 AND archived_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, id, models.RoomStatusClosed)
	if err != nil {
		return fmt.Errorf("failed to archive room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the room does not exist or it is already archived.
		if _, err := r.GetRoom(ctx, id); err != nil {
			return err
		}
		return ErrRoomArchived
	}

	return nil
}

func (r *PostgresRepository) AppendStatus(ctx context.Context, update *models.StatusUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if update.ID == "" {
		id, _ := uuid.NewV7()
		update.ID = id.String()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the room row so concurrent transitions serialize.
	var archivedAt *time.Time
	err = tx.QueryRow(ctx,
		`SELECT archived_at FROM rooms WHERE id = $1 FOR UPDATE`,
		update.RoomID,
	).Scan(&archivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to lock room: %w", err)
	}
	if archivedAt != nil {
		return ErrRoomArchived
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO status_updates (id, room_id, status, actor, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, update.ID, update.RoomID, update.Status, update.Actor, update.Note)
	if err != nil {
		return fmt.Errorf("failed to append status: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE rooms SET status = $2, updated_at = NOW() WHERE id = $1
	`, update.RoomID, update.Status)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status: %w", err)
	}

	return nil
}

func (r *PostgresRepository) StatusHistory(ctx context.Context, roomID string, limit int) ([]*models.StatusUpdate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, room_id, status, actor, note, created_at
		FROM status_updates
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	updates := make([]*models.StatusUpdate, 0, limit)
	for rows.Next() {
		var u models.StatusUpdate
		if err := rows.Scan(&u.ID, &u.RoomID, &u.Status, &u.Actor, &u.Note, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status update: %w", err)
		}
		updates = append(updates, &u)
	}

	return updates, rows.Err()
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID == "" {
		id, _ := uuid.NewV7()
		user.ID = id.String()
	}

	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
