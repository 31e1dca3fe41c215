package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loudtogether/backend/internal/models"
)

const sessionColumns = "id, name, source_url, admin_name, participants, position_seconds, is_playing, created_at"

// Store is the authoritative session record, backed by PostgreSQL.
// Single-step mutations run as one statement and the departure transition
// as one transaction, so concurrent readers never observe a partial write.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a session store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new session. Returns ErrDuplicateName when the unique
// session name collides.
func (s *Store) Create(ctx context.Context, sess *models.Session) error {
	const q = `INSERT INTO sessions (id, name, source_url, admin_name, participants, position_seconds, is_playing)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, q,
		sess.Name, sess.SourceURL, sess.AdminName, sess.Participants,
		sess.Playback.PositionSeconds, sess.Playback.IsPlaying,
	).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// GetByID returns a session by id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, id))
}

// GetByName returns a session by its unique name, or ErrNotFound.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE name = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, name))
}

// AddParticipant appends a participant unless already present (set-semantic,
// idempotent) and returns the updated record.
func (s *Store) AddParticipant(ctx context.Context, id uuid.UUID, name string) (*models.Session, error) {
	const q = `UPDATE sessions
		SET participants = CASE WHEN $2 = ANY(participants) THEN participants ELSE array_append(participants, $2) END
		WHERE id = $1
		RETURNING ` + sessionColumns
	return s.scanOne(s.pool.QueryRow(ctx, q, id, name))
}

// Departure is the committed outcome of removing a participant.
type Departure struct {
	Session  *models.Session // post-departure state, nil when Deleted
	NewAdmin string          // set when admin authority was reassigned
	Deleted  bool
}

// Depart removes a participant together with everything the removal implies:
// admin authority passes to the first remaining participant when the admin
// departed, and the row is deleted when the session became empty. The whole
// transition runs in one transaction, so a concurrent reader sees the row
// before or after the departure, never in between, and the admin is a member
// in every committed state.
func (s *Store) Depart(ctx context.Context, id uuid.UUID, name string) (*Departure, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const remove = `UPDATE sessions
		SET participants = array_remove(participants, $2)
		WHERE id = $1
		RETURNING ` + sessionColumns
	sess, err := s.scanOne(tx.QueryRow(ctx, remove, id, name))
	if err != nil {
		return nil, err
	}

	dep := &Departure{Session: sess}
	switch {
	case len(sess.Participants) == 0:
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
			return nil, err
		}
		dep.Session = nil
		dep.Deleted = true
	case sess.AdminName == name:
		newAdmin := sess.Participants[0]
		if _, err := tx.Exec(ctx, `UPDATE sessions SET admin_name = $2 WHERE id = $1`, id, newAdmin); err != nil {
			return nil, err
		}
		sess.AdminName = newAdmin
		dep.NewAdmin = newAdmin
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return dep, nil
}

// UpdatePlayback overwrites the playback state (last-write-wins) and returns
// the updated record.
func (s *Store) UpdatePlayback(ctx context.Context, id uuid.UUID, positionSeconds float64, isPlaying bool) (*models.Session, error) {
	const q = `UPDATE sessions
		SET position_seconds = $2, is_playing = $3
		WHERE id = $1
		RETURNING ` + sessionColumns
	return s.scanOne(s.pool.QueryRow(ctx, q, id, positionSeconds, isPlaying))
}

func (s *Store) scanOne(row pgx.Row) (*models.Session, error) {
	var sess models.Session
	err := row.Scan(&sess.ID, &sess.Name, &sess.SourceURL, &sess.AdminName,
		&sess.Participants, &sess.Playback.PositionSeconds, &sess.Playback.IsPlaying, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}
