package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loudtogether/backend/internal/models"
	"github.com/loudtogether/backend/pkg/names"
)

// createNameAttempts bounds the retries on a session name collision.
const createNameAttempts = 5

// sessionNamePrefixLen is how much of the content title goes into the
// session name before the generated suffix.
const sessionNamePrefixLen = 10

// SessionStore is the durable session record.
type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	GetByName(ctx context.Context, name string) (*models.Session, error)
	AddParticipant(ctx context.Context, id uuid.UUID, name string) (*models.Session, error)
	Depart(ctx context.Context, id uuid.UUID, name string) (*Departure, error)
	UpdatePlayback(ctx context.Context, id uuid.UUID, positionSeconds float64, isPlaying bool) (*models.Session, error)
}

// SessionCache is the disposable fast-path mirror. Implementations must
// swallow their own failures; a broken cache looks like a permanent miss.
type SessionCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Session, bool)
	Put(ctx context.Context, sess *models.Session)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// EventPublisher fans an event out to all subscribers of a session channel.
// Delivery is best-effort and must never block or fail the caller.
type EventPublisher interface {
	PublishToSession(sessionID uuid.UUID, event string, payload interface{})
}

// Service is the session state machine. All mutations for one session id run
// under a keyed lock so read-modify-write transitions (remove, check
// emptiness, reassign admin, delete) are atomic relative to each other;
// distinct sessions proceed in parallel.
type Service struct {
	store  SessionStore
	cache  SessionCache
	pub    EventPublisher
	locks  *keyedLocks
	nameFn func() string
	logger *zap.Logger
}

// NewService creates the session service.
func NewService(store SessionStore, cache SessionCache, pub EventPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  cache,
		pub:    pub,
		locks:  newKeyedLocks(),
		nameFn: names.Generate,
		logger: logger,
	}
}

// Create starts a new session: unique name derived from the content title,
// the creator (named or generated) as sole participant and admin, playback
// at position zero, paused.
func (s *Service) Create(ctx context.Context, sourceURL, title, adminName string) (*models.Session, error) {
	admin := adminName
	if admin == "" {
		admin = s.nameFn()
	}

	var lastErr error
	for i := 0; i < createNameAttempts; i++ {
		sess := &models.Session{
			Name:         sessionName(title, s.nameFn()),
			SourceURL:    sourceURL,
			AdminName:    admin,
			Participants: []string{admin},
			Playback:     models.Playback{PositionSeconds: 0, IsPlaying: false},
		}
		err := s.store.Create(ctx, sess)
		if err == nil {
			s.cache.Put(ctx, sess)
			s.logger.Info("session created",
				zap.String("session_id", sess.ID.String()),
				zap.String("session_name", sess.Name),
				zap.String("admin", admin))
			return sess, nil
		}
		if !errors.Is(err, ErrDuplicateName) {
			return nil, fmt.Errorf("create session: %w", err)
		}
		lastErr = err
	}
	return nil, lastErr
}

// Get returns a session by id, cache first, repopulating the cache on miss.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	if sess, ok := s.cache.Get(ctx, id); ok {
		return sess, nil
	}
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, sess)
	return sess, nil
}

// GetByName returns a session by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*models.Session, error) {
	sess, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, sess)
	return sess, nil
}

// Join adds a participant. Adding an existing member is a no-op on the set,
// but the joined event is still broadcast. The admin never changes on join.
func (s *Service) Join(ctx context.Context, id uuid.UUID, participantName string) (*models.Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.AddParticipant(ctx, id, participantName)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, sess)
	s.pub.PublishToSession(id, EventParticipantJoin, ParticipantEvent{ParticipantName: participantName})
	return sess, nil
}

// LeaveResult describes the outcome of a departure transition.
type LeaveResult struct {
	Session  *models.Session // nil when the session was deleted
	NewAdmin string          // set when admin authority was reassigned
	Deleted  bool
}

// Leave removes a participant, reassigning admin authority or deleting the
// session as required.
func (s *Service) Leave(ctx context.Context, id uuid.UUID, participantName string) (*LeaveResult, error) {
	return s.removeParticipant(ctx, id, participantName)
}

// RemoveParticipant is the admin-initiated removal. It is the same
// transition as Leave; the two entry points share one implementation so the
// failover logic cannot diverge.
func (s *Service) RemoveParticipant(ctx context.Context, id uuid.UUID, participantName string) (*LeaveResult, error) {
	return s.removeParticipant(ctx, id, participantName)
}

func (s *Service) removeParticipant(ctx context.Context, id uuid.UUID, participantName string) (*LeaveResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	// The store commits removal, admin failover and empty-session deletion as
	// one transaction, so no reader ever sees an admin outside the membership.
	dep, err := s.store.Depart(ctx, id, participantName)
	if err != nil {
		return nil, err
	}
	s.pub.PublishToSession(id, EventParticipantLeft, ParticipantEvent{ParticipantName: participantName})

	if dep.Deleted {
		s.cache.Invalidate(ctx, id)
		s.logger.Info("empty session deleted", zap.String("session_id", id.String()))
		return &LeaveResult{Deleted: true}, nil
	}

	s.cache.Put(ctx, dep.Session)
	if dep.NewAdmin != "" {
		s.pub.PublishToSession(id, EventAdminChanged, AdminChangedEvent{NewAdminName: dep.NewAdmin})
		s.logger.Info("admin reassigned",
			zap.String("session_id", id.String()),
			zap.String("new_admin", dep.NewAdmin))
	}
	return &LeaveResult{Session: dep.Session, NewAdmin: dep.NewAdmin}, nil
}

// Sync overwrites the playback state, last-write-wins. Only the current
// admin may sync; a stale sync from a slow admin can overwrite a newer one,
// which is accepted behavior (no sequence numbers).
func (s *Service) Sync(ctx context.Context, id uuid.UUID, caller string, positionSeconds float64, isPlaying bool) (*models.Session, error) {
	if positionSeconds < 0 {
		return nil, ErrInvalidPosition
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	// Authority is checked against the store, never the cache: a stale cache
	// entry surviving a failed write must not let a departed admin through.
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller != current.AdminName {
		return nil, ErrNotAdmin
	}

	sess, err := s.store.UpdatePlayback(ctx, id, positionSeconds, isPlaying)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, sess)
	s.pub.PublishToSession(id, EventAudioSync, AudioSyncEvent{PositionSeconds: positionSeconds, IsPlaying: isPlaying})
	return sess, nil
}

// SyncStatus returns the current playback state, cache first.
func (s *Service) SyncStatus(ctx context.Context, id uuid.UUID) (models.Playback, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return models.Playback{}, err
	}
	return sess.Playback, nil
}

// sessionName derives the unique session name: the title stripped of
// whitespace, truncated, plus a generated suffix.
func sessionName(title, suffix string) string {
	short := []rune(strings.Join(strings.Fields(title), ""))
	if len(short) > sessionNamePrefixLen {
		short = short[:sessionNamePrefixLen]
	}
	return string(short) + "-" + suffix
}
