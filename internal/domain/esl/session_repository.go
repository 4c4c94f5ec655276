package esl

import "context"

// SessionRepository defines the persistence port for the Session singleton
type SessionRepository interface {
	// Create persists a new session. Returns ErrSessionExists when a
	// session record already exists; there is at most one per install.
	Create(ctx context.Context, session *Session) error

	// Get returns the singleton session, or ErrSessionNotFound
	Get(ctx context.Context) (*Session, error)

	// Save persists changes to the session
	Save(ctx context.Context, session *Session) error

	// Delete removes the session (uninstall path)
	Delete(ctx context.Context, session *Session) error
}
