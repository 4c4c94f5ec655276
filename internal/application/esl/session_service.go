package esl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/esl-addon/internal/domain/esl"
	"github.com/erp/esl-addon/internal/domain/shared"
)

// ScheduleListener is notified when the automatic sync configuration
// changes, so the running scheduler can pick up the new interval without a
// restart. The scheduler implements it.
type ScheduleListener interface {
	ScheduleChanged(interval time.Duration, active bool)
}

// SessionService manages the single vendor connection record: creation,
// the token handshake, and the sync schedule.
type SessionService struct {
	sessions esl.SessionRepository
	vendor   esl.LabelVendor
	listener ScheduleListener
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService creates a SessionService. listener may be nil when no
// scheduler is running, for instance in tests.
func NewSessionService(sessions esl.SessionRepository, vendor esl.LabelVendor, listener ScheduleListener, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		vendor:   vendor,
		listener: listener,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores the connection settings. Only one session record may exist;
// a second create is rejected by the repository.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	session, err := esl.NewSession(req.Login, req.Password, req.UniqueID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.notifySchedule(session)
	s.logger.Info("connection session created", zap.String("uniqueId", session.UniqueID))
	return s.toResponse(session)
}

// Get returns the stored session state
func (s *SessionService) Get(ctx context.Context) (*SessionResponse, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponse(session)
}

// Connect runs the vendor handshake with the stored credentials and
// persists the resulting token state. A failed handshake flags the session
// without discarding the previous token.
func (s *SessionService) Connect(ctx context.Context) (*SessionResponse, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.connect(ctx, session); err != nil {
		return nil, err
	}
	return s.toResponse(session)
}

// EnsureFreshToken returns the session with a usable token, re-running the
// handshake when the stored token is missing or past its validity window.
func (s *SessionService) EnsureFreshToken(ctx context.Context) (*esl.Session, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if session.TokenFresh(s.now()) {
		return session, nil
	}

	s.logger.Info("stored token stale, re-authenticating",
		zap.String("uniqueId", session.UniqueID))
	if err := s.connect(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSchedule changes the automatic sync settings and propagates them to
// the running scheduler.
func (s *SessionService) UpdateSchedule(ctx context.Context, req UpdateScheduleRequest) (*SessionResponse, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	unit := esl.IntervalUnit(req.IntervalUnit)
	if err := session.SetSchedule(req.IntervalNumber, unit, req.Active); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.notifySchedule(session)
	s.logger.Info("sync schedule updated",
		zap.Int("intervalNumber", session.IntervalNumber),
		zap.String("intervalUnit", string(session.IntervalUnit)),
		zap.Bool("active", session.SyncActive))
	return s.toResponse(session)
}

// SetStore selects one of the fetched stores
func (s *SessionService) SetStore(ctx context.Context, storeID string) (*SessionResponse, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}

	stores, err := session.Stores()
	if err != nil {
		return nil, err
	}
	found := false
	for _, st := range stores {
		if st.ID == storeID {
			found = true
			break
		}
	}
	if !found {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown store id")
	}

	session.StoreID = storeID
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.toResponse(session)
}

func (s *SessionService) connect(ctx context.Context, session *esl.Session) error {
	auth, err := s.vendor.Authenticate(ctx, session.Login, session.Password)
	if err != nil {
		session.MarkError(s.now())
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			s.logger.Error("failed to persist error status", zap.Error(saveErr))
		}
		return err
	}

	session.MarkConnected(auth, s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}

	s.logger.Info("session connected",
		zap.String("uniqueId", session.UniqueID),
		zap.String("agencyId", session.AgencyID),
		zap.String("merchantId", session.MerchantID))
	return nil
}

func (s *SessionService) notifySchedule(session *esl.Session) {
	if s.listener != nil {
		s.listener.ScheduleChanged(session.SyncInterval(), session.SyncActive)
	}
}

func (s *SessionService) toResponse(session *esl.Session) (*SessionResponse, error) {
	stores, err := session.Stores()
	if err != nil {
		return nil, err
	}
	storeDTOs := make([]StoreDTO, 0, len(stores))
	for _, st := range stores {
		storeDTOs = append(storeDTOs, StoreDTO{ID: st.ID, Name: st.Name})
	}

	return &SessionResponse{
		ID:             session.ID.String(),
		Login:          session.Login,
		UniqueID:       session.UniqueID,
		LabelType:      string(session.LabelType),
		Status:         string(session.Status),
		AgencyID:       session.AgencyID,
		MerchantID:     session.MerchantID,
		StoreID:        session.StoreID,
		Stores:         storeDTOs,
		BatchSize:      session.BatchSize,
		IntervalNumber: session.IntervalNumber,
		IntervalUnit:   string(session.IntervalUnit),
		SyncActive:     session.SyncActive,
		TokenExpiresAt: session.TokenExpiresAt,
		LastImportAt:   session.LastImportAt,
	}, nil
}
