package esl

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// WorkflowService chains the individual operations into the two composite
// flows: the first-connection setup and the periodic full sync the
// scheduler runs.
type WorkflowService struct {
	sessions  *SessionService
	exports   *ExportService
	templates *TemplateService
	logger    *zap.Logger
}

// NewWorkflowService creates a WorkflowService
func NewWorkflowService(sessions *SessionService, exports *ExportService, templates *TemplateService, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		sessions:  sessions,
		exports:   exports,
		templates: templates,
		logger:    logger,
	}
}

// FirstConnection runs the initial setup sequence: handshake, store list,
// template sync. It stops at the first failing step so the operator sees
// one actionable error at a time.
func (s *WorkflowService) FirstConnection(ctx context.Context) (*SessionResponse, error) {
	if _, err := s.sessions.Connect(ctx); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	if _, err := s.templates.FetchStores(ctx); err != nil {
		s.flagError(ctx)
		return nil, fmt.Errorf("store list: %w", err)
	}
	if _, err := s.templates.Sync(ctx); err != nil {
		s.flagError(ctx)
		return nil, fmt.Errorf("template sync: %w", err)
	}

	s.logger.Info("first connection completed")
	return s.sessions.Get(ctx)
}

// flagError records that a setup step after the handshake failed. The
// token state stays in place so a retry skips straight to the broken step.
func (s *WorkflowService) flagError(ctx context.Context) {
	session, err := s.sessions.sessions.Get(ctx)
	if err != nil {
		return
	}
	session.MarkError(s.sessions.now())
	if err := s.sessions.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("could not flag session error", zap.Error(err))
	}
}

// AutoSyncAll is the periodic job: make sure the token is fresh, then push
// the whole catalog. Failures are logged and returned but never panic the
// scheduler loop.
func (s *WorkflowService) AutoSyncAll(ctx context.Context) (*ExportSummary, error) {
	summary, err := s.exports.Export(ctx)
	if err != nil {
		s.logger.Error("automatic sync failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("automatic sync completed",
		zap.Int("totalItems", summary.TotalItems),
		zap.Int("failedChunks", summary.FailedChunks))
	return summary, nil
}

// AutoSync adapts AutoSyncAll to the scheduler's job interface
func (s *WorkflowService) AutoSync(ctx context.Context) error {
	_, err := s.AutoSyncAll(ctx)
	return err
}
