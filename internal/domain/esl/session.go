package esl

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/erp/esl-addon/internal/domain/shared"
)

// TokenValidity is how long an acquired bearer token is trusted before the
// next authenticated call re-runs the handshake.
const TokenValidity = 2 * time.Hour

// DefaultBatchSize is used when no batch size is configured. It is large
// enough that the whole catalog goes out as one batch.
const DefaultBatchSize = 19999

// SessionStatus represents the connection state shown to the operator
type SessionStatus string

const (
	SessionStatusDisconnected SessionStatus = "disconnected"
	SessionStatusConnected    SessionStatus = "connected"
	SessionStatusError        SessionStatus = "error"
)

// IntervalUnit is the unit of the automatic sync interval
type IntervalUnit string

const (
	IntervalUnitMinutes IntervalUnit = "minutes"
	IntervalUnitHours   IntervalUnit = "hours"
	IntervalUnitDays    IntervalUnit = "days"
)

// IsValid returns true if the interval unit is one of the known units
func (u IntervalUnit) IsValid() bool {
	switch u {
	case IntervalUnitMinutes, IntervalUnitHours, IntervalUnitDays:
		return true
	default:
		return false
	}
}

// LabelType identifies the label hardware family of the installation
type LabelType string

const (
	LabelTypeZkong  LabelType = "zkong"
	LabelTypePSL    LabelType = "psl"
	LabelTypePricer LabelType = "pricer"
)

// Session is the single stored connection/configuration record for the
// vendor integration. At most one Session exists per installation.
type Session struct {
	shared.BaseEntity
	Login          string        `gorm:"type:varchar(100);not null"`
	Password       string        `gorm:"type:varchar(200);not null"`
	UniqueID       string        `gorm:"type:varchar(100);not null"`
	LabelType      LabelType     `gorm:"type:varchar(20);not null;default:'zkong'"`
	Token          string        `gorm:"type:text"`
	PublicKey      string        `gorm:"type:text"`
	TokenExpiresAt *time.Time
	AgencyID       string        `gorm:"type:varchar(100)"`
	MerchantID     string        `gorm:"type:varchar(100)"`
	StoreID        string        `gorm:"type:varchar(100)"`
	StoreOptions   string        `gorm:"type:jsonb;default:'[]'"`
	Status         SessionStatus `gorm:"type:varchar(20);not null;default:'disconnected'"`
	BatchSize      int           `gorm:"not null;default:10"`
	IntervalNumber int           `gorm:"not null;default:1"`
	IntervalUnit   IntervalUnit  `gorm:"type:varchar(20);not null;default:'hours'"`
	SyncActive     bool          `gorm:"not null;default:false"`
	LastImportAt   *time.Time
}

// TableName returns the table name for GORM
func (Session) TableName() string {
	return "esl_sessions"
}

// NewSession creates the connection record. The singleton invariant is
// enforced by the repository at save time.
func NewSession(login, password, uniqueID string) (*Session, error) {
	if strings.TrimSpace(login) == "" || strings.TrimSpace(password) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Login and password are required")
	}
	if strings.TrimSpace(uniqueID) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unique ID is required")
	}
	return &Session{
		BaseEntity:     shared.NewBaseEntity(),
		Login:          login,
		Password:       password,
		UniqueID:       uniqueID,
		LabelType:      LabelTypeZkong,
		Status:         SessionStatusDisconnected,
		StoreOptions:   "[]",
		BatchSize:      10,
		IntervalNumber: 1,
		IntervalUnit:   IntervalUnitHours,
	}, nil
}

// MarkConnected replaces the token state after a successful handshake
func (s *Session) MarkConnected(auth *AuthResult, now time.Time) {
	expiry := now.Add(TokenValidity)
	s.Token = auth.Token
	s.PublicKey = auth.PublicKey
	s.AgencyID = auth.AgencyID
	s.MerchantID = auth.MerchantID
	s.TokenExpiresAt = &expiry
	s.Status = SessionStatusConnected
	s.UpdatedAt = now
}

// MarkError flags the session without touching the prior token state
func (s *Session) MarkError(now time.Time) {
	s.Status = SessionStatusError
	s.UpdatedAt = now
}

// TokenFresh reports whether the stored token can still be used. A missing
// token or expiry, or a past expiry, requires a new handshake.
func (s *Session) TokenFresh(now time.Time) bool {
	if s.Token == "" || s.TokenExpiresAt == nil {
		return false
	}
	return now.Before(*s.TokenExpiresAt)
}

// Ref builds the identifier set attached to authenticated vendor calls
func (s *Session) Ref() SessionRef {
	return SessionRef{
		UniqueID:   s.UniqueID,
		AgencyID:   s.AgencyID,
		MerchantID: s.MerchantID,
		StoreID:    s.StoreID,
		Token:      s.Token,
	}
}

// EffectiveBatchSize returns the configured batch size, or the effectively
// unbounded default when unset.
func (s *Session) EffectiveBatchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return DefaultBatchSize
}

// SyncInterval converts the configured interval to a duration. Unknown
// units and non-positive numbers fall back to one hour.
func (s *Session) SyncInterval() time.Duration {
	n := s.IntervalNumber
	if n <= 0 {
		n = 1
	}
	switch s.IntervalUnit {
	case IntervalUnitMinutes:
		return time.Duration(n) * time.Minute
	case IntervalUnitDays:
		return time.Duration(n) * 24 * time.Hour
	default:
		return time.Duration(n) * time.Hour
	}
}

// SetSchedule updates the automatic sync configuration. The caller is
// responsible for propagating the change to the scheduler.
func (s *Session) SetSchedule(number int, unit IntervalUnit, active bool) error {
	if number <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Interval number must be positive")
	}
	if !unit.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown interval unit")
	}
	s.IntervalNumber = number
	s.IntervalUnit = unit
	s.SyncActive = active
	s.UpdatedAt = time.Now()
	return nil
}

// SetStores replaces the selectable-store list and auto-selects the first
// store when none was previously selected.
func (s *Session) SetStores(stores []StoreInfo) error {
	raw, err := json.Marshal(stores)
	if err != nil {
		return err
	}
	s.StoreOptions = string(raw)
	if s.StoreID == "" && len(stores) > 0 {
		s.StoreID = stores[0].ID
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Stores returns the stored selectable-store list
func (s *Session) Stores() ([]StoreInfo, error) {
	if s.StoreOptions == "" {
		return nil, nil
	}
	var stores []StoreInfo
	if err := json.Unmarshal([]byte(s.StoreOptions), &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// RecordImport stamps the last successful catalog upload. A fully clean
// upload also clears a stale error flag from an earlier failed run.
func (s *Session) RecordImport(now time.Time) {
	s.LastImportAt = &now
	s.Status = SessionStatusConnected
	s.UpdatedAt = now
}
