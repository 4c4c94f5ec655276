package esl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("operator", "secret", "pharmacy-01")
	require.NoError(t, err)
	return s
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		uniqueID string
		wantErr  bool
	}{
		{"valid", "operator", "secret", "pharmacy-01", false},
		{"missing login", "", "secret", "pharmacy-01", true},
		{"missing password", "operator", " ", "pharmacy-01", true},
		{"missing unique id", "operator", "secret", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.login, tt.password, tt.uniqueID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSession_MarkConnected(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()

	s.MarkConnected(&AuthResult{
		Token:      "tok-1",
		PublicKey:  "-----BEGIN PUBLIC KEY-----",
		AgencyID:   "A1",
		MerchantID: "M1",
	}, now)

	assert.Equal(t, SessionStatusConnected, s.Status)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "A1", s.AgencyID)
	assert.Equal(t, "M1", s.MerchantID)
	require.NotNil(t, s.TokenExpiresAt)
	assert.Equal(t, now.Add(TokenValidity), *s.TokenExpiresAt)
}

func TestSession_MarkError_KeepsToken(t *testing.T) {
	s := newTestSession(t)
	s.MarkConnected(&AuthResult{Token: "tok-1"}, time.Now())

	s.MarkError(time.Now())

	assert.Equal(t, SessionStatusError, s.Status)
	assert.Equal(t, "tok-1", s.Token)
}

func TestSession_TokenFresh(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name   string
		token  string
		expiry *time.Time
		want   bool
	}{
		{"no token", "", &future, false},
		{"no expiry", "tok", nil, false},
		{"expired", "tok", &past, false},
		{"fresh", "tok", &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			s.Token = tt.token
			s.TokenExpiresAt = tt.expiry
			assert.Equal(t, tt.want, s.TokenFresh(now))
		})
	}
}

func TestSession_EffectiveBatchSize(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, 10, s.EffectiveBatchSize())

	s.BatchSize = 0
	assert.Equal(t, DefaultBatchSize, s.EffectiveBatchSize())
}

func TestSession_SyncInterval(t *testing.T) {
	tests := []struct {
		name   string
		number int
		unit   IntervalUnit
		want   time.Duration
	}{
		{"minutes", 30, IntervalUnitMinutes, 30 * time.Minute},
		{"hours", 2, IntervalUnitHours, 2 * time.Hour},
		{"days", 1, IntervalUnitDays, 24 * time.Hour},
		{"zero number falls back", 0, IntervalUnitHours, time.Hour},
		{"unknown unit treated as hours", 3, IntervalUnit("weeks"), 3 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			s.IntervalNumber = tt.number
			s.IntervalUnit = tt.unit
			assert.Equal(t, tt.want, s.SyncInterval())
		})
	}
}

func TestSession_SetSchedule_Validation(t *testing.T) {
	s := newTestSession(t)

	assert.Error(t, s.SetSchedule(0, IntervalUnitHours, true))
	assert.Error(t, s.SetSchedule(1, IntervalUnit("fortnights"), true))

	require.NoError(t, s.SetSchedule(15, IntervalUnitMinutes, true))
	assert.Equal(t, 15, s.IntervalNumber)
	assert.Equal(t, IntervalUnitMinutes, s.IntervalUnit)
	assert.True(t, s.SyncActive)
}

func TestSession_SetStores(t *testing.T) {
	s := newTestSession(t)

	stores := []StoreInfo{{ID: "7", Name: "Main"}, {ID: "8", Name: "Annex"}}
	require.NoError(t, s.SetStores(stores))

	assert.Equal(t, "7", s.StoreID, "first store auto-selected")

	got, err := s.Stores()
	require.NoError(t, err)
	assert.Equal(t, stores, got)

	// An existing selection is not overwritten by a refresh
	require.NoError(t, s.SetStores([]StoreInfo{{ID: "9", Name: "New"}}))
	assert.Equal(t, "7", s.StoreID)
}

func TestSession_Ref(t *testing.T) {
	s := newTestSession(t)
	s.AgencyID = "A1"
	s.MerchantID = "M1"
	s.StoreID = "7"
	s.Token = "tok"

	ref := s.Ref()
	assert.Equal(t, SessionRef{
		UniqueID:   "pharmacy-01",
		AgencyID:   "A1",
		MerchantID: "M1",
		StoreID:    "7",
		Token:      "tok",
	}, ref)
}
