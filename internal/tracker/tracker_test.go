package tracker

import (
	"errors"
	"testing"
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/resets"
	"quit-tracker/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[int64]models.AccountRecord
	saves   int
	failErr error
}

func newMemStore() *memStore { return &memStore{records: map[int64]models.AccountRecord{}} }

func (m *memStore) Load(accountID int64) (*models.AccountRecord, bool, error) {
	rec, ok := m.records[accountID]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (m *memStore) Save(accountID int64, rec *models.AccountRecord) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.records[accountID] = *rec
	return nil
}

var fixedNow = time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC)

func newTestService(store Persistence) *Service {
	return NewService(store,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC))
}

func TestOpenDefaultsForNewAccount(t *testing.T) {
	svc := newTestService(newMemStore())

	sess, err := svc.Open(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.AccountID)
	assert.Equal(t, models.NewAccountRecord(), sess.Record)
}

func TestOpenPropagatesLoadErrors(t *testing.T) {
	svc := newTestService(failingLoad{})
	_, err := svc.Open(1)
	assert.Error(t, err)
}

type failingLoad struct{}

func (failingLoad) Load(int64) (*models.AccountRecord, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (failingLoad) Save(int64, *models.AccountRecord) error { return nil }

func TestStartJourneyAndSnapshot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, err := svc.Open(1)
	require.NoError(t, err)

	require.NoError(t, svc.StartJourney(sess, "2024-01-01"))
	assert.Equal(t, 1, store.saves)

	snap := svc.Snapshot(sess)
	assert.True(t, snap.Summary.Tracking)
	assert.Equal(t, 3, snap.Summary.DaysFree)
	assert.Equal(t, int64(6), snap.Summary.UnitsAvoided)
	assert.Equal(t, int64(1374), snap.Summary.MoneySavedMinor)
	assert.Len(t, snap.Ledger, 4)
	require.Len(t, snap.Monthly, 1)
	assert.Equal(t, "2024-01", snap.Monthly[0].Key)
	require.NotNil(t, snap.Next)
	assert.Equal(t, 7, snap.Next.Days)
	assert.NotEmpty(t, snap.Motivation)
}

func TestStartJourneyRejectsEmptyAndMalformed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)

	var verr *settings.ValidationError
	err := svc.StartJourney(sess, "  ")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quit_date", verr.Field)
	assert.ErrorIs(t, err, ErrEmptyQuitDate)

	err = svc.StartJourney(sess, "01/02/2024")
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, sess.Record.Profile.QuitDate)
	assert.Zero(t, store.saves)
}

func TestSaveSettingsKeepsResetHistory(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)
	require.NoError(t, svc.StartJourney(sess, "2024-01-01"))
	_, err := svc.RestartJourney(sess)
	require.NoError(t, err)

	err = svc.SaveSettings(sess, settings.Input{Price: "3.50", UnitsPerDay: "4", QuitDate: "2024-01-02", Theme: "light"})
	require.NoError(t, err)

	p := sess.Record.Profile
	assert.Equal(t, int64(350), p.PricePerUnitMinor)
	assert.Equal(t, 4, p.UnitsPerDay)
	assert.Equal(t, "2024-01-02", calendar.FormatDate(*p.QuitDate))
	assert.Equal(t, models.ThemeLight, p.Theme)
	assert.Equal(t, 1, sess.Record.Resets.Count)
	assert.Equal(t, sess.Record, store.records[1])
}

func TestSaveSettingsValidationLeavesSessionUnchanged(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)
	before := sess.Record

	err := svc.SaveSettings(sess, settings.Input{Price: "abc", UnitsPerDay: "2"})
	var verr *settings.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price", verr.Field)
	assert.Equal(t, before, sess.Record)
	assert.Zero(t, store.saves)
}

func TestRestartJourney(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)
	require.NoError(t, svc.StartJourney(sess, "2024-01-01"))

	ev, err := svc.RestartJourney(sess)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "2024-01-01", calendar.FormatDate(*ev.PreviousQuitDate))
	assert.True(t, fixedNow.Equal(ev.OccurredAt))

	assert.Nil(t, sess.Record.Profile.QuitDate)
	assert.Equal(t, 1, sess.Record.Resets.Count)
	require.Len(t, sess.Record.Resets.Events, 1)

	snap := svc.Snapshot(sess)
	assert.False(t, snap.Summary.Tracking)
	assert.Zero(t, snap.Summary.MoneySavedMinor)
	assert.Empty(t, snap.Ledger)
	assert.Equal(t, 1, snap.Summary.ResetCount)
}

func TestRestartWithoutQuitDateIsNoop(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)

	_, err := svc.RestartJourney(sess)
	assert.ErrorIs(t, err, resets.ErrInvalidState)
	assert.Zero(t, sess.Record.Resets.Count)
	assert.Zero(t, store.saves)
}

func TestFailedSaveLeavesSessionUnchanged(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)
	require.NoError(t, svc.StartJourney(sess, "2024-01-01"))

	store.failErr = errors.New("locked")
	_, err := svc.RestartJourney(sess)
	assert.Error(t, err)
	assert.NotNil(t, sess.Record.Profile.QuitDate)
	assert.Zero(t, sess.Record.Resets.Count)
}

func TestSwitchReplacesState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	a, _ := svc.Open(1)
	require.NoError(t, svc.StartJourney(a, "2024-01-01"))
	_, err := svc.RestartJourney(a)
	require.NoError(t, err)

	b, _ := svc.Open(2)
	require.NoError(t, svc.SaveSettings(b, settings.Input{Price: "1", UnitsPerDay: "9"}))

	sess, _ := svc.Open(1)
	require.NoError(t, svc.Switch(sess, 2))
	assert.Equal(t, int64(2), sess.AccountID)
	assert.Equal(t, 9, sess.Record.Profile.UnitsPerDay)
	assert.Zero(t, sess.Record.Resets.Count)
	assert.Empty(t, sess.Record.Resets.Events)
}

func TestExportRecord(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	sess, _ := svc.Open(1)
	require.NoError(t, svc.StartJourney(sess, "2024-01-01"))
	_, err := svc.RestartJourney(sess)
	require.NoError(t, err)

	out := ExportRecord(sess.Record)
	assert.Equal(t, int64(229), out.PricePerUnitMinorUnits)
	assert.Equal(t, 2, out.UnitsPerDay)
	assert.Nil(t, out.QuitDate)
	assert.Equal(t, 1, out.ResetCount)
	require.Len(t, out.ResetHistory, 1)
	assert.Equal(t, "2024-01-04T12:00:00Z", out.ResetHistory[0].OccurredAt)
	require.NotNil(t, out.ResetHistory[0].PreviousQuitDate)
	assert.Equal(t, "2024-01-01", *out.ResetHistory[0].PreviousQuitDate)
}
