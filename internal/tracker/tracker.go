// Package tracker ties the calendar, ledger, stats, resets and settings
// packages together behind an explicit per-account session.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/resets"
	"quit-tracker/internal/settings"

	"go.uber.org/zap"
)

// ErrEmptyQuitDate is wrapped in the ValidationError returned by
// StartJourney when no date was given.
var ErrEmptyQuitDate = errors.New("a quit date is required")

// Persistence loads and saves account records.
type Persistence interface {
	Load(accountID int64) (*models.AccountRecord, bool, error)
	Save(accountID int64, rec *models.AccountRecord) error
}

// Session is the state of one open account. Every action takes it
// explicitly; the service itself holds no per-account state.
type Session struct {
	AccountID int64
	Record    models.AccountRecord
}

// Service runs tracker actions against a Persistence.
type Service struct {
	store  Persistence
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the location dates typed by the user are parsed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(store Persistence, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time in its location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Open loads an account. An account that has never saved gets the default
// record.
func (s *Service) Open(accountID int64) (*Session, error) {
	rec, ok, err := s.store.Load(accountID)
	if err != nil {
		return nil, fmt.Errorf("loading account %d: %w", accountID, err)
	}
	sess := &Session{AccountID: accountID, Record: models.NewAccountRecord()}
	if ok {
		sess.Record = *rec
	}
	return sess, nil
}

// Switch replaces the session's contents with another account's record.
// Nothing from the previous account is carried over.
func (s *Service) Switch(sess *Session, accountID int64) error {
	next, err := s.Open(accountID)
	if err != nil {
		return err
	}
	*sess = *next
	s.logger.Debug("switched account", zap.Int64("account_id", accountID))
	return nil
}

// StartJourney sets the quit date from YYYY-MM-DD text and persists it.
func (s *Service) StartJourney(sess *Session, dateText string) error {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return &settings.ValidationError{Field: "quit_date", Err: ErrEmptyQuitDate}
	}
	d, err := calendar.ParseDate(dateText, s.loc)
	if err != nil {
		return &settings.ValidationError{Field: "quit_date", Value: dateText, Err: err}
	}

	next := cloneRecord(sess.Record)
	next.Profile.QuitDate = &d
	if err := s.commit(sess, next); err != nil {
		return err
	}
	s.logger.Info("journey started",
		zap.Int64("account_id", sess.AccountID),
		zap.String("quit_date", calendar.FormatDate(d)))
	return nil
}

// SaveSettings validates the form input and persists the new profile. The
// reset history is kept as is. On a validation error the session is left
// untouched.
func (s *Service) SaveSettings(sess *Session, in settings.Input) error {
	cfg, err := settings.Apply(in, s.loc)
	if err != nil {
		return err
	}

	next := cloneRecord(sess.Record)
	next.Profile = cfg
	if err := s.commit(sess, next); err != nil {
		return err
	}
	s.logger.Info("settings saved", zap.Int64("account_id", sess.AccountID))
	return nil
}

// RestartJourney logs a reset, clears the quit date and persists both.
// resets.ErrInvalidState is returned unchanged when nothing is tracked.
func (s *Service) RestartJourney(sess *Session) (models.ResetEvent, error) {
	next := cloneRecord(sess.Record)
	ev, err := resets.Record(&next.Resets, next.Profile, s.Now())
	if err != nil {
		return models.ResetEvent{}, err
	}
	next.Profile.QuitDate = nil

	if err := s.commit(sess, next); err != nil {
		return models.ResetEvent{}, err
	}
	s.logger.Info("journey restarted",
		zap.Int64("account_id", sess.AccountID),
		zap.String("reset_id", ev.ID),
		zap.Int("reset_count", next.Resets.Count))
	return ev, nil
}

func (s *Service) commit(sess *Session, next models.AccountRecord) error {
	if err := s.store.Save(sess.AccountID, &next); err != nil {
		return fmt.Errorf("saving account %d: %w", sess.AccountID, err)
	}
	sess.Record = next
	return nil
}

func cloneRecord(rec models.AccountRecord) models.AccountRecord {
	out := rec
	if rec.Profile.QuitDate != nil {
		d := *rec.Profile.QuitDate
		out.Profile.QuitDate = &d
	}
	out.Resets.Events = append([]models.ResetEvent(nil), rec.Resets.Events...)
	return out
}
