package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/resets"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrStaleRecord is returned by Save when the stored reset log has moved on
// past the record being written.
var ErrStaleRecord = errors.New("stored reset history is ahead of the record being saved")

// Load returns the tracker record of an account. ok is false when the account
// has never saved one.
func (db *DB) Load(accountID int64) (*models.AccountRecord, bool, error) {
	row := db.conn.QueryRow(`
		SELECT price_per_unit_minor, units_per_day, quit_date, theme, reset_count
		FROM profiles WHERE account_id = ?`, accountID)

	var (
		rec      models.AccountRecord
		quitDate sql.NullString
	)
	err := row.Scan(&rec.Profile.PricePerUnitMinor, &rec.Profile.UnitsPerDay, &quitDate,
		&rec.Profile.Theme, &rec.Resets.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if rec.Profile.QuitDate, err = db.parseNullDate(quitDate); err != nil {
		return nil, false, fmt.Errorf("profile %d: %w", accountID, err)
	}

	events, err := db.resetEvents(accountID)
	if err != nil {
		return nil, false, err
	}
	rec.Resets.Events = events

	if err := resets.Validate(rec.Resets); err != nil {
		return nil, false, fmt.Errorf("profile %d: %w", accountID, err)
	}
	return &rec, true, nil
}

func (db *DB) resetEvents(accountID int64) ([]models.ResetEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, occurred_at, previous_quit_date
		FROM reset_events WHERE account_id = ? ORDER BY seq ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ResetEvent
	for rows.Next() {
		var (
			ev         models.ResetEvent
			occurredAt string
			prev       sql.NullString
		)
		if err := rows.Scan(&ev.ID, &occurredAt, &prev); err != nil {
			return nil, err
		}
		if ev.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
			return nil, fmt.Errorf("reset %s: %w", ev.ID, err)
		}
		if ev.PreviousQuitDate, err = db.parseNullDate(prev); err != nil {
			return nil, fmt.Errorf("reset %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Save writes the record of an account. Reset events are append-only: events
// already stored are kept as they are and new ones are added behind them.
func (db *DB) Save(accountID int64, rec *models.AccountRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if err := resets.Validate(rec.Resets); err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	p := rec.Profile
	_, err = tx.Exec(`
		INSERT INTO profiles (account_id, price_per_unit_minor, units_per_day, quit_date, theme, reset_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			price_per_unit_minor = excluded.price_per_unit_minor,
			units_per_day        = excluded.units_per_day,
			quit_date            = excluded.quit_date,
			theme                = excluded.theme,
			reset_count          = excluded.reset_count,
			updated_at           = excluded.updated_at`,
		accountID, p.PricePerUnitMinor, p.UnitsPerDay, toNullDate(p.QuitDate), p.Theme,
		rec.Resets.Count, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	for i, ev := range rec.Resets.Events {
		_, err := tx.Exec(`
			INSERT INTO reset_events (id, account_id, seq, occurred_at, previous_quit_date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			ev.ID, accountID, i+1, ev.OccurredAt.UTC().Format(time.RFC3339Nano), toNullDate(ev.PreviousQuitDate),
		)
		if isUniqueViolation(err) {
			// another writer already stored a different event at this position
			return ErrStaleRecord
		}
		if err != nil {
			return fmt.Errorf("saving reset %s: %w", ev.ID, err)
		}
	}

	var stored int
	if err := tx.QueryRow("SELECT COUNT(*) FROM reset_events WHERE account_id = ?", accountID).Scan(&stored); err != nil {
		return err
	}
	if stored != rec.Resets.Count {
		return ErrStaleRecord
	}

	return tx.Commit()
}

func (db *DB) parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := calendar.ParseDate(ns.String, db.loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: calendar.FormatDate(*t), Valid: true}
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
