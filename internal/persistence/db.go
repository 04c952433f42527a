// Package persistence keeps a SQLite journal of simulation runs: the event
// stream, weekly reports, and end-of-week snapshots of staff and credit.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/events"
	"github.com/talgya/pubsim/internal/staff"
)

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		pub_name TEXT NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		day INTEGER NOT NULL,
		round INTEGER NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weekly_reports (
		run_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		revenue REAL NOT NULL,
		costs REAL NOT NULL,
		profit REAL NOT NULL,
		tips REAL NOT NULL,
		sales INTEGER NOT NULL,
		fights INTEGER NOT NULL,
		unserved INTEGER NOT NULL,
		refunds INTEGER NOT NULL,
		avg_chaos REAL NOT NULL,
		reputation INTEGER NOT NULL,
		cash REAL NOT NULL,
		debt REAL NOT NULL,
		credit_score INTEGER NOT NULL,
		identity TEXT NOT NULL,
		pub_level INTEGER NOT NULL,
		PRIMARY KEY (run_id, week)
	);

	CREATE TABLE IF NOT EXISTS staff (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		level INTEGER NOT NULL,
		morale INTEGER NOT NULL,
		weekly_wage REAL NOT NULL,
		member_json TEXT NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS credit_lines (
		run_id TEXT NOT NULL,
		id TEXT NOT NULL,
		lender TEXT NOT NULL,
		predatory INTEGER NOT NULL,
		enabled INTEGER NOT NULL,
		credit_limit REAL NOT NULL,
		balance REAL NOT NULL,
		apr REAL NOT NULL,
		missed INTEGER NOT NULL,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, week);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its id.
func (db *DB) StartRun(seed uint64, pubName string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, pub_name, started_at) VALUES (?, ?, ?, ?)",
		id, int64(seed), pubName, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveEvents appends event records to the run's stream.
func (db *DB) SaveEvents(runID string, records []events.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, week, day, round, kind, category, title, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(runID, r.Week, r.Day, r.Round, r.Kind.String(), r.Category, r.Title, r.Text); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// SaveReport writes one weekly report row, replacing any earlier copy.
func (db *DB) SaveReport(runID string, w engine.WeekSummary) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO weekly_reports
		(run_id, week, revenue, costs, profit, tips, sales, fights, unserved, refunds,
		 avg_chaos, reputation, cash, debt, credit_score, identity, pub_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, w.Week, w.Revenue, w.Costs, w.Profit, w.Tips, w.Sales, w.Fights, w.Unserved, w.Refunds,
		w.AvgChaos, w.Reputation, w.Cash, w.Debt, w.CreditScore, w.Identity, w.PubLevel,
	)
	if err != nil {
		return fmt.Errorf("insert report week %d: %w", w.Week, err)
	}
	return nil
}

// SaveStaff writes the roster (full replace).
func (db *DB) SaveStaff(runID string, members []*staff.Member) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM staff WHERE run_id = ?", runID); err != nil {
		return err
	}

	for _, m := range members {
		memberJSON, _ := json.Marshal(m)
		_, err := tx.Exec(`INSERT INTO staff
			(run_id, id, name, role, level, morale, weekly_wage, member_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, int64(m.ID), m.Name, m.Role.Key(), m.Level, m.Morale, m.WeeklyWage, string(memberJSON),
		)
		if err != nil {
			return fmt.Errorf("insert staff %d: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// SaveCreditLines writes every credit line (full replace).
func (db *DB) SaveCreditLines(runID string, lines []*credit.Line) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM credit_lines WHERE run_id = ?", runID); err != nil {
		return err
	}

	for _, l := range lines {
		_, err := tx.Exec(`INSERT INTO credit_lines
			(run_id, id, lender, predatory, enabled, credit_limit, balance, apr, missed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, l.ID, l.Lender, l.Predatory, l.Enabled, l.Limit, l.Balance, l.EffectiveAPR(), l.MissedPayments,
		)
		if err != nil {
			return fmt.Errorf("insert credit line %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair for the run.
func (db *DB) SaveMeta(runID, key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (run_id, key, value) VALUES (?, ?, ?)",
		runID, key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(runID, key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE run_id = ? AND key = ?", runID, key)
	return value, err
}

// SaveRun journals the drained records and, when a week has closed, its
// report and the staff and credit snapshots.
func (db *DB) SaveRun(runID string, sim *engine.Simulation, records []events.Record) error {
	if err := db.SaveEvents(runID, records); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if sim.LastWeek != nil {
		if err := db.SaveReport(runID, *sim.LastWeek); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}
	if err := db.SaveStaff(runID, sim.Staff.Members); err != nil {
		return fmt.Errorf("save staff: %w", err)
	}
	if err := db.SaveCreditLines(runID, sim.Credit.Lines); err != nil {
		return fmt.Errorf("save credit lines: %w", err)
	}
	if err := db.SaveMeta(runID, "clock", engine.SimTime(sim)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if sim.GameOver {
		if err := db.SaveMeta(runID, "game_over", sim.GameOverReason); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}

	slog.Debug("run journaled", "run", runID, "events", len(records), "week", sim.Week)
	return nil
}

// EventRow is one journaled event.
type EventRow struct {
	Week     int    `db:"week" json:"week"`
	Day      int    `db:"day" json:"day"`
	Round    int    `db:"round" json:"round"`
	Kind     string `db:"kind" json:"kind"`
	Category string `db:"category" json:"category"`
	Title    string `db:"title" json:"title,omitempty"`
	Text     string `db:"text" json:"text"`
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]EventRow, error) {
	var rows []EventRow
	err := db.conn.Select(&rows,
		"SELECT week, day, round, kind, category, title, text FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return rows, err
}

// ReportRow is one journaled weekly report.
type ReportRow struct {
	Week        int     `db:"week" json:"week"`
	Revenue     float64 `db:"revenue" json:"revenue"`
	Costs       float64 `db:"costs" json:"costs"`
	Profit      float64 `db:"profit" json:"profit"`
	Tips        float64 `db:"tips" json:"tips"`
	Sales       int     `db:"sales" json:"sales"`
	Fights      int     `db:"fights" json:"fights"`
	Unserved    int     `db:"unserved" json:"unserved"`
	Refunds     int     `db:"refunds" json:"refunds"`
	AvgChaos    float64 `db:"avg_chaos" json:"avg_chaos"`
	Reputation  int     `db:"reputation" json:"reputation"`
	Cash        float64 `db:"cash" json:"cash"`
	Debt        float64 `db:"debt" json:"debt"`
	CreditScore int     `db:"credit_score" json:"credit_score"`
	Identity    string  `db:"identity" json:"identity"`
	PubLevel    int     `db:"pub_level" json:"pub_level"`
}

// Reports returns a run's weekly reports in week order.
func (db *DB) Reports(runID string) ([]ReportRow, error) {
	var rows []ReportRow
	err := db.conn.Select(&rows, `SELECT week, revenue, costs, profit, tips, sales, fights, unserved,
		refunds, avg_chaos, reputation, cash, debt, credit_score, identity, pub_level
		FROM weekly_reports WHERE run_id = ? ORDER BY week`, runID)
	return rows, err
}
