package sinks

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/dbmigrator"

	"itmscope/common"
	ierr "itmscope/internal/common"
	"itmscope/internal/daq"
	"itmscope/internal/itm"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Row is one recorded scalar. Value is set for numeric ports, Text for char
// ports and for non-finite float values ("NaN", "+Inf", "-Inf").
type Row struct {
	Time  time.Time
	Port  uint8
	Name  string
	Type  string
	Seq   int
	Value sql.NullFloat64
	Text  sql.NullString
}

// Recorder stores decoded values in a sqlite database, one row per scalar.
type Recorder struct {
	db     *sql.DB
	ports  itm.PortConfig
	log    common.Logger
	failed atomic.Uint64
}

// OpenRecorder opens (or creates) the database at path and applies migrations.
func OpenRecorder(path string, ports itm.PortConfig, log common.Logger) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping recorder: %w", err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)

	if log == nil {
		log = common.NewNoOpLogger()
	}
	return &Recorder{db: db, ports: ports, log: log}, nil
}

func (r *Recorder) HandleEvent(ev daq.Event) {
	var err error
	switch ev.Kind {
	case daq.EventValue:
		err = r.Record(NewSample(r.ports, ev))
	case daq.EventOutcome:
		err = r.RecordOutcome(ev.Time, ev.Err)
	default:
		return
	}
	if err != nil {
		r.failed.Add(1)
		r.log.Error(err)
	}
}

// Record inserts one row per scalar of s in a single transaction.
func (r *Recorder) Record(s Sample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("record sample: %w", err)
	}
	defer tx.Rollback()

	ts := s.Time.UnixNano()
	if s.Values != nil {
		for i, v := range s.Values {
			// sqlite has no NaN; keep non-finite values as text
			var value sql.NullFloat64
			var text sql.NullString
			if isFinite(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			} else {
				text = sql.NullString{String: strconv.FormatFloat(v, 'f', -1, 64), Valid: true}
			}
			if _, err := tx.Exec(
				"INSERT INTO samples (recorded_at, port, name, type, seq, value, text) "+
					"VALUES (?, ?, ?, ?, ?, ?, ?)",
				ts, s.Port, s.Name, s.Type, i, value, text,
			); err != nil {
				return fmt.Errorf("record sample: %w", err)
			}
		}
	} else {
		for i, ch := range []byte(s.Text) {
			if _, err := tx.Exec(
				"INSERT INTO samples (recorded_at, port, name, type, seq, text) "+
					"VALUES (?, ?, ?, ?, ?, ?)",
				ts, s.Port, s.Name, s.Type, i, string(rune(ch)),
			); err != nil {
				return fmt.Errorf("record sample: %w", err)
			}
		}
	}
	return tx.Commit()
}

// RecordOutcome stores a recoverable decoder outcome.
func (r *Recorder) RecordOutcome(at time.Time, outcome error) error {
	var port sql.NullInt64
	if p, ok := itm.PortOf(outcome); ok {
		port = sql.NullInt64{Int64: int64(p), Valid: true}
	}
	_, err := r.db.Exec(
		"INSERT INTO outcomes (recorded_at, code, port) VALUES (?, ?, ?)",
		at.UnixNano(), ierr.CodeName(ierr.CodeOf(outcome)), port,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// History returns the most recent rows of port, newest first.
func (r *Recorder) History(port uint8, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(
		"SELECT recorded_at, port, name, type, seq, value, text FROM samples "+
			"WHERE port = ? ORDER BY recorded_at DESC, id DESC LIMIT ?",
		port, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row Row
			ts  int64
		)
		if err := rows.Scan(&ts, &row.Port, &row.Name, &row.Type, &row.Seq, &row.Value, &row.Text); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		row.Time = time.Unix(0, ts)
		out = append(out, row)
	}
	return out, rows.Err()
}

// OutcomeCounts returns recorded outcomes grouped by code name.
func (r *Recorder) OutcomeCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT code, COUNT(*) FROM outcomes GROUP BY code")
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			code string
			n    int
		)
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("scan outcomes: %w", err)
		}
		out[code] = n
	}
	return out, rows.Err()
}

// Failed returns how many events could not be stored.
func (r *Recorder) Failed() uint64 {
	return r.failed.Load()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
