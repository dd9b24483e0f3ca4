package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/kilianp07/evflex/core/metrics/kpi"
)

// SQLiteStore persists daily KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS flex_kpi (
        vehicle_id TEXT,
        day INTEGER,
        chains INTEGER,
        drain REAL,
        uncontrolled REAL,
        residual REAL,
        PRIMARY KEY(vehicle_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or accumulates into the record of the same vehicle and day.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO flex_kpi (vehicle_id, day, chains, drain, uncontrolled, residual)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(vehicle_id, day) DO UPDATE SET
            chains = chains + excluded.chains,
            drain = drain + excluded.drain,
            uncontrolled = uncontrolled + excluded.uncontrolled,
            residual = residual + excluded.residual`,
		r.VehicleID, d.Unix(), r.Chains, r.DrainKWh, r.UncontrolledChargingKWh, r.ResidualNeedKWh)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(vehicleID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT vehicle_id, day, chains, drain, uncontrolled, residual
        FROM flex_kpi WHERE vehicle_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		vehicleID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var (
			r  core.Record
			ts int64
		)
		if err := rows.Scan(&r.VehicleID, &ts, &r.Chains, &r.DrainKWh, &r.UncontrolledChargingKWh, &r.ResidualNeedKWh); err != nil {
			return nil, err
		}
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
