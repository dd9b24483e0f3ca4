package store

import (
	"context"
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// Record is one persisted activity row of a pipeline run.
type Record struct {
	RunID string            `json:"run_id"`
	Row   model.ActivityRow `json:"row"`
}

// Query defines filters for retrieving records. Zero values match all.
type Query struct {
	RunID     string
	VehicleID string
	Start     time.Time
	End       time.Time
}

func (q Query) match(r Record) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.VehicleID != "" && r.Row.VehicleID != q.VehicleID {
		return false
	}
	if !q.Start.IsZero() && r.Row.Start.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Row.Start.After(q.End) {
		return false
	}
	return true
}

// Store persists estimated activity rows and supports querying.
type Store interface {
	Append(ctx context.Context, runID string, rows []model.ActivityRow) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
