// Package audit appends destructive operations to the event_log table.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mind-engage/videoquiz/internal/db"
	"github.com/mind-engage/videoquiz/internal/jsonx"
)

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"` // unix seconds
}

type EventRepo struct {
	db     *sql.DB
	driver db.Driver
	siteID string
	now    func() time.Time
}

func NewEventRepo(sqldb *sql.DB, driver db.Driver, siteID string) *EventRepo {
	return &EventRepo{db: sqldb, driver: driver, siteID: siteID, now: time.Now}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES (?,?,?,?,?)`),
		e.SiteID, e.Type, e.Key, e.DataJSON, r.now().Unix())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Record serializes data and appends it as one event.
func (r *EventRepo) Record(ctx context.Context, typ, key string, data any) error {
	b, err := jsonx.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.Append(ctx, Event{Type: typ, Key: key, DataJSON: string(b)})
}

// Recent returns up to limit events, newest first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log ORDER BY seq DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
