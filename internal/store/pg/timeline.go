package pg

import (
	"context"
	"database/sql"

	"benchtrack.org/internal/timeline"
)

// Timeline returns the append-only event/activity store.
func (s *Store) Timeline() timeline.Store { return &timelineStore{db: s.db} }

type timelineStore struct{ db *sql.DB }

var _ timeline.Store = (*timelineStore)(nil)

func (s *timelineStore) AppendProductEvent(ctx context.Context, e *timeline.ProductEvent) error {
	_, err := s.db.ExecContext(ctx,
		`insert into product_events(id, product_id, event_type, description, user_id, created_at)
		 values($1,$2,$3,$4,nullif($5,''),$6)`,
		e.ID, e.ProductID, string(e.EventType), e.Description, e.UserID, e.CreatedAt,
	)
	return err
}

func (s *timelineStore) AppendActivity(ctx context.Context, a *timeline.ActivityLog) error {
	_, err := s.db.ExecContext(ctx,
		`insert into activity_logs(id, user_id, action, entity_type, entity_id, description, created_at)
		 values($1,nullif($2,''),$3,$4,$5,$6,$7)`,
		a.ID, a.UserID, a.Action, a.EntityType, a.EntityID, a.Description, a.CreatedAt,
	)
	return err
}

func (s *timelineStore) ProductEvents(ctx context.Context, productID string) ([]timeline.ProductEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, product_id, event_type, description, coalesce(user_id,''), created_at
		 from product_events where product_id=$1 order by created_at desc`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeline.ProductEvent
	for rows.Next() {
		var e timeline.ProductEvent
		var eventType string
		if err := rows.Scan(&e.ID, &e.ProductID, &eventType, &e.Description, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EventType = timeline.EventType(eventType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *timelineStore) Activities(ctx context.Context, limit int) ([]timeline.ActivityLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, coalesce(user_id,''), action, entity_type, entity_id, description, created_at
		 from activity_logs order by created_at desc limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeline.ActivityLog
	for rows.Next() {
		var a timeline.ActivityLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
