package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/opr-api/internal/models"
)

// EventRepository reads calls for papers. Events are managed by organizers out of band.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListEndingOnOrAfter returns events whose end date is on or after day.
func (r *EventRepository) ListEndingOnOrAfter(ctx context.Context, day time.Time) ([]models.Event, error) {
	const query = `SELECT id, name, start_date, end_date FROM events WHERE end_date >= $1 ORDER BY start_date ASC, id ASC`
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, models.DateOf(day)); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// GetByID fetches an event.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	const query = `SELECT id, name, start_date, end_date FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}
