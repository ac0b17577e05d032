package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

// CreateTrip inserts the trip and sets its newly assigned id.
func (q *Queries) CreateTrip(ctx context.Context, trip *model.Trip) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO trips (user_id, city, country, arrival_date, departure_date, duration_days, notes, lat, lng)
		VALUES (:user_id, :city, :country, :arrival_date, :departure_date, :duration_days, :notes, :lat, :lng)
	`, trip)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	trip.Id, err = result.LastInsertId()
	return err
}

// ListTrips returns the user's trips ordered by arrival.
func (q *Queries) ListTrips(ctx context.Context, userID string) ([]model.Trip, error) {
	trips := []model.Trip{}
	err := sqlx.SelectContext(ctx, q.q, &trips, `
		SELECT id, user_id, city, country, arrival_date, departure_date, duration_days, notes, lat, lng
		FROM trips
		WHERE user_id = ?
		ORDER BY arrival_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select trips: %w", err)
	}
	return trips, nil
}

// DeleteTrip deletes a trip and returns the number of deleted rows.
func (q *Queries) DeleteTrip(ctx context.Context, userID string, id int64) (int64, error) {
	result, err := q.q.ExecContext(ctx, `DELETE FROM trips WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trip: %w", err)
	}
	return result.RowsAffected()
}

// TripsMissingCoordinates returns up to limit trips without coordinates in id order.
func (q *Queries) TripsMissingCoordinates(ctx context.Context, userID string, limit int) ([]GeoCandidate, error) {
	var rows []GeoCandidate
	err := sqlx.SelectContext(ctx, q.q, &rows,
		`SELECT id, city, country FROM trips WHERE user_id = ? AND lat IS NULL ORDER BY id LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select trips without coordinates: %w", err)
	}
	return rows, nil
}

// CountTripsMissingCoordinates counts the user's trips without coordinates.
func (q *Queries) CountTripsMissingCoordinates(ctx context.Context, userID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.q, &count,
		`SELECT COUNT(*) FROM trips WHERE user_id = ? AND lat IS NULL`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips without coordinates: %w", err)
	}
	return count, nil
}

// SetTripCoordinates stores the coordinates of a trip.
func (q *Queries) SetTripCoordinates(ctx context.Context, userID string, id int64, lat, lng float64) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`UPDATE trips SET lat = ?, lng = ? WHERE id = ? AND user_id = ?`, lat, lng, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update trip coordinates: %w", err)
	}
	return result.RowsAffected()
}
