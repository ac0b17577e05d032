package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

const connectionColumns = `id, user_id, source_contact_id, target_contact_id, connection_type,
	strength, bidirectional, notes`

// ListConnections returns all connections of the user in id order.
func (q *Queries) ListConnections(ctx context.Context, userID string) ([]model.Connection, error) {
	connections := []model.Connection{}
	err := sqlx.SelectContext(ctx, q.q, &connections,
		`SELECT `+connectionColumns+` FROM contact_connections WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select connections: %w", err)
	}
	return connections, nil
}

// ListConnectionsForContact returns the connections where the contact is either endpoint.
func (q *Queries) ListConnectionsForContact(ctx context.Context, userID string, contactID int64) ([]model.Connection, error) {
	connections := []model.Connection{}
	err := sqlx.SelectContext(ctx, q.q, &connections, `
		SELECT `+connectionColumns+`
		FROM contact_connections
		WHERE user_id = ? AND (source_contact_id = ? OR target_contact_id = ?)
		ORDER BY id`, userID, contactID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to select connections of contact: %w", err)
	}
	return connections, nil
}

// FindConnection returns the connection with the given endpoints and type, or nil.
func (q *Queries) FindConnection(ctx context.Context, userID string, sourceID, targetID int64, connectionType model.ConnectionType) (*model.Connection, error) {
	var connection model.Connection
	err := sqlx.GetContext(ctx, q.q, &connection, `
		SELECT `+connectionColumns+`
		FROM contact_connections
		WHERE user_id = ? AND source_contact_id = ? AND target_contact_id = ? AND connection_type = ?
		ORDER BY id
		LIMIT 1`, userID, sourceID, targetID, connectionType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select connection: %w", err)
	}
	return &connection, nil
}

// CreateConnection inserts the connection and sets its newly assigned id.
func (q *Queries) CreateConnection(ctx context.Context, connection *model.Connection) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO contact_connections (user_id, source_contact_id, target_contact_id,
			connection_type, strength, bidirectional, notes)
		VALUES (:user_id, :source_contact_id, :target_contact_id,
			:connection_type, :strength, :bidirectional, :notes)
	`, connection)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read connection id: %w", err)
	}
	connection.Id = id
	return nil
}

// UpdateConnection writes strength, bidirectional and notes of a connection.
func (q *Queries) UpdateConnection(ctx context.Context, connection model.Connection) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE contact_connections
		SET strength = ?, bidirectional = ?, notes = ?
		WHERE id = ? AND user_id = ?`,
		connection.Strength, connection.Bidirectional, connection.Notes, connection.Id, connection.UserId)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	return nil
}

// DeleteConnection deletes a connection and returns the number of deleted rows.
func (q *Queries) DeleteConnection(ctx context.Context, userID string, id int64) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`DELETE FROM contact_connections WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete connection: %w", err)
	}
	return result.RowsAffected()
}

// DeleteConnectionsOfContact deletes every connection where the contact is an endpoint.
func (q *Queries) DeleteConnectionsOfContact(ctx context.Context, userID string, contactID int64) (int64, error) {
	result, err := q.q.ExecContext(ctx, `
		DELETE FROM contact_connections
		WHERE user_id = ? AND (source_contact_id = ? OR target_contact_id = ?)`,
		userID, contactID, contactID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete connections of contact: %w", err)
	}
	return result.RowsAffected()
}

// RepointConnections replaces the contact from by the contact to on both ends of every
// connection of the user.
func (q *Queries) RepointConnections(ctx context.Context, userID string, from, to int64) (int64, error) {
	var total int64
	for _, column := range []string{"source_contact_id", "target_contact_id"} {
		result, err := q.q.ExecContext(ctx,
			`UPDATE contact_connections SET `+column+` = ? WHERE user_id = ? AND `+column+` = ?`,
			to, userID, from)
		if err != nil {
			return 0, fmt.Errorf("failed to repoint %s: %w", column, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// DeleteSelfConnections deletes connections from the contact to itself.
func (q *Queries) DeleteSelfConnections(ctx context.Context, userID string, contactID int64) (int64, error) {
	result, err := q.q.ExecContext(ctx, `
		DELETE FROM contact_connections
		WHERE user_id = ? AND source_contact_id = ? AND target_contact_id = ?`,
		userID, contactID, contactID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete self connections: %w", err)
	}
	return result.RowsAffected()
}
