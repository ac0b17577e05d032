package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

const contactColumns = `id, user_id, name, email, phone, company, role, city, country, address,
	website, notes, birthday, lat, lng, is_self`

// ContactColumns are the contact columns that may be written through UpdateContact.
var ContactColumns = []string{
	"name", "email", "phone", "company", "role", "city", "country", "address",
	"website", "notes", "birthday", "lat", "lng",
}

// AllowedOrderby are the allowed values for the 'orderby' parameter of ListContacts.
var AllowedOrderby = []string{"id", "name", "company", "city", "country", "birthday"}

// ContactFilter narrows the result of ListContacts.
type ContactFilter struct {
	NamePrefix string
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
}

// GetContact returns the contact with the given id if it belongs to the user.
func (q *Queries) GetContact(ctx context.Context, userID string, id int64) (*model.Contact, error) {
	var contact model.Contact
	err := sqlx.GetContext(ctx, q.q, &contact,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("contact %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select contact: %w", err)
	}
	return &contact, nil
}

// GetSelfContact returns the user's own contact, or nil if it has not been created yet.
func (q *Queries) GetSelfContact(ctx context.Context, userID string) (*model.Contact, error) {
	var contact model.Contact
	err := sqlx.GetContext(ctx, q.q, &contact,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = ? AND is_self = 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select self contact: %w", err)
	}
	return &contact, nil
}

// ListContacts returns the user's contacts matching the filter.
func (q *Queries) ListContacts(ctx context.Context, userID string, filter ContactFilter) ([]model.Contact, error) {
	orderby := filter.OrderBy
	if orderby == "" {
		orderby = "id"
	}
	if !contains(AllowedOrderby, orderby) {
		return nil, apperror.Validation("invalid orderby parameter")
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM contacts
		WHERE user_id = ? AND name LIKE ? ESCAPE '!'
		ORDER BY %s %s
		LIMIT ?
		OFFSET ?`, contactColumns, orderby, direction)
	contacts := []model.Contact{}
	err := sqlx.SelectContext(ctx, q.q, &contacts, query, userID, likePrefix(filter.NamePrefix), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	return contacts, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePrefix turns a literal prefix into a LIKE pattern, escaping wildcards with '!'.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// CreateContact inserts the contact and sets its newly assigned id.
func (q *Queries) CreateContact(ctx context.Context, contact *model.Contact) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO contacts (user_id, name, email, phone, company, role, city, country, address,
			website, notes, birthday, lat, lng, is_self)
		VALUES (:user_id, :name, :email, :phone, :company, :role, :city, :country, :address,
			:website, :notes, :birthday, :lat, :lng, :is_self)
	`, contact)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read contact id: %w", err)
	}
	contact.Id = id
	return nil
}

// UpdateContact writes the given columns of a contact. Keys of values must be taken from
// ContactColumns. It returns the number of rows that matched id and user.
func (q *Queries) UpdateContact(ctx context.Context, userID string, id int64, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, apperror.Validation("no values to be updated")
	}
	columns := make([]string, 0, len(values))
	for column := range values {
		if !contains(ContactColumns, column) {
			return 0, apperror.Validation("unknown contact field %q", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+2)
	for _, column := range columns {
		sets = append(sets, column+" = ?")
		args = append(args, values[column])
	}
	args = append(args, id, userID)

	result, err := q.q.ExecContext(ctx,
		"UPDATE contacts SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update contact: %w", err)
	}
	// MySQL reports changed rather than matched rows, so an unchanged row counts as zero.
	return result.RowsAffected()
}

// SetSelf sets or clears the self flag of a contact.
func (q *Queries) SetSelf(ctx context.Context, userID string, id int64, self bool) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE contacts SET is_self = ? WHERE id = ? AND user_id = ?`, self, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update self flag: %w", err)
	}
	return nil
}

// DeleteContactRow deletes only the contact row. Callers must remove dependent rows first.
func (q *Queries) DeleteContactRow(ctx context.Context, userID string, id int64) (int64, error) {
	result, err := q.q.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contact: %w", err)
	}
	return result.RowsAffected()
}

// CountOwnedContacts returns how many of the given ids are contacts of the user.
func (q *Queries) CountOwnedContacts(ctx context.Context, userID string, ids ...int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	var count int
	err := sqlx.GetContext(ctx, q.q, &count,
		`SELECT COUNT(*) FROM contacts WHERE user_id = ? AND id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// ContactSummaries returns a summary of every contact of the user keyed by id.
func (q *Queries) ContactSummaries(ctx context.Context, userID string) (map[int64]model.ContactSummary, error) {
	var rows []model.ContactSummary
	err := sqlx.SelectContext(ctx, q.q, &rows,
		`SELECT id, name, city, country, lat, lng FROM contacts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contact summaries: %w", err)
	}
	summaries := make(map[int64]model.ContactSummary, len(rows))
	for _, row := range rows {
		summaries[row.Id] = row
	}
	return summaries, nil
}

// GeoCandidate is a record that is missing coordinates.
type GeoCandidate struct {
	Id      int64   `db:"id"`
	City    *string `db:"city"`
	Country *string `db:"country"`
}

const contactsMissingCoordinates = `user_id = ? AND lat IS NULL
	AND (TRIM(COALESCE(city, '')) <> '' OR TRIM(COALESCE(country, '')) <> '')`

// ContactsMissingCoordinates returns up to limit contacts without coordinates that have a city
// or a country other than blanks, in id order.
func (q *Queries) ContactsMissingCoordinates(ctx context.Context, userID string, limit int) ([]GeoCandidate, error) {
	var rows []GeoCandidate
	err := sqlx.SelectContext(ctx, q.q, &rows,
		`SELECT id, city, country FROM contacts WHERE `+contactsMissingCoordinates+` ORDER BY id LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts without coordinates: %w", err)
	}
	return rows, nil
}

// CountContactsMissingCoordinates counts the contacts ContactsMissingCoordinates would return
// without a limit.
func (q *Queries) CountContactsMissingCoordinates(ctx context.Context, userID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.q, &count,
		`SELECT COUNT(*) FROM contacts WHERE `+contactsMissingCoordinates, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts without coordinates: %w", err)
	}
	return count, nil
}

// SetContactCoordinates stores the coordinates of a contact.
func (q *Queries) SetContactCoordinates(ctx context.Context, userID string, id int64, lat, lng float64) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`UPDATE contacts SET lat = ?, lng = ? WHERE id = ? AND user_id = ?`, lat, lng, id, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update contact coordinates: %w", err)
	}
	return result.RowsAffected()
}

// contains returns true if a string is present in a slice.
func contains(slice []string, str string) bool {
	for _, v := range slice {
		if v == str {
			return true
		}
	}
	return false
}
