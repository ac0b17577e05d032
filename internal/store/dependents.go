package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

// contactScopedTables are the tables with a contact_id column that must follow a contact
// through a merge. contact_tags is handled separately because its rows can collide.
var contactScopedTables = []string{"interactions", "favors", "visited_countries", "wishlist_countries"}

// CreateInteraction inserts the interaction and sets its newly assigned id.
func (q *Queries) CreateInteraction(ctx context.Context, interaction *model.Interaction) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO interactions (user_id, contact_id, kind, occurred_on, summary)
		VALUES (:user_id, :contact_id, :kind, :occurred_on, :summary)
	`, interaction)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	interaction.Id, err = result.LastInsertId()
	return err
}

// ListInteractions returns the interactions with a contact, newest first.
func (q *Queries) ListInteractions(ctx context.Context, userID string, contactID int64) ([]model.Interaction, error) {
	interactions := []model.Interaction{}
	err := sqlx.SelectContext(ctx, q.q, &interactions, `
		SELECT id, user_id, contact_id, kind, occurred_on, summary
		FROM interactions
		WHERE user_id = ? AND contact_id = ?
		ORDER BY occurred_on DESC, id DESC`, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to select interactions: %w", err)
	}
	return interactions, nil
}

// CreateFavor inserts the favor and sets its newly assigned id.
func (q *Queries) CreateFavor(ctx context.Context, favor *model.Favor) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO favors (user_id, contact_id, direction, description, status)
		VALUES (:user_id, :contact_id, :direction, :description, :status)
	`, favor)
	if err != nil {
		return fmt.Errorf("failed to insert favor: %w", err)
	}
	favor.Id, err = result.LastInsertId()
	return err
}

// ListFavors returns the favors exchanged with a contact.
func (q *Queries) ListFavors(ctx context.Context, userID string, contactID int64) ([]model.Favor, error) {
	favors := []model.Favor{}
	err := sqlx.SelectContext(ctx, q.q, &favors, `
		SELECT id, user_id, contact_id, direction, description, status
		FROM favors
		WHERE user_id = ? AND contact_id = ?
		ORDER BY id`, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to select favors: %w", err)
	}
	return favors, nil
}

// CreateTag inserts a tag and sets its newly assigned id.
func (q *Queries) CreateTag(ctx context.Context, tag *model.Tag) error {
	result, err := q.q.ExecContext(ctx, `INSERT INTO tags (user_id, name) VALUES (?, ?)`, tag.UserId, tag.Name)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	tag.Id, err = result.LastInsertId()
	return err
}

// ListTags returns the user's tags ordered by name.
func (q *Queries) ListTags(ctx context.Context, userID string) ([]model.Tag, error) {
	tags := []model.Tag{}
	err := sqlx.SelectContext(ctx, q.q, &tags,
		`SELECT id, user_id, name FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	return tags, nil
}

// FindTag returns the user's tag with the given name, or nil.
func (q *Queries) FindTag(ctx context.Context, userID string, name string) (*model.Tag, error) {
	tags := []model.Tag{}
	err := sqlx.SelectContext(ctx, q.q, &tags,
		`SELECT id, user_id, name FROM tags WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to select tag: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return &tags[0], nil
}

// CountOwnedTags returns 1 if the tag belongs to the user and 0 otherwise.
func (q *Queries) CountOwnedTags(ctx context.Context, userID string, tagID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.q, &count,
		`SELECT COUNT(*) FROM tags WHERE id = ? AND user_id = ?`, tagID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tags: %w", err)
	}
	return count, nil
}

// ContactTagIDs returns the ids of the tags attached to a contact.
func (q *Queries) ContactTagIDs(ctx context.Context, userID string, contactID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, q.q, &ids,
		`SELECT tag_id FROM contact_tags WHERE user_id = ? AND contact_id = ? ORDER BY tag_id`, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contact tags: %w", err)
	}
	return ids, nil
}

// ContactTagNames returns the names of the tags attached to a contact.
func (q *Queries) ContactTagNames(ctx context.Context, userID string, contactID int64) ([]string, error) {
	var names []string
	err := sqlx.SelectContext(ctx, q.q, &names, `
		SELECT t.name
		FROM contact_tags ct
		JOIN tags t ON t.id = ct.tag_id AND t.user_id = ct.user_id
		WHERE ct.user_id = ? AND ct.contact_id = ?
		ORDER BY t.name`, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contact tag names: %w", err)
	}
	return names, nil
}

// AttachTag links a tag to a contact. Attaching an already attached tag is a no-op.
func (q *Queries) AttachTag(ctx context.Context, userID string, contactID, tagID int64) error {
	ids, err := q.ContactTagIDs(ctx, userID, contactID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == tagID {
			return nil
		}
	}
	_, err = q.q.ExecContext(ctx,
		`INSERT INTO contact_tags (user_id, contact_id, tag_id) VALUES (?, ?, ?)`, userID, contactID, tagID)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// DetachTag removes the link between a tag and a contact.
func (q *Queries) DetachTag(ctx context.Context, userID string, contactID, tagID int64) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`DELETE FROM contact_tags WHERE user_id = ? AND contact_id = ? AND tag_id = ?`, userID, contactID, tagID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach tag: %w", err)
	}
	return result.RowsAffected()
}

// CreateVisitedCountry inserts a visited country and sets its newly assigned id.
func (q *Queries) CreateVisitedCountry(ctx context.Context, visited *model.VisitedCountry) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO visited_countries (user_id, country, contact_id, notes)
		VALUES (:user_id, :country, :contact_id, :notes)
	`, visited)
	if err != nil {
		return fmt.Errorf("failed to insert visited country: %w", err)
	}
	visited.Id, err = result.LastInsertId()
	return err
}

// ListVisitedCountries returns the countries the user has visited.
func (q *Queries) ListVisitedCountries(ctx context.Context, userID string) ([]model.VisitedCountry, error) {
	visited := []model.VisitedCountry{}
	err := sqlx.SelectContext(ctx, q.q, &visited,
		`SELECT id, user_id, country, contact_id, notes FROM visited_countries WHERE user_id = ? ORDER BY country, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select visited countries: %w", err)
	}
	return visited, nil
}

// CreateWishlistCountry inserts a wishlist country and sets its newly assigned id.
func (q *Queries) CreateWishlistCountry(ctx context.Context, wish *model.WishlistCountry) error {
	result, err := sqlx.NamedExecContext(ctx, q.q, `
		INSERT INTO wishlist_countries (user_id, country, contact_id, priority, status, notes)
		VALUES (:user_id, :country, :contact_id, :priority, :status, :notes)
	`, wish)
	if err != nil {
		return fmt.Errorf("failed to insert wishlist country: %w", err)
	}
	wish.Id, err = result.LastInsertId()
	return err
}

// ListWishlistCountries returns the user's wishlist.
func (q *Queries) ListWishlistCountries(ctx context.Context, userID string) ([]model.WishlistCountry, error) {
	wishes := []model.WishlistCountry{}
	err := sqlx.SelectContext(ctx, q.q, &wishes, `
		SELECT id, user_id, country, contact_id, priority, status, notes
		FROM wishlist_countries
		WHERE user_id = ?
		ORDER BY country, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select wishlist countries: %w", err)
	}
	return wishes, nil
}

// RepointDependents moves interactions, favors, visited and wishlist rows from one contact to
// another. Rows are neither duplicated nor dropped.
func (q *Queries) RepointDependents(ctx context.Context, userID string, from, to int64) (int64, error) {
	var total int64
	for _, table := range contactScopedTables {
		result, err := q.q.ExecContext(ctx,
			`UPDATE `+table+` SET contact_id = ? WHERE user_id = ? AND contact_id = ?`, to, userID, from)
		if err != nil {
			return 0, fmt.Errorf("failed to repoint %s: %w", table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// RepointContactTags moves the tag links of one contact to another. Tags both contacts carry
// end up linked once.
func (q *Queries) RepointContactTags(ctx context.Context, userID string, from, to int64) error {
	fromTags, err := q.ContactTagIDs(ctx, userID, from)
	if err != nil {
		return err
	}
	for _, tagID := range fromTags {
		if err := q.AttachTag(ctx, userID, to, tagID); err != nil {
			return err
		}
	}
	_, err = q.q.ExecContext(ctx, `DELETE FROM contact_tags WHERE user_id = ? AND contact_id = ?`, userID, from)
	if err != nil {
		return fmt.Errorf("failed to delete repointed contact tags: %w", err)
	}
	return nil
}

// DeleteDependents removes interactions, favors and tag links of a contact and detaches it
// from visited and wishlist countries, which belong to the user rather than the contact.
func (q *Queries) DeleteDependents(ctx context.Context, userID string, contactID int64) error {
	statements := []string{
		`DELETE FROM interactions WHERE user_id = ? AND contact_id = ?`,
		`DELETE FROM favors WHERE user_id = ? AND contact_id = ?`,
		`DELETE FROM contact_tags WHERE user_id = ? AND contact_id = ?`,
		`UPDATE visited_countries SET contact_id = NULL WHERE user_id = ? AND contact_id = ?`,
		`UPDATE wishlist_countries SET contact_id = NULL WHERE user_id = ? AND contact_id = ?`,
	}
	for _, statement := range statements {
		if _, err := q.q.ExecContext(ctx, statement, userID, contactID); err != nil {
			return fmt.Errorf("failed to remove dependents of contact: %w", err)
		}
	}
	return nil
}

// CountReferences counts every row of the user that still references the contact.
func (q *Queries) CountReferences(ctx context.Context, userID string, contactID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q.q, &count, `
		SELECT
			(SELECT COUNT(*) FROM contact_connections
				WHERE user_id = ? AND (source_contact_id = ? OR target_contact_id = ?)) +
			(SELECT COUNT(*) FROM interactions WHERE user_id = ? AND contact_id = ?) +
			(SELECT COUNT(*) FROM favors WHERE user_id = ? AND contact_id = ?) +
			(SELECT COUNT(*) FROM contact_tags WHERE user_id = ? AND contact_id = ?) +
			(SELECT COUNT(*) FROM visited_countries WHERE user_id = ? AND contact_id = ?) +
			(SELECT COUNT(*) FROM wishlist_countries WHERE user_id = ? AND contact_id = ?)`,
		userID, contactID, contactID,
		userID, contactID,
		userID, contactID,
		userID, contactID,
		userID, contactID,
		userID, contactID)
	if err != nil {
		return 0, fmt.Errorf("failed to count references: %w", err)
	}
	return count, nil
}
