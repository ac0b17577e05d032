package store

import (
	"context"
	"errors"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
)

// selfContactName is the name given to a lazily created self contact.
const selfContactName = "Me"

// DeleteContact deletes a contact of the user together with every connection it is an endpoint
// of and its dependent rows. It returns false if there was no such contact.
func (s *Store) DeleteContact(ctx context.Context, userID string, id int64) (bool, error) {
	var deleted bool
	err := s.InTx(ctx, func(q *Queries) error {
		if _, err := q.GetContact(ctx, userID, id); err != nil {
			return err
		}
		if _, err := q.DeleteConnectionsOfContact(ctx, userID, id); err != nil {
			return err
		}
		if err := q.DeleteDependents(ctx, userID, id); err != nil {
			return err
		}
		n, err := q.DeleteContactRow(ctx, userID, id)
		deleted = n == 1
		return err
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	return deleted, err
}

// EnsureSelfContact returns the user's own contact, creating it on first use.
func (s *Store) EnsureSelfContact(ctx context.Context, userID string) (*model.Contact, error) {
	var self *model.Contact
	err := s.InTx(ctx, func(q *Queries) error {
		existing, err := q.GetSelfContact(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			self = existing
			return nil
		}
		self = &model.Contact{UserId: userID, Name: selfContactName, IsSelf: true}
		return q.CreateContact(ctx, self)
	})
	if err != nil {
		return nil, err
	}
	return self, nil
}
