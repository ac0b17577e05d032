// Package merge folds a duplicate contact into another one. The absorbed contact, the loser,
// disappears; its connections and dependent records move to the surviving winner.
package merge

import (
	"context"
	"time"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
	"go.uber.org/zap"
)

// Engine merges contacts.
type Engine struct {
	store   *store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewEngine creates a merge engine. log and m may be nil.
func NewEngine(s *store.Store, log *zap.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: s, log: log, metrics: m}
}

// Merge merges the loser into the winner and returns the updated winner. overrides maps contact
// fields to the values the winner should end up with.
//
// The merge runs in one transaction: it either completes, with the loser deleted, or changes
// nothing. It fails with a validation error for winner == loser and for invalid overrides, and
// with a not found error if either contact is not one of the user's.
func (e *Engine) Merge(ctx context.Context, userID string, winnerID, loserID int64, overrides map[string]any) (*model.Contact, error) {
	if winnerID == loserID {
		return nil, apperror.Validation("a contact cannot be merged into itself")
	}
	normalized, err := model.NormalizeContactFields(overrides)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		merged    *model.Contact
		collapsed int
		moved     int64
	)
	err = e.store.InTx(ctx, func(q *store.Queries) error {
		winner, err := q.GetContact(ctx, userID, winnerID)
		if err != nil {
			return err
		}
		loser, err := q.GetContact(ctx, userID, loserID)
		if err != nil {
			return err
		}

		if _, err := q.RepointConnections(ctx, userID, loserID, winnerID); err != nil {
			return err
		}
		selfEdges, err := q.DeleteSelfConnections(ctx, userID, winnerID)
		if err != nil {
			return err
		}
		duplicates, err := collapse(ctx, q, userID, winnerID)
		if err != nil {
			return err
		}
		collapsed = int(selfEdges) + duplicates

		if moved, err = q.RepointDependents(ctx, userID, loserID, winnerID); err != nil {
			return err
		}
		if err := q.RepointContactTags(ctx, userID, loserID, winnerID); err != nil {
			return err
		}

		if _, err := q.UpdateContact(ctx, userID, winnerID, resolveFields(winner, loser, normalized)); err != nil {
			return err
		}
		if loser.IsSelf {
			// The self flag is unique per user, so it has to leave the loser first.
			if err := q.SetSelf(ctx, userID, loserID, false); err != nil {
				return err
			}
			if err := q.SetSelf(ctx, userID, winnerID, true); err != nil {
				return err
			}
		}

		refs, err := q.CountReferences(ctx, userID, loserID)
		if err != nil {
			return err
		}
		if refs != 0 {
			return apperror.Internal("merge left references to the deleted contact", nil)
		}
		if _, err := q.DeleteContactRow(ctx, userID, loserID); err != nil {
			return err
		}

		if merged, err = q.GetContact(ctx, userID, winnerID); err != nil {
			return err
		}
		merged.Tags, err = q.ContactTagNames(ctx, userID, winnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.MergeCompleted(collapsed)
	e.log.Info("Contacts merged",
		zap.String("user_id", userID),
		zap.Int64("winner", winnerID),
		zap.Int64("loser", loserID),
		zap.Int("collapsed_connections", collapsed),
		zap.Int64("moved_records", moved),
		zap.Duration("duration", time.Since(start)),
	)
	return merged, nil
}

// collapse removes duplicate connections of the contact and returns how many were removed.
func collapse(ctx context.Context, q *store.Queries, userID string, contactID int64) (int, error) {
	edges, err := q.ListConnectionsForContact(ctx, userID, contactID)
	if err != nil {
		return 0, err
	}
	updated, removed := collapseConnections(edges)
	for _, id := range removed {
		if _, err := q.DeleteConnection(ctx, userID, id); err != nil {
			return 0, err
		}
	}
	for _, edge := range updated {
		if err := q.UpdateConnection(ctx, edge); err != nil {
			return 0, err
		}
	}
	return len(removed), nil
}
