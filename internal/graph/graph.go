// Package graph manages the connections between the contacts of a user and the views derived
// from them.
package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
	"go.uber.org/zap"
)

// CreateInput is the request to connect two contacts. Strength defaults to 3 and Bidirectional
// to true.
type CreateInput struct {
	SourceContactId int64   `json:"sourceContactId"         validate:"required,nefield=TargetContactId"`
	TargetContactId int64   `json:"targetContactId"         validate:"required"`
	ConnectionType  string  `json:"connectionType"          validate:"required,connection_type"`
	Strength        *int    `json:"strength,omitempty"      validate:"omitempty,min=1,max=5"`
	Bidirectional   *bool   `json:"bidirectional,omitempty"`
	Notes           *string `json:"notes,omitempty"         validate:"omitempty,max=2000"`
}

// Service reads and writes the connection graph.
type Service struct {
	store    *store.Store
	validate *validator.Validate
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a graph service. log and m may be nil.
func NewService(s *store.Store, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, validate: newValidator(), log: log, metrics: m}
}

// Create connects two contacts of the user. Both contacts must belong to the user; an edge with
// the same endpoints and type must not exist yet.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Connection, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	connection := &model.Connection{
		UserId:          userID,
		SourceContactId: in.SourceContactId,
		TargetContactId: in.TargetContactId,
		ConnectionType:  model.ConnectionType(in.ConnectionType),
		Strength:        model.DefaultStrength,
		Bidirectional:   true,
		Notes:           in.Notes,
	}
	if in.Strength != nil {
		connection.Strength = *in.Strength
	}
	if in.Bidirectional != nil {
		connection.Bidirectional = *in.Bidirectional
	}

	err := s.store.InTx(ctx, func(q *store.Queries) error {
		owned, err := q.CountOwnedContacts(ctx, userID, in.SourceContactId, in.TargetContactId)
		if err != nil {
			return err
		}
		if owned != 2 {
			return apperror.Validation("source and target must be existing contacts")
		}
		existing, err := q.FindConnection(ctx, userID, in.SourceContactId, in.TargetContactId, connection.ConnectionType)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("connection %d already links these contacts as %s", existing.Id, existing.ConnectionType)
		}
		return q.CreateConnection(ctx, connection)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ConnectionCreated()
	s.log.Debug("Connection created",
		zap.String("user_id", userID),
		zap.Int64("id", connection.Id),
		zap.Int64("source", connection.SourceContactId),
		zap.Int64("target", connection.TargetContactId),
	)
	return connection, nil
}

// Delete removes a connection of the user. Deleting a connection that does not exist or belongs
// to somebody else does nothing.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	_, err := s.store.DeleteConnection(ctx, userID, id)
	return err
}

// ListForContact returns the connections where the contact is either endpoint.
func (s *Service) ListForContact(ctx context.Context, userID string, contactID int64) ([]model.ConnectionView, error) {
	if _, err := s.store.GetContact(ctx, userID, contactID); err != nil {
		return nil, err
	}
	edges, err := s.store.ListConnectionsForContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, userID, edges)
}

// ListAll returns every connection of the user with both endpoints resolved.
func (s *Service) ListAll(ctx context.Context, userID string) ([]model.ConnectionView, error) {
	edges, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, userID, edges)
}

// CountryConnections aggregates the user's connections by the countries of their endpoints.
func (s *Service) CountryConnections(ctx context.Context, userID string) ([]model.CountryConnection, error) {
	edges, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.ContactSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregateCountries(edges, summaries), nil
}

func (s *Service) resolve(ctx context.Context, userID string, edges []model.Connection) ([]model.ConnectionView, error) {
	views := []model.ConnectionView{}
	if len(edges) == 0 {
		return views, nil
	}
	summaries, err := s.store.ContactSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		source, ok := summaries[edge.SourceContactId]
		if !ok {
			continue
		}
		target, ok := summaries[edge.TargetContactId]
		if !ok {
			continue
		}
		views = append(views, model.ConnectionView{Connection: edge, Source: source, Target: target})
	}
	return views, nil
}

type countryPair struct {
	a, b string
}

// aggregateCountries buckets edges by the unordered pair of their endpoints' countries. Edges
// with an endpoint that has no country are left out.
func aggregateCountries(edges []model.Connection, summaries map[int64]model.ContactSummary) []model.CountryConnection {
	buckets := map[countryPair]*model.CountryConnection{}
	for _, edge := range edges {
		a := country(summaries[edge.SourceContactId])
		b := country(summaries[edge.TargetContactId])
		if a == "" || b == "" {
			continue
		}
		if b < a {
			a, b = b, a
		}
		bucket, ok := buckets[countryPair{a, b}]
		if !ok {
			bucket = &model.CountryConnection{CountryA: a, CountryB: b}
			buckets[countryPair{a, b}] = bucket
		}
		bucket.Count++
		bucket.TotalStrength += edge.Strength
		if edge.Strength > bucket.MaxStrength {
			bucket.MaxStrength = edge.Strength
		}
	}

	result := make([]model.CountryConnection, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.AverageStrength = float64(bucket.TotalStrength) / float64(bucket.Count)
		result = append(result, *bucket)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		if result[i].CountryA != result[j].CountryA {
			return result[i].CountryA < result[j].CountryA
		}
		return result[i].CountryB < result[j].CountryB
	})
	return result
}

func country(c model.ContactSummary) string {
	if c.Country == nil {
		return ""
	}
	return strings.TrimSpace(*c.Country)
}
