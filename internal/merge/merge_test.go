package merge

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/model"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("sqlite", filepath.Join(t.TempDir(), "merge_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func str(s string) *string { return &s }

func float(f float64) *float64 { return &f }

func createContact(t *testing.T, s *store.Store, c *model.Contact) int64 {
	t.Helper()
	if c.UserId == "" {
		c.UserId = "u1"
	}
	require.NoError(t, s.CreateContact(context.Background(), c))
	return c.Id
}

func connect(t *testing.T, s *store.Store, source, target int64, strength int, notes *string) int64 {
	t.Helper()
	c := &model.Connection{
		UserId:          "u1",
		SourceContactId: source,
		TargetContactId: target,
		ConnectionType:  model.ConnectionFriend,
		Strength:        strength,
		Notes:           notes,
	}
	require.NoError(t, s.CreateConnection(context.Background(), c))
	return c.Id
}

// TestMergeCollapsesDuplicateEdges merges B into A where both know X, and B knows A. Exactly one
// A→X edge with the greater strength must remain and no self edge.
func TestMergeCollapsesDuplicateEdges(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := createContact(t, s, &model.Contact{Name: "A"})
	b := createContact(t, s, &model.Contact{Name: "B"})
	x := createContact(t, s, &model.Contact{Name: "X"})
	first := connect(t, s, a, x, 2, str("met at work"))
	connect(t, s, b, x, 4, str("met at work\nclimbing partner"))
	connect(t, s, b, a, 5, nil)
	connect(t, s, x, b, 1, nil)

	merged, err := NewEngine(s, nil, nil).Merge(ctx, "u1", a, b, nil)
	require.NoError(t, err)
	assert.Equal(t, a, merged.Id)

	edges, err := s.ListConnections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, edge := range edges {
		assert.NotEqual(t, edge.SourceContactId, edge.TargetContactId)
		assert.NotEqual(t, b, edge.SourceContactId)
		assert.NotEqual(t, b, edge.TargetContactId)
	}
	ax := edges[1]
	if edges[0].SourceContactId == a {
		ax = edges[0]
	}
	assert.Equal(t, x, ax.TargetContactId)
	assert.Equal(t, 4, ax.Strength)
	assert.NotEqual(t, first, ax.Id)
	require.NotNil(t, ax.Notes)
	assert.Equal(t, "met at work\nclimbing partner", *ax.Notes)

	_, err = s.GetContact(ctx, "u1", b)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// TestMergeFieldPolicy expects the winner's non-empty values to survive, gaps to be filled from
// the loser and overrides to win over both.
func TestMergeFieldPolicy(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := createContact(t, s, &model.Contact{Name: "Anna", Phone: str("111"), Email: str(" "), Company: str("Old")})
	b := createContact(t, s, &model.Contact{
		Name:    "Anna Schmidt",
		Phone:   str("222"),
		Email:   str("anna@example.com"),
		City:    str("Hamburg"),
		Lat:     float(53.55),
		Lng:     float(9.99),
		Company: str("Older"),
	})

	merged, err := NewEngine(s, nil, nil).Merge(ctx, "u1", a, b, map[string]any{
		"name":    "Anna Schmidt",
		"company": "New",
		"notes":   nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna Schmidt", merged.Name)
	assert.Equal(t, "111", *merged.Phone)
	assert.Equal(t, "anna@example.com", *merged.Email)
	assert.Equal(t, "Hamburg", *merged.City)
	assert.Equal(t, "New", *merged.Company)
	assert.Nil(t, merged.Notes)
	require.NotNil(t, merged.Lat)
	assert.Equal(t, 53.55, *merged.Lat)
	assert.Equal(t, 9.99, *merged.Lng)
}

// TestMergeInvalidOverrides expects invalid overrides to fail the merge without any change.
func TestMergeInvalidOverrides(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := createContact(t, s, &model.Contact{Name: "A"})
	b := createContact(t, s, &model.Contact{Name: "B"})
	x := createContact(t, s, &model.Contact{Name: "X"})
	connect(t, s, b, x, 3, nil)

	engine := NewEngine(s, nil, nil)
	for _, overrides := range []map[string]any{
		{"password": "secret"},
		{"is_self": true},
		{"lat": "north", "lng": 2.0},
		{"lat": 0.0, "lng": 181.0},
		{"lat": 10.0},
		{"lng": nil},
		{"birthday": "31.12.1990"},
		{"email": 42},
		{"name": ""},
		{"name": nil},
	} {
		_, err := engine.Merge(ctx, "u1", a, b, overrides)
		assert.ErrorIs(t, err, apperror.ErrValidation, "overrides: %v", overrides)
	}

	_, err := s.GetContact(ctx, "u1", b)
	assert.NoError(t, err)
	edges, err := s.ListConnectionsForContact(ctx, "u1", b)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

// TestMergeNotFound expects contacts of other users and unknown ids to be reported as not found.
func TestMergeNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := createContact(t, s, &model.Contact{Name: "A"})
	foreign := createContact(t, s, &model.Contact{UserId: "u2", Name: "F"})

	engine := NewEngine(s, nil, nil)
	_, err := engine.Merge(ctx, "u1", a, foreign, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = engine.Merge(ctx, "u1", foreign, a, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = engine.Merge(ctx, "u1", a, foreign+1000, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.GetContact(ctx, "u2", foreign)
	assert.NoError(t, err)
}

func TestMergeIntoItself(t *testing.T) {
	s := openTestStore(t)
	a := createContact(t, s, &model.Contact{Name: "A"})
	_, err := NewEngine(s, nil, nil).Merge(context.Background(), "u1", a, a, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// TestMergeSelfContact expects the self flag to move to the winner when the loser is the self
// contact.
func TestMergeSelfContact(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	self, err := s.EnsureSelfContact(ctx, "u1")
	require.NoError(t, err)
	a := createContact(t, s, &model.Contact{Name: "Dirk"})

	merged, err := NewEngine(s, nil, nil).Merge(ctx, "u1", a, self.Id, nil)
	require.NoError(t, err)
	assert.True(t, merged.IsSelf)

	again, err := s.EnsureSelfContact(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, a, again.Id)
}

// dependentSet describes the records attached to a contact in a comparable form.
type dependentSet struct {
	Interactions []string
	Favors       []string
	Tags         []string
	Visited      []string
}

// mergeScenario creates contacts A, B and C, each with its own dependents, merges B and C into
// A in the given order and returns what A ends up with.
func mergeScenario(t *testing.T, order ...string) dependentSet {
	ctx := context.Background()
	s := openTestStore(t)
	ids := map[string]int64{}
	work := &model.Tag{UserId: "u1", Name: "work"}
	require.NoError(t, s.CreateTag(ctx, work))
	for _, name := range []string{"A", "B", "C"} {
		id := createContact(t, s, &model.Contact{Name: name})
		ids[name] = id
		require.NoError(t, s.CreateInteraction(ctx, &model.Interaction{
			UserId: "u1", ContactId: id, Kind: "call", OccurredOn: "2024-03-01", Summary: str("call " + name),
		}))
		require.NoError(t, s.CreateFavor(ctx, &model.Favor{
			UserId: "u1", ContactId: id, Direction: model.FavorGiven, Description: "favor " + name, Status: model.FavorOpen,
		}))
		require.NoError(t, s.AttachTag(ctx, "u1", id, work.Id))
		own := &model.Tag{UserId: "u1", Name: "tag " + name}
		require.NoError(t, s.CreateTag(ctx, own))
		require.NoError(t, s.AttachTag(ctx, "u1", id, own.Id))
		contactID := id
		require.NoError(t, s.CreateVisitedCountry(ctx, &model.VisitedCountry{UserId: "u1", Country: "country " + name, ContactId: &contactID}))
	}

	engine := NewEngine(s, nil, nil)
	for _, loser := range order {
		_, err := engine.Merge(ctx, "u1", ids["A"], ids[loser], nil)
		require.NoError(t, err)
	}

	var set dependentSet
	interactions, err := s.ListInteractions(ctx, "u1", ids["A"])
	require.NoError(t, err)
	for _, i := range interactions {
		set.Interactions = append(set.Interactions, *i.Summary)
	}
	favors, err := s.ListFavors(ctx, "u1", ids["A"])
	require.NoError(t, err)
	for _, f := range favors {
		set.Favors = append(set.Favors, f.Description)
	}
	set.Tags, err = s.ContactTagNames(ctx, "u1", ids["A"])
	require.NoError(t, err)
	visited, err := s.ListVisitedCountries(ctx, "u1")
	require.NoError(t, err)
	for _, v := range visited {
		require.NotNil(t, v.ContactId)
		assert.Equal(t, ids["A"], *v.ContactId)
		set.Visited = append(set.Visited, v.Country)
	}
	sort.Strings(set.Interactions)
	sort.Strings(set.Favors)
	sort.Strings(set.Tags)
	sort.Strings(set.Visited)
	return set
}

// TestMergeOrderIndependent expects merging B then C to leave A with the same dependents as
// merging C then B, and nothing to be lost or duplicated.
func TestMergeOrderIndependent(t *testing.T) {
	bc := mergeScenario(t, "B", "C")
	cb := mergeScenario(t, "C", "B")
	assert.Equal(t, bc, cb)
	assert.Equal(t, dependentSet{
		Interactions: []string{"call A", "call B", "call C"},
		Favors:       []string{"favor A", "favor B", "favor C"},
		Tags:         []string{"tag A", "tag B", "tag C", "work"},
		Visited:      []string{"country A", "country B", "country C"},
	}, bc)
}

func TestCollapseConnections(t *testing.T) {
	edges := []model.Connection{
		{Id: 5, SourceContactId: 1, TargetContactId: 2, ConnectionType: model.ConnectionFriend, Strength: 3, Notes: str("b")},
		{Id: 2, SourceContactId: 1, TargetContactId: 2, ConnectionType: model.ConnectionFriend, Strength: 3, Notes: str("a\nb"), Bidirectional: false},
		{Id: 3, SourceContactId: 1, TargetContactId: 2, ConnectionType: model.ConnectionFamily, Strength: 1},
		{Id: 4, SourceContactId: 1, TargetContactId: 1, ConnectionType: model.ConnectionFriend, Strength: 5},
		{Id: 7, SourceContactId: 1, TargetContactId: 2, ConnectionType: model.ConnectionFriend, Strength: 2, Bidirectional: true},
	}
	updated, removed := collapseConnections(edges)
	assert.Equal(t, []int64{4, 5, 7}, removed)
	require.Len(t, updated, 1)
	assert.Equal(t, int64(2), updated[0].Id)
	assert.Equal(t, 3, updated[0].Strength)
	assert.True(t, updated[0].Bidirectional)
	assert.Equal(t, "a\nb", *updated[0].Notes)
}

func TestMergeNotes(t *testing.T) {
	assert.Nil(t, mergeNotes(nil))
	assert.Nil(t, mergeNotes([]*string{nil, str("  ")}))
	assert.Equal(t, "x\ny", *mergeNotes([]*string{str("x"), nil, str("y\nx")}))
}
