package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
)

func TestNormalizeContactFields(t *testing.T) {
	normalized, err := NormalizeContactFields(map[string]any{
		"name":  "Erika",
		"phone": nil,
		"lat":   json.Number("52.5"),
		"lng":   13,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Erika", "phone": nil, "lat": 52.5, "lng": 13.0}, normalized)

	for _, values := range []map[string]any{
		{"id": 1.0},
		{"isSelf": true},
		{"email": 1.0},
		{"lat": "1", "lng": 1.0},
		{"lat": 90.5, "lng": 0.0},
		{"lat": 0.0, "lng": -180.5},
		{"lat": 10.0},
		{"lat": 10.0, "lng": nil},
		{"lng": 20.0},
		{"lng": nil},
		{"birthday": "31.12.1990"},
		{"birthday": ""},
		{"name": "  "},
	} {
		_, err := NormalizeContactFields(values)
		assert.ErrorIs(t, err, apperror.ErrValidation, "values: %v", values)
	}
}

// TestNormalizeContactFieldsClears expects nil to clear a birthday and a coordinate pair.
func TestNormalizeContactFieldsClears(t *testing.T) {
	normalized, err := NormalizeContactFields(map[string]any{"birthday": nil, "lat": nil, "lng": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"birthday": nil, "lat": nil, "lng": nil}, normalized)

	normalized, err = NormalizeContactFields(map[string]any{"birthday": "1990-12-31"})
	require.NoError(t, err)
	assert.Equal(t, "1990-12-31", normalized["birthday"])
}

func TestValidateCoordinates(t *testing.T) {
	lat, lng, far := 48.85, 2.35, 200.0
	assert.NoError(t, ValidateCoordinates(nil, nil))
	assert.NoError(t, ValidateCoordinates(&lat, &lng))
	assert.ErrorIs(t, ValidateCoordinates(&lat, nil), apperror.ErrValidation)
	assert.ErrorIs(t, ValidateCoordinates(nil, &lng), apperror.ErrValidation)
	assert.ErrorIs(t, ValidateCoordinates(&lat, &far), apperror.ErrValidation)
	assert.ErrorIs(t, ValidateCoordinates(&far, &lng), apperror.ErrValidation)
}

func TestConnectionTypes(t *testing.T) {
	_, ok := ParseConnectionType("friend")
	assert.True(t, ok)
	_, ok = ParseConnectionType("Friend")
	assert.False(t, ok)
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, WishlistStatus("done").Valid())
}
