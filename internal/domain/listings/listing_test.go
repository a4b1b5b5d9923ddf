package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func TestAvailabilityStateMachine(t *testing.T) {
	l, err := New(CreateParams{ID: "l-1", Owner: "o-1", Name: "Drill", RentalRate: 100, Now: now})
	require.NoError(t, err)
	assert.True(t, l.IsAvailable())
	assert.Nil(t, l.AvailableAfter())

	until := now.AddDate(0, 0, 5)
	l.Reserve(until, now)
	assert.Equal(t, StatusReserved, l.Status)
	require.NotNil(t, l.AvailableAfter())
	assert.Equal(t, until, *l.AvailableAfter())
	assert.True(t, l.IsTaken())

	l.MarkRented(now)
	assert.Equal(t, StatusRented, l.Status)
	assert.NotNil(t, l.ReservedUntil)

	l.Release(now)
	assert.Equal(t, StatusAvailable, l.Status)
	assert.Nil(t, l.ReservedUntil)
}

func TestNewValidates(t *testing.T) {
	_, err := New(CreateParams{ID: "l-1", Owner: "o-1", Name: "Drill", RentalRate: 0})
	require.ErrorIs(t, err, ErrRentalRate)
	_, err = New(CreateParams{ID: "l-1", Name: "Drill", RentalRate: 5})
	require.ErrorIs(t, err, ErrOwnerRequired)
}

func TestSearchMatches(t *testing.T) {
	l := &Listing{ID: "l-1", Owner: "o-1", Name: "Mountain Bike", Category: "Sports", Status: StatusReserved}
	assert.True(t, SearchParams{Query: "bike"}.Normalized().Matches(l))
	assert.True(t, SearchParams{Category: "sports"}.Normalized().Matches(l))
	assert.False(t, SearchParams{OnlyAvailable: true}.Normalized().Matches(l))
	assert.False(t, SearchParams{Query: "tent"}.Normalized().Matches(l))

	p := SearchParams{Limit: 1000, Offset: -3}.Normalized()
	assert.Equal(t, maxSearchLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Rented ")
	require.NoError(t, err)
	assert.Equal(t, StatusRented, s)
	_, err = ParseStatus("gone")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
