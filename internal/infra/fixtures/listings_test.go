package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/storage/memory"
)

const sample = `[
  {"id": "l-1", "owner": "u-1", "name": "Tent", "category": "camping", "rentalRate": 100},
  {"id": "l-2", "owner": "u-2", "name": "Kayak", "rentalRate": 250, "status": "reserved", "reservedUntil": "2030-01-05T00:00:00Z"},
  {"id": "l-3", "owner": "u-2", "name": "", "rentalRate": 10}
]`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadListingsImportsValidEntries(t *testing.T) {
	factory := memory.Factory{Store: memory.NewStore()}
	path := writeFixture(t, sample)

	n, err := LoadListings(context.Background(), factory, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	unit, err := factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())

	kayak, err := unit.Listings().ByID(context.Background(), "l-2")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.StatusReserved, kayak.Status)
	require.NotNil(t, kayak.ReservedUntil)
	assert.Equal(t, 2030, kayak.ReservedUntil.Year())
}

func TestLoadListingsSkipsExisting(t *testing.T) {
	factory := memory.Factory{Store: memory.NewStore()}
	path := writeFixture(t, sample)

	_, err := LoadListings(context.Background(), factory, path, nil)
	require.NoError(t, err)
	n, err := LoadListings(context.Background(), factory, path, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadListingsMissingFile(t *testing.T) {
	factory := memory.Factory{Store: memory.NewStore()}
	n, err := LoadListings(context.Background(), factory, filepath.Join(t.TempDir(), "nope.json"), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
