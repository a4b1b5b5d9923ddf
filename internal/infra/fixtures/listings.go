package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
)

type listingFixture struct {
	ID            string   `json:"id"`
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	RentalRate    int64    `json:"rentalRate"`
	Images        []string `json:"images"`
	Status        string   `json:"status"`
	ReservedUntil string   `json:"reservedUntil"`
}

// LoadListings seeds listings from a JSON file. Listings that already exist
// are left untouched, so reloading on every start is harmless.
func LoadListings(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.InfoContext(ctx, "listing fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		logger.WarnContext(ctx, "listing fixtures file empty", "path", path)
		return 0, nil
	}
	var items []listingFixture
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	imported := 0
	for _, fx := range items {
		listing, err := fx.build(now)
		if err != nil {
			logger.ErrorContext(ctx, "fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		created, err := saveIfAbsent(ctx, factory, listing)
		if err != nil {
			return imported, fmt.Errorf("store fixture %s: %w", fx.ID, err)
		}
		if created {
			imported++
			logger.DebugContext(ctx, "listing fixture imported", "listing_id", listing.ID)
		}
	}
	logger.InfoContext(ctx, "listing fixtures loaded", "path", path, "imported", imported, "total", len(items))
	return imported, nil
}

func (fx listingFixture) build(now time.Time) (*domainlistings.Listing, error) {
	status, err := domainlistings.ParseStatus(fx.Status)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(fx.ID),
		Owner:       domainlistings.OwnerID(fx.Owner),
		Name:        fx.Name,
		Description: fx.Description,
		Category:    fx.Category,
		RentalRate:  fx.RentalRate,
		Images:      fx.Images,
		Status:      status,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(fx.ReservedUntil); raw != "" && status != domainlistings.StatusAvailable {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("reservedUntil: %w", err)
		}
		until = until.UTC()
		listing.ReservedUntil = &until
	}
	return listing, nil
}

func saveIfAbsent(ctx context.Context, factory uow.UoWFactory, listing *domainlistings.Listing) (created bool, err error) {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return false, err
	}
	execCtx := uow.Attach(ctx, unit)
	defer func() {
		if err != nil || !created {
			_ = unit.Rollback(execCtx)
		}
	}()

	repo := unit.Listings()
	if _, err := repo.ByID(execCtx, listing.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, domainlistings.ErrNotFound) {
		return false, err
	}
	if err := repo.Save(execCtx, listing); err != nil {
		return false, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return false, err
	}
	return true, nil
}

// DefaultPath picks the first fixtures file present relative to the working directory.
func DefaultPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
