package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app"
	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/uow"
	domainlistings "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/listings"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/config"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/obs"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/payments"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/storage/memory"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/validation"
)

var testSecret = []byte("test-secret")

type testServer struct {
	router  *gin.Engine
	factory memory.Factory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dispatcher := appoutbox.NewDispatcher()
	box := memory.NewOutbox(dispatcher)
	factory := memory.Factory{Store: memory.NewStore(), Outbox: box}
	application := app.New(app.Deps{
		UoWFactory:  factory,
		Outbox:      box,
		Dispatcher:  dispatcher,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Validator:   validation.New(),
		Payments:    payments.Simulated{},
	})
	router := NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Orders:         OrderHandler{Commands: application.Commands, Queries: application.Queries},
		Admin:          AdminHandler{Commands: application.Commands, Queries: application.Queries},
		Cart:           CartHandler{Commands: application.Commands, Queries: application.Queries},
		Notifications:  NotificationHandler{Commands: application.Commands, Queries: application.Queries},
		Listings:       ListingHandler{Queries: application.Queries},
		AuthMiddleware: AuthMiddleware{Secret: testSecret}.Handle,
	})
	return &testServer{router: router, factory: factory}
}

func (s *testServer) seedListing(t *testing.T, id, owner string, rate int64) {
	t.Helper()
	ctx := context.Background()
	l, err := domainlistings.New(domainlistings.CreateParams{
		ID:         domainlistings.ListingID(id),
		Owner:      domainlistings.OwnerID(owner),
		Name:       "Item " + id,
		RentalRate: rate,
		Now:        time.Now(),
	})
	require.NoError(t, err)
	unit, err := s.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, l))
	require.NoError(t, unit.Commit(ctx))
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"userId": userID, "exp": time.Now().Add(time.Hour).Unix()}
	if role != "" {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestFeeBreakdownIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/orders/fee-breakdown", "", map[string]any{"subtotal": 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 50, body["platformFee"])
	assert.EqualValues(t, 50, body["insuranceFee"])
	assert.EqualValues(t, 600, body["totalPrice"])

	rec = s.do(t, http.MethodPost, "/api/v1/orders/fee-breakdown", "", map[string]any{"subtotal": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "u-1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/cart", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", token(t, "u-1", ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnerCannotAddOwnListing(t *testing.T) {
	s := newTestServer(t)
	s.seedListing(t, "l-1", "owner", 100)

	rec := s.do(t, http.MethodPost, "/api/v1/cart", token(t, "owner", ""), map[string]any{"listingId": "l-1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[map[string]any](t, rec)["kind"])
}

func TestCheckoutApproveFlow(t *testing.T) {
	s := newTestServer(t)
	s.seedListing(t, "l-1", "owner", 100)
	renter := token(t, "renter", "")
	owner := token(t, "owner", "")

	rec := s.do(t, http.MethodPost, "/api/v1/cart", renter, map[string]any{"listingId": "l-1", "rentalDays": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[struct {
		Cart struct {
			ID string `json:"id"`
		} `json:"cart"`
	}](t, rec)
	require.NotEmpty(t, added.Cart.ID)

	rec = s.do(t, http.MethodPost, "/api/v1/orders/payment", renter, map[string]any{
		"cartId":    added.Cart.ID,
		"startDate": "2030-01-01",
		"endDate":   "2030-01-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[struct {
		Orders []struct {
			ID   string `json:"id"`
			Fees struct {
				Subtotal   int64 `json:"subtotal"`
				TotalPrice int64 `json:"totalPrice"`
			} `json:"fees"`
			Status string `json:"status"`
		} `json:"orders"`
	}](t, rec)
	require.Len(t, placed.Orders, 1)
	assert.Equal(t, "pending", placed.Orders[0].Status)
	assert.EqualValues(t, 500, placed.Orders[0].Fees.Subtotal)
	assert.EqualValues(t, 600, placed.Orders[0].Fees.TotalPrice)

	rec = s.do(t, http.MethodGet, "/api/v1/listings/l-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[map[string]any](t, rec)
	assert.Equal(t, "reserved", listing["status"])
	assert.Equal(t, false, listing["isAvailable"])

	rec = s.do(t, http.MethodPost, "/api/v1/cart", token(t, "someone", ""), map[string]any{"listingId": "l-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	orderID := placed.Orders[0].ID
	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", renter, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/orders/"+orderID+"/status", owner, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/listings/l-1", "", nil)
	assert.Equal(t, "rented", decode[map[string]any](t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/api/v1/notifications", renter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[struct {
		Items []struct {
			Type string `json:"type"`
		} `json:"notifications"`
		UnreadCount int `json:"unreadCount"`
	}](t, rec)
	require.Len(t, notes.Items, 1)
	assert.Equal(t, "order_approved", notes.Items[0].Type)
	assert.Equal(t, 1, notes.UnreadCount)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/v1/cart", renter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string]any](t, rec)["items"])
}

func TestUnknownOrderIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPut, "/api/v1/orders/missing/cancel", token(t, "u-1", ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]any](t, rec)["kind"])
}

func TestAdminListRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/admin/orders", token(t, "u-1", ""), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/orders?status=pending", token(t, "root", "admin"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBatchRejectsEmptyIDs(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPut, "/api/v1/admin/orders/batch", token(t, "root", "admin"), map[string]any{"orderIds": []string{}, "status": "approved"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
