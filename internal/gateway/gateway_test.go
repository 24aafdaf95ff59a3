package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"coziyoo-seed/internal/fakeapi"
	"coziyoo-seed/internal/model"
	"coziyoo-seed/internal/retry"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTimer fires immediately and records the requested delays.
type recordingTimer struct {
	mu     *sync.Mutex
	delays *[]time.Duration
	ch     chan time.Time
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	*t.delays = append(*t.delays, d)
	t.mu.Unlock()
	t.ch = make(chan time.Time, 1)
	t.ch <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time { return t.ch }

func newTestClient(t *testing.T, baseURL string, maxAttempts int, delays *[]time.Duration) *Client {
	t.Helper()

	var mu sync.Mutex
	client, err := NewClient(Config{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		CountryCode: "TR",
		Language:    "tr",
		OrderRetry: retry.Policy{
			MaxAttempts: maxAttempts,
			BaseDelay:   time.Second,
			NewTimer: func() backoff.Timer {
				return &recordingTimer{mu: &mu, delays: delays}
			},
		},
	}, nil, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func registerPair(t *testing.T, client *Client) (model.UserAccount, model.UserAccount) {
	t.Helper()
	ctx := context.Background()

	buyer, err := client.RegisterUser(ctx, RegistrationRequest{
		Email: "buyer@x", Password: "pw", DisplayName: "buyer", FullName: "Ali Kaya", Role: model.RoleBuyer,
	})
	require.NoError(t, err)
	seller, err := client.RegisterUser(ctx, RegistrationRequest{
		Email: "seller@x", Password: "pw", DisplayName: "seller", FullName: "İrem Kurt", Role: model.RoleSeller,
	})
	require.NoError(t, err)
	return buyer, seller
}

func sampleOrder(sellerID, key string) model.OrderRequest {
	return model.OrderRequest{
		SellerID:       sellerID,
		Items:          []model.OrderItem{{FoodID: "food-1", Quantity: 2}},
		IdempotencyKey: key,
		DeliveryAddress: model.DeliveryAddress{
			Country: "TR", City: "İstanbul", District: "Merkez", Line: "Deneme Sokak No:1", PostalCode: "34000",
		},
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{OrderRetry: retry.DefaultPolicy()}, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")

	_, err = NewClient(Config{BaseURL: "http://x", OrderRetry: retry.Policy{}}, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order retry policy")

	client, err := NewClient(Config{BaseURL: "http://x/", OrderRetry: retry.DefaultPolicy()}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "http://x", client.BaseURL())
}

func TestClient_RegisterUser(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)

	account, err := client.RegisterUser(context.Background(), RegistrationRequest{
		Email:       "fatma_karaca.seed.1@coziyoo.local",
		Password:    "Seller12345!",
		DisplayName: "fatma_karaca_seed_1",
		FullName:    "Fatma Karaca",
		Role:        model.RoleSeller,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, account.UserID)
	assert.NotEmpty(t, account.AccessToken)
	assert.Equal(t, model.RoleSeller, account.Role)
	assert.Equal(t, "Fatma Karaca", account.FullName)

	registered, ok := fake.User(account.UserID)
	require.True(t, ok)
	assert.Equal(t, "TR", registered.CountryCode)
	assert.Equal(t, "tr", registered.Language)
	assert.Equal(t, model.RoleSeller, registered.UserType)
}

func TestClient_RegisterUser_Rejected(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	fake.FailRegistration("taken@x", http.StatusUnprocessableEntity)
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)

	_, err := client.RegisterUser(context.Background(), RegistrationRequest{
		Email: "taken@x", Password: "pw", DisplayName: "d", Role: model.RoleBuyer,
	})

	require.Error(t, err)
	var regErr *model.RegistrationError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, http.StatusUnprocessableEntity, regErr.StatusCode)
	assert.Contains(t, regErr.Body, "REGISTRATION_REJECTED")
	assert.Equal(t, "taken@x", regErr.Email)
}

func TestClient_RegisterUser_MalformedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"user":{}}}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)

	_, err := client.RegisterUser(context.Background(), RegistrationRequest{
		Email: "a@x", Password: "pw", DisplayName: "d", Role: model.RoleBuyer,
	})

	var regErr *model.RegistrationError
	require.True(t, errors.As(err, &regErr))
	assert.Contains(t, err.Error(), "missing user id")
}

func TestClient_RegisterUser_InvalidRole(t *testing.T) {
	var delays []time.Duration
	client := newTestClient(t, "http://unused.test", 3, &delays)

	_, err := client.RegisterUser(context.Background(), RegistrationRequest{Email: "a@x", Role: "admin"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestClient_LoginAdmin(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{AdminEmail: "admin@coziyoo.com", AdminPassword: "12345"}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)

	token, err := client.LoginAdmin(context.Background(), "admin@coziyoo.com", "12345")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = client.LoginAdmin(context.Background(), "admin@coziyoo.com", "wrong")
	require.Error(t, err)
	var authErr *model.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "INVALID_CREDENTIALS")
}

func TestClient_SubmitOrder_Success(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)
	buyer, seller := registerPair(t, client)

	confirmation, err := client.SubmitOrder(context.Background(), buyer.AccessToken, sampleOrder(seller.UserID, "api-seed-order-s-1-1"))

	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.OrderID)
	orders := fake.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, buyer.UserID, orders[0].BuyerID)
	assert.Equal(t, "delivery", orders[0].Body.DeliveryType)
	assert.Equal(t, "İstanbul", orders[0].Body.DeliveryAddress.City)
	assert.Empty(t, delays)
}

func TestClient_SubmitOrder_RetriesRateLimitWithSameKey(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 5, &delays)
	buyer, seller := registerPair(t, client)
	fake.ThrottleKey("api-seed-order-s-1-1", 3)

	confirmation, err := client.SubmitOrder(context.Background(), buyer.AccessToken, sampleOrder(seller.UserID, "api-seed-order-s-1-1"))

	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.OrderID)

	attempts := fake.OrderAttempts()
	require.Len(t, attempts, 4)
	for _, a := range attempts {
		assert.Equal(t, "api-seed-order-s-1-1", a.IdempotencyKey)
	}
	assert.Equal(t, http.StatusCreated, attempts[3].Status)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	assert.Len(t, fake.Orders(), 1)
}

func TestClient_SubmitOrder_RateLimitExhausted(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 4, &delays)
	buyer, seller := registerPair(t, client)
	fake.ThrottleKey("k-1-1", 100)

	_, err := client.SubmitOrder(context.Background(), buyer.AccessToken, sampleOrder(seller.UserID, "k-1-1"))

	require.Error(t, err)
	var subErr *model.OrderSubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 4, subErr.Attempts)
	assert.Equal(t, http.StatusTooManyRequests, subErr.StatusCode)
	assert.Equal(t, "k-1-1", subErr.IdempotencyKey)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.ErrorIs(t, err, model.ErrRateLimited)
	assert.Len(t, fake.OrderAttempts(), 4)
	assert.Empty(t, fake.Orders())
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1])
	}
}

func TestClient_SubmitOrder_OtherStatusIsTerminal(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{}, zerolog.Nop())
	srv := fake.Start()
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 5, &delays)
	buyer, seller := registerPair(t, client)
	fake.FailOrders(http.StatusServiceUnavailable)

	_, err := client.SubmitOrder(context.Background(), buyer.AccessToken, sampleOrder(seller.UserID, "k-1-1"))

	var subErr *model.OrderSubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 1, subErr.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, subErr.StatusCode)
	assert.Contains(t, subErr.Body, "ORDER_REJECTED")
	assert.NotErrorIs(t, err, retry.ErrExhausted)
	assert.Empty(t, delays)
}

func TestClient_SubmitOrder_TransportErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var delays []time.Duration
	client := newTestClient(t, url, 5, &delays)

	_, err := client.SubmitOrder(context.Background(), "token", sampleOrder("seller", "k-1-1"))

	var subErr *model.OrderSubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, 1, subErr.Attempts)
	assert.Equal(t, 0, subErr.StatusCode)
}

func TestClient_SubmitOrder_RequiresKey(t *testing.T) {
	var delays []time.Duration
	client := newTestClient(t, "http://unused.test", 3, &delays)

	_, err := client.SubmitOrder(context.Background(), "token", sampleOrder("seller", ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "idempotency key is required")
}

func TestClient_SubmitOrder_Payload(t *testing.T) {
	var got map[string]any
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"orderId":"o-1"}}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	client := newTestClient(t, srv.URL, 3, &delays)
	lat, lon := 41.0, 29.0
	req := sampleOrder("seller-1", "k-2-3")
	req.DeliveryAddress.Latitude = &lat
	req.DeliveryAddress.Longitude = &lon

	confirmation, err := client.SubmitOrder(context.Background(), "buyer-token", req)

	require.NoError(t, err)
	assert.Equal(t, "o-1", confirmation.OrderID)
	assert.Equal(t, "Bearer buyer-token", headers.Get("Authorization"))
	assert.Equal(t, "k-2-3", headers.Get("Idempotency-Key"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "seller-1", got["sellerId"])
	assert.Equal(t, "delivery", got["deliveryType"])
	address := got["deliveryAddress"].(map[string]any)
	assert.Equal(t, 41.0, address["latitude"])
	assert.Equal(t, "34000", address["postalCode"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "food-1", items[0].(map[string]any)["foodId"])
}
