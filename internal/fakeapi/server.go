// Package fakeapi is an in-process stand-in for the marketplace REST API. It
// implements registration, admin login and order placement with idempotency
// keys and injectable rate limiting, and records every request for assertions.
package fakeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"coziyoo-seed/internal/model"

	"github.com/rs/zerolog"
)

// RegisteredUser is a user known to the fake API.
type RegisteredUser struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	FullName    string
	UserType    model.Role
	CountryCode string
	Language    string
	Token       string
}

// OrderBody is the decoded body of POST /v1/orders.
type OrderBody struct {
	SellerID        string                `json:"sellerId"`
	DeliveryType    string                `json:"deliveryType"`
	DeliveryAddress model.DeliveryAddress `json:"deliveryAddress"`
	Items           []model.OrderItem     `json:"items"`
}

// Order is an order accepted by the fake API.
type Order struct {
	ID             string
	BuyerID        string
	IdempotencyKey string
	Body           OrderBody
}

// OrderAttempt is one received order submission, accepted or not.
type OrderAttempt struct {
	IdempotencyKey string
	Status         int
}

// Options configures the fake API.
type Options struct {
	AdminEmail    string
	AdminPassword string

	// OnRegister runs after a registration is validated and before it is
	// acknowledged. A non-nil error answers 500.
	OnRegister func(ctx context.Context, user RegisteredUser) error

	// ValidateOrder runs before an order is accepted. A non-nil error answers 422.
	ValidateOrder func(ctx context.Context, buyerID string, body OrderBody) error
}

// Server is the fake marketplace API.
type Server struct {
	opts   Options
	logger zerolog.Logger

	mu              sync.Mutex
	users           []*RegisteredUser
	usersByEmail    map[string]*RegisteredUser
	usersByID       map[string]*RegisteredUser
	usersByToken    map[string]*RegisteredUser
	ordersByKey     map[string]*Order
	orders          []*Order
	attempts        []OrderAttempt
	throttleByKey   map[string]int
	throttleNew     int
	failOrderStatus int
	failRegister    map[string]int
}

// New creates a fake API.
func New(opts Options, logger zerolog.Logger) *Server {
	return &Server{
		opts:          opts,
		logger:        logger.With().Str("component", "fakeapi").Logger(),
		usersByEmail:  make(map[string]*RegisteredUser),
		usersByID:     make(map[string]*RegisteredUser),
		usersByToken:  make(map[string]*RegisteredUser),
		ordersByKey:   make(map[string]*Order),
		throttleByKey: make(map[string]int),
		failRegister:  make(map[string]int),
	}
}

// Start serves the fake API on a local test server.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// Handler returns the HTTP routes of the fake API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/v1/auth/register", s.register)
	mux.HandleFunc("/v1/admin/auth/login", s.adminLogin)
	mux.HandleFunc("/v1/orders", s.createOrder)

	return recovery(s.logger)(mux)
}

// ThrottleOrders makes the next n submissions of every new idempotency key
// answer 429 before the key is accepted.
func (s *Server) ThrottleOrders(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttleNew = n
}

// ThrottleKey makes the next n submissions with key answer 429.
func (s *Server) ThrottleKey(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttleByKey[key] = n
}

// FailOrders makes every order submission answer status. Zero disables it.
func (s *Server) FailOrders(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOrderStatus = status
}

// FailRegistration makes registration of email answer status.
func (s *Server) FailRegistration(email string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRegister[email] = status
}

// Users returns the registered users in registration order.
func (s *Server) Users() []RegisteredUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RegisteredUser, len(s.users))
	for i, u := range s.users {
		out[i] = *u
	}
	return out
}

// User returns the user with id.
func (s *Server) User(id string) (RegisteredUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[id]
	if !ok {
		return RegisteredUser{}, false
	}
	return *u, true
}

// Orders returns accepted orders in acceptance order.
func (s *Server) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = *o
	}
	return out
}

// OrderAttempts returns every order submission received.
func (s *Server) OrderAttempts() []OrderAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OrderAttempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
