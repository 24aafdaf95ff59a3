package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"coziyoo-seed/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	UserType    string `json:"userType"`
	CountryCode string `json:"countryCode"`
	Language    string `json:"language"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error envelope with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Debug().Str("code", code).Int("status", status).Msg("fake api error")
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// recovery turns handler panics into 500 responses.
func recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")
					writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", logger)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", s.logger)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", s.logger)
		return
	}

	role := model.Role(req.UserType)
	switch {
	case req.Email == "" || req.Password == "" || req.DisplayName == "":
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "email, password and displayName are required", s.logger)
		return
	case !role.Valid():
		writeError(w, http.StatusBadRequest, "INVALID_USER_TYPE", "userType must be buyer or seller", s.logger)
		return
	}

	s.mu.Lock()
	if status, ok := s.failRegister[req.Email]; ok {
		s.mu.Unlock()
		writeError(w, status, "REGISTRATION_REJECTED", "registration rejected", s.logger)
		return
	}
	if _, exists := s.usersByEmail[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered", s.logger)
		return
	}
	s.mu.Unlock()

	user := RegisteredUser{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		FullName:    req.FullName,
		UserType:    role,
		CountryCode: req.CountryCode,
		Language:    req.Language,
		Token:       "tok_" + uuid.NewString(),
	}

	if s.opts.OnRegister != nil {
		if err := s.opts.OnRegister(r.Context(), user); err != nil {
			s.logger.Error().Err(err).Str("email", user.Email).Msg("register hook failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), s.logger)
			return
		}
	}

	s.mu.Lock()
	stored := user
	s.users = append(s.users, &stored)
	s.usersByEmail[user.Email] = &stored
	s.usersByID[user.ID] = &stored
	s.usersByToken[user.Token] = &stored
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, dataResponse{Data: map[string]any{
		"user": map[string]any{
			"id":          user.ID,
			"email":       user.Email,
			"displayName": user.DisplayName,
			"userType":    user.UserType,
		},
		"tokens": map[string]any{
			"accessToken":  user.Token,
			"refreshToken": "ref_" + user.ID,
		},
	}})
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", s.logger)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", s.logger)
		return
	}

	if req.Email != s.opts.AdminEmail || req.Password != s.opts.AdminPassword {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials", s.logger)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: map[string]any{
		"admin":  map[string]any{"email": req.Email},
		"tokens": map[string]any{"accessToken": "adm_" + uuid.NewString()},
	}})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", s.logger)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	status := s.serveOrder(w, r, key)

	s.mu.Lock()
	s.attempts = append(s.attempts, OrderAttempt{IdempotencyKey: key, Status: status})
	s.mu.Unlock()
}

func (s *Server) serveOrder(w http.ResponseWriter, r *http.Request, key string) int {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	buyer := s.usersByToken[token]
	s.mu.Unlock()
	if !ok || buyer == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", s.logger)
		return http.StatusUnauthorized
	}
	if buyer.UserType != model.RoleBuyer {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "only buyers can order", s.logger)
		return http.StatusForbidden
	}

	if key == "" {
		writeError(w, http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required", s.logger)
		return http.StatusBadRequest
	}

	s.mu.Lock()
	if s.failOrderStatus != 0 {
		status := s.failOrderStatus
		s.mu.Unlock()
		writeError(w, status, "ORDER_REJECTED", "order rejected", s.logger)
		return status
	}
	remaining, seen := s.throttleByKey[key]
	if !seen && s.throttleNew > 0 {
		if _, accepted := s.ordersByKey[key]; !accepted {
			remaining = s.throttleNew
		}
	}
	if remaining > 0 {
		s.throttleByKey[key] = remaining - 1
		s.mu.Unlock()
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", s.logger)
		return http.StatusTooManyRequests
	}
	if existing, ok := s.ordersByKey[key]; ok {
		s.mu.Unlock()
		if existing.BuyerID != buyer.ID {
			writeError(w, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED", "idempotency key belongs to another buyer", s.logger)
			return http.StatusConflict
		}
		writeJSON(w, http.StatusCreated, dataResponse{Data: map[string]any{"orderId": existing.ID, "replayed": true}})
		return http.StatusCreated
	}
	s.mu.Unlock()

	var body OrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", s.logger)
		return http.StatusBadRequest
	}
	if code, msg := s.validateOrderBody(body); code != "" {
		writeError(w, http.StatusBadRequest, code, msg, s.logger)
		return http.StatusBadRequest
	}
	if s.opts.ValidateOrder != nil {
		if err := s.opts.ValidateOrder(r.Context(), buyer.ID, body); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "ORDER_INVALID", err.Error(), s.logger)
			return http.StatusUnprocessableEntity
		}
	}

	order := &Order{
		ID:             uuid.NewString(),
		BuyerID:        buyer.ID,
		IdempotencyKey: key,
		Body:           body,
	}

	s.mu.Lock()
	if existing, ok := s.ordersByKey[key]; ok {
		order = existing
	} else {
		s.ordersByKey[key] = order
		s.orders = append(s.orders, order)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, dataResponse{Data: map[string]any{"orderId": order.ID}})
	return http.StatusCreated
}

func (s *Server) validateOrderBody(body OrderBody) (string, string) {
	s.mu.Lock()
	seller := s.usersByID[body.SellerID]
	s.mu.Unlock()

	switch {
	case seller == nil || seller.UserType != model.RoleSeller:
		return "SELLER_NOT_FOUND", "seller not found"
	case body.DeliveryType != "delivery" && body.DeliveryType != "pickup":
		return "INVALID_DELIVERY_TYPE", "deliveryType must be delivery or pickup"
	case len(body.Items) == 0:
		return "MISSING_FIELD", "items are required"
	}

	seen := make(map[string]bool, len(body.Items))
	for _, item := range body.Items {
		if item.FoodID == "" || item.Quantity < 1 {
			return "INVALID_ITEM", "each item needs foodId and a positive quantity"
		}
		if seen[item.FoodID] {
			return "DUPLICATE_ITEM", "food listed twice"
		}
		seen[item.FoodID] = true
	}
	return "", ""
}
