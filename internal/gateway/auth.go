package gateway

import (
	"context"
	"fmt"
	"net/http"

	"coziyoo-seed/internal/model"
)

// RegistrationRequest describes an account to register.
type RegistrationRequest struct {
	Email       string
	Password    string
	DisplayName string
	FullName    string
	Role        model.Role
}

type registerPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName,omitempty"`
	UserType    string `json:"userType"`
	CountryCode string `json:"countryCode,omitempty"`
	Language    string `json:"language,omitempty"`
}

type registerData struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

type loginData struct {
	Tokens struct {
		AccessToken string `json:"accessToken"`
	} `json:"tokens"`
}

// RegisterUser registers an account and returns it with the remote user id and
// access token. Any status other than 201 yields a *model.RegistrationError.
func (c *Client) RegisterUser(ctx context.Context, req RegistrationRequest) (model.UserAccount, error) {
	if !req.Role.Valid() {
		return model.UserAccount{}, &model.RegistrationError{
			Email: req.Email,
			Err:   fmt.Errorf("invalid role %q", req.Role),
		}
	}

	status, raw, err := c.postJSON(ctx, "/v1/auth/register", nil, registerPayload{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		FullName:    req.FullName,
		UserType:    string(req.Role),
		CountryCode: c.countryCode,
		Language:    c.language,
	})
	if err != nil {
		return model.UserAccount{}, &model.RegistrationError{Email: req.Email, StatusCode: status, Err: err}
	}
	if status != http.StatusCreated {
		c.logger.Warn().
			Str("email", req.Email).
			Int("status", status).
			Msg("registration rejected")
		return model.UserAccount{}, &model.RegistrationError{Email: req.Email, StatusCode: status, Body: string(raw)}
	}

	data, err := decodeData[registerData](raw)
	if err == nil && (data.User.ID == "" || data.Tokens.AccessToken == "") {
		err = fmt.Errorf("response is missing user id or access token")
	}
	if err != nil {
		return model.UserAccount{}, &model.RegistrationError{Email: req.Email, StatusCode: status, Body: string(raw), Err: err}
	}

	c.logger.Debug().
		Str("email", req.Email).
		Str("user_id", data.User.ID).
		Str("role", string(req.Role)).
		Msg("user registered")

	return model.UserAccount{
		Email:       req.Email,
		Password:    req.Password,
		UserID:      data.User.ID,
		AccessToken: data.Tokens.AccessToken,
		DisplayName: req.DisplayName,
		FullName:    req.FullName,
		Role:        req.Role,
	}, nil
}

// LoginAdmin authenticates an administrator and returns the access token.
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (string, error) {
	status, raw, err := c.postJSON(ctx, "/v1/admin/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", &model.AuthError{StatusCode: status, Err: err}
	}
	if status != http.StatusOK {
		return "", &model.AuthError{StatusCode: status, Body: string(raw)}
	}

	data, err := decodeData[loginData](raw)
	if err == nil && data.Tokens.AccessToken == "" {
		err = fmt.Errorf("response is missing access token")
	}
	if err != nil {
		return "", &model.AuthError{StatusCode: status, Body: string(raw), Err: err}
	}

	return data.Tokens.AccessToken, nil
}
