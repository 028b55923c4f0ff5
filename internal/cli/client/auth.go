package client

import (
	"context"
	"net/url"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by login and both signup endpoints
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// SignupRequest registers a rep or a company account
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// MessageResponse is the outcome of the password recovery endpoints
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterRep creates a sales rep account and logs it in
func (c *Client) RegisterRep(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/auth/signup/rep", req, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterCompany creates a company account and logs it in
func (c *Client) RegisterCompany(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Post(ctx, "/auth/signup/company", req, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the API to email a reset link
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"email": email}
	if err := c.Post(ctx, "/auth/forgot-password", body, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := c.Post(ctx, "/auth/reset-password", body, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateResetToken checks a reset token before asking for a new password
func (c *Client) ValidateResetToken(ctx context.Context, token string) (*MessageResponse, error) {
	var resp MessageResponse
	path := "/auth/validate-reset-token?token=" + url.QueryEscape(token)
	if err := c.Get(ctx, path, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
