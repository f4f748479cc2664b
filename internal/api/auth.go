package api

import (
	"context"
	"net/http"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Me returns the user owning the current session cookie.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	cl := call{endpoint: "me", method: http.MethodGet, path: "/api/me", public: true}
	var user models.User
	if err := c.do(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login starts a session for the given credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	return c.authenticate(ctx, "login", "/api/login", req)
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	return c.authenticate(ctx, "register", "/api/register", req)
}

// GoogleAuth exchanges a federated ID token for a session.
func (c *Client) GoogleAuth(ctx context.Context, token string) (*models.User, error) {
	return c.authenticate(ctx, "auth_google", "/api/auth/google", map[string]string{"token": token})
}

func (c *Client) authenticate(ctx context.Context, endpoint, path string, in any) (*models.User, error) {
	cl, err := c.jsonCall(endpoint, http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}
	cl.public = true
	var user models.User
	if err := c.do(ctx, cl, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	cl := call{endpoint: "logout", method: http.MethodPost, path: "/api/logout", public: true}
	return c.do(ctx, cl, nil)
}

// RequestPasswordReset asks the backend to email a verification code.
// It returns the server's confirmation message.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "request_password_reset", "/api/auth/request-password-reset",
		map[string]string{"email": email})
}

// CompletePasswordReset sets a new password using a verification code.
func (c *Client) CompletePasswordReset(ctx context.Context, email, code, newPassword string) (string, error) {
	return c.message(ctx, "reset_password_complete", "/api/auth/reset-password-complete",
		map[string]string{"email": email, "code": code, "newPassword": newPassword})
}

// UpdatePassword is the alternate reset path used after an external code check.
func (c *Client) UpdatePassword(ctx context.Context, email, newPassword string) error {
	_, err := c.message(ctx, "update_password", "/api/update-password",
		map[string]string{"email": email, "newPassword": newPassword})
	return err
}

func (c *Client) message(ctx context.Context, endpoint, path string, in any) (string, error) {
	cl, err := c.jsonCall(endpoint, http.MethodPost, path, in)
	if err != nil {
		return "", err
	}
	cl.public = true
	var resp messageResponse
	if err := c.do(ctx, cl, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
