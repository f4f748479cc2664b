package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/pkg/logging"
)

// Client is the subset of the backend API the manager calls.
type Client interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, req api.LoginRequest) (*models.User, error)
	Register(ctx context.Context, req api.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	CompletePasswordReset(ctx context.Context, email, code, newPassword string) (string, error)
	UpdatePassword(ctx context.Context, email, newPassword string) error
}

// Manager is the single writer of a Store.
type Manager struct {
	client Client
	store  *Store
	logger *slog.Logger
}

// NewManager creates a manager writing to store.
func NewManager(client Client, store *Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client: client,
		store:  store,
		logger: logger.With("component", "auth"),
	}
}

// Store returns the store the manager writes to.
func (m *Manager) Store() *Store {
	return m.store
}

// CheckSession asks the backend who owns the current session cookie. Any
// failure leaves the user signed out; the store leaves StateLoading either way.
func (m *Manager) CheckSession(ctx context.Context) (*models.User, bool) {
	user, err := m.client.Me(ctx)
	if err != nil {
		if !api.IsUnauthorized(err) {
			m.logger.Error("Session check failed", "error", err)
		}
		m.store.signOut()
		return nil, false
	}
	m.store.signIn(*user)
	m.logger.Info("Session restored", "user_id", user.ID)
	return user, true
}

// Login signs in with email and password. Only presence is checked locally.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("credentials", MsgCredentialsRequired)
	}

	user, err := m.client.Login(ctx, api.LoginRequest{Email: email, Password: password, RememberMe: rememberMe})
	if err != nil {
		m.logger.Warn("Login failed", "email", logging.MaskEmail(email), "status", api.StatusOf(err))
		if api.StatusOf(err) == http.StatusUnauthorized {
			return nil, statusError(err, apperrors.KindInvalidCredentials, MsgInvalidCredentials)
		}
		return nil, apperrors.Unavailable(err)
	}

	m.store.signIn(*user)
	m.logger.Info("User logged in", "user_id", user.ID)
	return user, nil
}

// Register validates the form, creates the account and signs it in.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if err := ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	user, err := m.client.Register(ctx, api.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		m.logger.Warn("Registration failed", "email", logging.MaskEmail(email), "status", api.StatusOf(err))
		switch api.StatusOf(err) {
		case http.StatusConflict:
			return nil, statusError(err, apperrors.KindConflict, MsgEmailRegistered)
		case http.StatusBadRequest:
			return nil, statusError(err, apperrors.KindBadRequest, MsgCheckInformation)
		}
		return nil, apperrors.Unavailable(err)
	}

	m.store.signIn(*user)
	m.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Logout notifies the backend and signs out locally regardless of the outcome.
// A failed notification is returned so it can be shown, but the user is
// already signed out.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.client.Logout(ctx)
	m.store.signOut()
	if err != nil {
		m.logger.Warn("Logout request failed", "error", err)
		return apperrors.Wrap(err, apperrors.KindUnavailable, MsgLogoutFailed)
	}
	m.logger.Info("User logged out")
	return nil
}

// RequestPasswordReset asks the backend to send a verification code and
// returns its confirmation message.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)

	msg, err := m.client.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", m.resetError("Password reset request failed", email, err)
	}
	m.logger.Info("Password reset requested", "email", logging.MaskEmail(email))
	return msg, nil
}

// CompletePasswordReset sets a new password using the emailed code.
func (m *Manager) CompletePasswordReset(ctx context.Context, email, code, newPassword string) (string, error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	if err := ValidateCode(code); err != nil {
		return "", err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)

	msg, err := m.client.CompletePasswordReset(ctx, email, strings.TrimSpace(code), newPassword)
	if err != nil {
		return "", m.resetError("Password reset failed", email, err)
	}
	m.logger.Info("Password reset completed", "email", logging.MaskEmail(email))
	return msg, nil
}

// UpdatePassword is the alternate reset path used once the code was checked
// elsewhere.
func (m *Manager) UpdatePassword(ctx context.Context, email, newPassword string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	email = strings.TrimSpace(email)

	if err := m.client.UpdatePassword(ctx, email, newPassword); err != nil {
		return m.resetError("Password update failed", email, err)
	}
	m.logger.Info("Password updated", "email", logging.MaskEmail(email))
	return nil
}

func (m *Manager) resetError(msg, email string, err error) error {
	m.logger.Warn(msg, "email", logging.MaskEmail(email), "status", api.StatusOf(err))
	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return statusError(err, apperrors.KindNotFound, MsgNoAccount)
	case http.StatusTooManyRequests:
		return statusError(err, apperrors.KindRateLimited, MsgRateLimited)
	case http.StatusBadRequest:
		text := api.ServerMessage(err)
		if text == "" {
			text = MsgResetFailed
		}
		return statusError(err, apperrors.KindBadRequest, text)
	}
	return apperrors.Unavailable(err)
}

// ExternalLogin exchanges a credential through strategy and, on success,
// signs the user in exactly like Login.
func (m *Manager) ExternalLogin(ctx context.Context, strategy Strategy, credential string) (*models.User, error) {
	user, err := strategy.Exchange(ctx, credential)
	if err != nil {
		m.logger.Warn("External login failed", "strategy", strategy.Name(), "error", err)
		if rejectedCredential(err) {
			return nil, statusError(err, apperrors.KindInvalidCredentials, MsgExternalLoginFailed)
		}
		return nil, apperrors.Unavailable(err)
	}

	m.store.signIn(*user)
	m.logger.Info("User logged in", "user_id", user.ID, "strategy", strategy.Name())
	return user, nil
}

// HandleUnauthorized signs the user out after a protected call was rejected
// with 401. It is registered as the API client's session-lost hook.
func (m *Manager) HandleUnauthorized() {
	if m.store.State() != StateAuthenticated {
		return
	}
	m.logger.Warn("Session lost, signing out")
	m.store.signOut()
}

func rejectedCredential(err error) bool {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusBadRequest:
		return true
	}
	return errors.Is(err, ErrMalformedToken) || errors.Is(err, ErrExpiredToken) || errors.Is(err, ErrMissingEmail)
}

func statusError(err error, kind apperrors.Kind, message string) *apperrors.AppError {
	appErr := apperrors.Wrap(err, kind, message)
	appErr.Status = api.StatusOf(err)
	return appErr
}
