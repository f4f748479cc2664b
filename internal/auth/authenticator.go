package auth

import (
	"context"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

// Strategy is an alternate way of establishing a session, such as a federated
// identity provider. A successful exchange performs the same state transition
// as a password login.
type Strategy interface {
	// Name identifies the strategy in logs, e.g. "google".
	Name() string

	// Exchange trades an externally obtained credential for the backend user
	// owning the new session.
	Exchange(ctx context.Context, credential string) (*models.User, error)
}
