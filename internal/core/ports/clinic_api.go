package ports

import (
	"context"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

// ClinicAPI is the backend contract consumed by the session store. Token is
// sent as a bearer credential when non-empty.
type ClinicAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthPayload, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthPayload, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error)

	// Do issues an arbitrary request against the backend and decodes the
	// response body into out when out is non-nil. A *domain.RawResponse
	// keeps the body raw and records the backend status.
	Do(ctx context.Context, token, method, path string, body, out any) error
}
