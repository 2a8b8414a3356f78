package middleware

import (
	"context"
	"errors"

	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
	"github.com/medicore/clinic-portal/internal/infrastructure/storage"
)

// stubAPI answers every backend call; only Login is exercised here.
type stubAPI struct {
	user *domain.User
}

func (a *stubAPI) Login(context.Context, domain.Credentials) (*domain.AuthPayload, error) {
	if a.user == nil {
		return nil, errors.New("no user")
	}
	return &domain.AuthPayload{User: a.user, Token: "tok"}, nil
}

func (a *stubAPI) Register(context.Context, domain.Registration) (*domain.AuthPayload, error) {
	return nil, errors.New("not implemented")
}

func (a *stubAPI) CurrentUser(context.Context, string) (*domain.User, error) {
	return a.user, nil
}

func (a *stubAPI) Logout(context.Context, string) error { return nil }

func (a *stubAPI) UpdateProfile(context.Context, string, domain.ProfileUpdate) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (a *stubAPI) Do(context.Context, string, string, string, any, any) error { return nil }

// newStore returns a resolved store, logged in as a user with role when role
// is non-empty.
func newStore(role string) *service.Store {
	var u *domain.User
	if role != "" {
		u = &domain.User{ID: 1, Name: "Test", Role: domain.Role{Name: role}}
	}
	s := service.NewStore("visitor", &stubAPI{user: u}, storage.NewMemory().Factory()("visitor"))
	s.Initialize(context.Background())
	if u != nil {
		if _, err := s.Login(context.Background(), domain.Credentials{Email: "t@clinic.test", Password: "x"}); err != nil {
			panic(err)
		}
	}
	return s
}

// loadingStore returns a store whose startup resolution has not run.
func loadingStore() *service.Store {
	return service.NewStore("visitor", &stubAPI{}, storage.NewMemory().Factory()("visitor"))
}
