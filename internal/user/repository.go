package user

import (
	"context"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, u *model.User) error
	// FindByEmail and FindByID return nil, nil when no user matches.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdateAvatar(ctx context.Context, id, url string) error
	SetAdmin(ctx context.Context, email string, isAdmin bool) (bool, error)
}
