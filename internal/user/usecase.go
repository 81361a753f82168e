package user

import (
	"context"
	"io"

	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/user/dto"
)

type UseCase interface {
	SignUp(ctx context.Context, input *dto.SignUpInput) (*dto.AuthResult, error)
	SignIn(ctx context.Context, input *dto.SignInInput) (*dto.AuthResult, error)
	SignOut(ctx context.Context, sess *auth.Session) error

	Profile(ctx context.Context, sess *auth.Session) (*model.User, error)
	UpdateProfile(ctx context.Context, sess *auth.Session, input *dto.UpdateProfileInput) (*model.User, error)
	UploadAvatar(ctx context.Context, sess *auth.Session, input *dto.UploadAvatarInput, r io.Reader) (string, error)

	// SetAdmin is an operator action run from the CLI, not over HTTP.
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
}
