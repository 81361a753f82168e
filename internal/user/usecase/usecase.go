package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/user"
	"github.com/fekuna/omnipos-storefront-service/internal/user/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/blob"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

const avatarBucket = "avatars"

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string, isAdmin bool) (string, *auth.Session, error)
}

// Revoker ends a session before its token expires.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt int64) error
}

type StructValidator interface {
	Struct(i interface{}, messageID string) error
}

type Deps struct {
	Repo      user.Repository
	Tokens    TokenIssuer
	Revoker   Revoker
	Blob      blob.Store
	Validator StructValidator
	Logger    logger.ZapLogger
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type userUseCase struct {
	repo     user.Repository
	tokens   TokenIssuer
	revoker  Revoker
	blob     blob.Store
	validate StructValidator
	logger   logger.ZapLogger
	hashCost int
	now      func() time.Time
}

func NewUserUseCase(d Deps) user.UseCase {
	if d.HashCost == 0 {
		d.HashCost = bcrypt.DefaultCost
	}
	return &userUseCase{
		repo:     d.Repo,
		tokens:   d.Tokens,
		revoker:  d.Revoker,
		blob:     d.Blob,
		validate: d.Validator,
		logger:   d.Logger,
		hashCost: d.HashCost,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (uc *userUseCase) SignUp(ctx context.Context, input *dto.SignUpInput) (*dto.AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := uc.validate.Struct(input, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.hashCost)
	if err != nil {
		return nil, apperr.Persistence("hash password", err)
	}

	now := uc.now()
	u := &model.User{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, &apperr.ConflictError{Reason: "email already registered"}
		}
		return nil, apperr.Persistence("create user", err)
	}

	uc.logger.Info("user signed up", zap.String("user_id", u.ID))
	return uc.issue(u)
}

func (uc *userUseCase) SignIn(ctx context.Context, input *dto.SignInInput) (*dto.AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := uc.validate.Struct(input, ""); err != nil {
		return nil, err
	}

	u, err := uc.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperr.Persistence("find user", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)) != nil {
		return nil, &apperr.UnauthorizedError{Reason: "invalid email or password"}
	}
	return uc.issue(u)
}

func (uc *userUseCase) issue(u *model.User) (*dto.AuthResult, error) {
	token, sess, err := uc.tokens.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, apperr.Persistence("issue token", err)
	}
	return &dto.AuthResult{Token: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

func (uc *userUseCase) SignOut(ctx context.Context, sess *auth.Session) error {
	if sess == nil {
		return &apperr.UnauthorizedError{Reason: "missing session"}
	}
	if err := uc.revoker.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return apperr.Persistence("revoke session", err)
	}
	return nil
}

func (uc *userUseCase) Profile(ctx context.Context, sess *auth.Session) (*model.User, error) {
	if sess == nil {
		return nil, &apperr.UnauthorizedError{Reason: "missing session"}
	}
	u, err := uc.repo.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Persistence("find user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user", sess.UserID)
	}
	return u, nil
}

func (uc *userUseCase) UpdateProfile(ctx context.Context, sess *auth.Session, input *dto.UpdateProfileInput) (*model.User, error) {
	if err := uc.validate.Struct(input, ""); err != nil {
		return nil, err
	}
	u, err := uc.Profile(ctx, sess)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&u.FullName, input.FullName)
	apply(&u.Phone, input.Phone)
	apply(&u.Address, input.Address)
	apply(&u.City, input.City)
	apply(&u.State, input.State)
	apply(&u.ZipCode, input.ZipCode)
	apply(&u.Country, input.Country)
	if u.FullName == "" {
		return nil, apperr.NewValidation("", map[string]string{"full_name": "required"})
	}
	u.UpdatedAt = uc.now()

	if err := uc.repo.UpdateProfile(ctx, u); err != nil {
		return nil, apperr.Persistence("update profile", err)
	}
	return u, nil
}

// UploadAvatar stores the file under <user>/<unix-ms>.<ext> and records the URL on the profile.
func (uc *userUseCase) UploadAvatar(ctx context.Context, sess *auth.Session, input *dto.UploadAvatarInput, r io.Reader) (string, error) {
	if sess == nil {
		return "", &apperr.UnauthorizedError{Reason: "missing session"}
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(input.Filename)), ".")
	if ext == "" {
		return "", apperr.NewValidation("", map[string]string{"file": "must have an extension"})
	}
	if input.ContentType != "" && !strings.HasPrefix(input.ContentType, "image/") {
		return "", apperr.NewValidation("", map[string]string{"file": "must be an image"})
	}

	object := fmt.Sprintf("%s/%d.%s", sess.UserID, uc.now().UnixMilli(), ext)
	url, err := uc.blob.Put(ctx, avatarBucket, object, input.ContentType, r)
	if err != nil {
		return "", apperr.Persistence("upload avatar", err)
	}
	if err := uc.repo.UpdateAvatar(ctx, sess.UserID, url); err != nil {
		return "", apperr.Persistence("update avatar", err)
	}
	return url, nil
}

func (uc *userUseCase) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	email = normalizeEmail(email)
	found, err := uc.repo.SetAdmin(ctx, email, isAdmin)
	if err != nil {
		return apperr.Persistence("set admin", err)
	}
	if !found {
		return apperr.NotFound("user", email)
	}
	uc.logger.Info("admin flag changed", zap.String("email", email), zap.Bool("is_admin", isAdmin))
	return nil
}
