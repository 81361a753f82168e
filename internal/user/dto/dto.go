package dto

import "github.com/fekuna/omnipos-storefront-service/internal/model"

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=120"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"`
	User      *model.User `json:"user"`
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	ZipCode  *string `json:"zip_code" validate:"omitempty,max=16"`
	Country  *string `json:"country"`
}

type UploadAvatarInput struct {
	Filename    string
	ContentType string
}
