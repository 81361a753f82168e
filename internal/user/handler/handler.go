package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpresp"
	"github.com/fekuna/omnipos-storefront-service/internal/user"
	"github.com/fekuna/omnipos-storefront-service/internal/user/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

type UserHandler struct {
	uc     user.UseCase
	logger logger.ZapLogger
}

func NewUserHandler(uc user.UseCase, log logger.ZapLogger) *UserHandler {
	return &UserHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *UserHandler) RegisterPublic(g *echo.Group) {
	g.POST("/auth/signup", h.SignUp)
	g.POST("/auth/signin", h.SignIn)
}

// Register mounts the session routes on an authenticated group.
func (h *UserHandler) Register(g *echo.Group) {
	g.POST("/auth/signout", h.SignOut)
	g.GET("/me", h.Profile)
	g.PATCH("/me", h.UpdateProfile)
	g.POST("/me/avatar", h.UploadAvatar)
}

func (h *UserHandler) SignUp(c echo.Context) error {
	var input dto.SignUpInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	res, err := h.uc.SignUp(c.Request().Context(), &input)
	if err != nil {
		return err
	}
	return httpresp.Created(c, res)
}

func (h *UserHandler) SignIn(c echo.Context) error {
	var input dto.SignInInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	res, err := h.uc.SignIn(c.Request().Context(), &input)
	if err != nil {
		return err
	}
	return httpresp.OK(c, res)
}

func (h *UserHandler) SignOut(c echo.Context) error {
	if err := h.uc.SignOut(c.Request().Context(), auth.GetSession(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Profile(c echo.Context) error {
	u, err := h.uc.Profile(c.Request().Context(), auth.GetSession(c))
	if err != nil {
		return err
	}
	return httpresp.OK(c, u)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var input dto.UpdateProfileInput
	if err := c.Bind(&input); err != nil {
		return apperr.NewValidation("", map[string]string{"body": "malformed request"})
	}
	u, err := h.uc.UpdateProfile(c.Request().Context(), auth.GetSession(c), &input)
	if err != nil {
		return err
	}
	return httpresp.OK(c, u)
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.NewValidation("", map[string]string{"file": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Persistence("open upload", err)
	}
	defer f.Close()

	url, err := h.uc.UploadAvatar(c.Request().Context(), auth.GetSession(c), &dto.UploadAvatarInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
	}, f)
	if err != nil {
		return err
	}
	return httpresp.Created(c, echo.Map{"url": url})
}
