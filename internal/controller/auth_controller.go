package controller

import (
	"errors"
	"time"

	"giga-banana-web/internal/dto"
	"giga-banana-web/internal/pkg/serverutils"
	"giga-banana-web/internal/service"

	"github.com/gofiber/fiber/v2"
)

const refreshCookieName = "refreshToken"

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Signup(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service      service.IAuthService
	refreshTTL   time.Duration
	cookieSecure bool
}

func NewAuthController(authService service.IAuthService, refreshTTL time.Duration, cookieSecure bool) IAuthController {
	return &authController{
		service:      authService,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/signup", c.Signup)
	h.Post("/login", c.Login)
	h.Post("/refresh", c.Refresh)
	h.Post("/logout", c.Logout)
}

func serviceError(ctx *fiber.Ctx, err error) error {
	var statusErr *service.StatusError
	if errors.As(err, &statusErr) {
		return serverutils.Error(ctx, statusErr.Status, statusErr.Message)
	}
	return serverutils.Error(ctx, fiber.StatusInternalServerError, "서버 오류가 발생했습니다.")
}

func (c *authController) setRefreshCookie(ctx *fiber.Ctx, refreshToken string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(c.refreshTTL.Seconds()),
		HTTPOnly: true,
		Secure:   c.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (c *authController) clearRefreshCookie(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   c.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (c *authController) Signup(ctx *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return serverutils.Error(ctx, fiber.StatusBadRequest, "모든 필드를 입력해주세요.")
	}

	res, refresh, err := c.service.Signup(ctx.Context(), &req)
	if err != nil {
		return serviceError(ctx, err)
	}

	c.setRefreshCookie(ctx, refresh)
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := serverutils.ParseAndValidate(ctx, &req); err != nil {
		return serverutils.Error(ctx, fiber.StatusBadRequest, "모든 필드를 입력해주세요.")
	}

	res, refresh, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return serviceError(ctx, err)
	}

	c.setRefreshCookie(ctx, refresh)
	return ctx.JSON(res)
}

func (c *authController) Refresh(ctx *fiber.Ctx) error {
	res, refresh, err := c.service.Refresh(ctx.Context(), ctx.Cookies(refreshCookieName))
	if err != nil {
		c.clearRefreshCookie(ctx)
		return serviceError(ctx, err)
	}

	c.setRefreshCookie(ctx, refresh)
	return ctx.JSON(res)
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	if err := c.service.Logout(ctx.Context(), ctx.Cookies(refreshCookieName)); err != nil {
		return serviceError(ctx, err)
	}
	c.clearRefreshCookie(ctx)
	return ctx.JSON(fiber.Map{"message": "로그아웃되었습니다."})
}
