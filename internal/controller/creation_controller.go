package controller

import (
	"giga-banana-web/internal/pkg/serverutils"
	"giga-banana-web/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICreationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type creationController struct {
	service       service.ICreationService
	jwtMiddleware fiber.Handler
}

func NewCreationController(creationService service.ICreationService, jwtMiddleware fiber.Handler) ICreationController {
	return &creationController{
		service:       creationService,
		jwtMiddleware: jwtMiddleware,
	}
}

func (c *creationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/creations", c.jwtMiddleware)
	h.Get("/", c.List)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Delete)
}

func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	return uuid.Parse(raw)
}

func (c *creationController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return serverutils.Error(ctx, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}

	res, err := c.service.List(ctx.Context(), userId)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *creationController) Get(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return serverutils.Error(ctx, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.Error(ctx, fiber.StatusNotFound, "생성물을 찾을 수 없습니다.")
	}

	res, err := c.service.Get(ctx.Context(), userId, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(res)
}

func (c *creationController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return serverutils.Error(ctx, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.Error(ctx, fiber.StatusNotFound, "생성물을 찾을 수 없습니다.")
	}

	res, err := c.service.Delete(ctx.Context(), userId, id)
	if err != nil {
		return serviceError(ctx, err)
	}
	return ctx.JSON(res)
}
