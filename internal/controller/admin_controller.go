package controller

import (
	"ai-consulting-be/internal/dto"
	"ai-consulting-be/internal/pkg/serverutils"
	"ai-consulting-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ListContexts(ctx *fiber.Ctx) error
	CapabilityLog(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IConversationService
	jwtSecret string
	adminRole string
}

func NewAdminController(service service.IConversationService, jwtSecret, adminRole string) IAdminController {
	return &adminController{
		service:   service,
		jwtSecret: jwtSecret,
		adminRole: adminRole,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.RequireRole(c.adminRole))
	h.Get("/contexts", c.ListContexts)
	h.Get("/sessions/:sessionId/capability-log", c.CapabilityLog)
}

func parsePage(ctx *fiber.Ctx) (dto.PageQuery, error) {
	var page dto.PageQuery
	if err := ctx.QueryParser(&page); err != nil {
		return page, fiber.NewError(fiber.StatusBadRequest, "Invalid pagination")
	}
	if err := serverutils.ValidateRequest(page); err != nil {
		return page, err
	}
	return page, nil
}

func (c *adminController) ListContexts(ctx *fiber.Ctx) error {
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListContexts(ctx.UserContext(), page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list contexts", res))
}

func (c *adminController) CapabilityLog(ctx *fiber.Ctx) error {
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetCapabilityLog(ctx.UserContext(), ctx.Params("sessionId"), page)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get capability log", res))
}
