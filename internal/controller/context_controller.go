package controller

import (
	"ai-consulting-be/internal/dto"
	"ai-consulting-be/internal/pkg/serverutils"
	"ai-consulting-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IContextController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Enrich(ctx *fiber.Ctx) error
	GetCapabilities(ctx *fiber.Ctx) error
	RecordCapability(ctx *fiber.Ctx) error
	Suggestions(ctx *fiber.Ctx) error
}

type contextController struct {
	service service.IConversationService
}

func NewContextController(service service.IConversationService) IContextController {
	return &contextController{service: service}
}

func (c *contextController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/context")
	h.Get("/:sessionId", c.Show)
	h.Patch("/:sessionId", c.Update)
	h.Post("/:sessionId/enrich", c.Enrich)
	h.Get("/:sessionId/capabilities", c.GetCapabilities)
	h.Post("/:sessionId/capabilities", c.RecordCapability)
	h.Post("/:sessionId/suggestions", c.Suggestions)
}

func (c *contextController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetContext(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Context not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get context", res))
}

func (c *contextController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateContextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateContext(ctx.UserContext(), ctx.Params("sessionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update context", res))
}

func (c *contextController) Enrich(ctx *fiber.Ctx) error {
	var req dto.EnrichContextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.EnrichContext(ctx.UserContext(), ctx.Params("sessionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success enrich context", res))
}

func (c *contextController) GetCapabilities(ctx *fiber.Ctx) error {
	res, err := c.service.GetCapabilities(ctx.UserContext(), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get capabilities", res))
}

// RecordCapability answers 202 once the capability is queued.
func (c *contextController) RecordCapability(ctx *fiber.Ctx) error {
	var req dto.RecordCapabilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.RecordCapability(ctx.UserContext(), ctx.Params("sessionId"), &req); err != nil {
		return err
	}
	res := serverutils.SuccessResponse("Capability accepted", nil)
	res.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(res)
}

func (c *contextController) Suggestions(ctx *fiber.Ctx) error {
	var req dto.SuggestionsRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SuggestTools(ctx.UserContext(), ctx.Params("sessionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success suggest tools", res))
}
