package controller

import (
	"ai-consulting-be/internal/dto"
	"ai-consulting-be/internal/pkg/serverutils"
	"ai-consulting-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIntelligenceController interface {
	RegisterRoutes(r fiber.Router)
	DetectIntent(ctx *fiber.Ctx) error
	NextStage(ctx *fiber.Ctx) error
	ChatTurn(ctx *fiber.Ctx) error
}

type intelligenceController struct {
	service service.IConversationService
}

func NewIntelligenceController(service service.IConversationService) IIntelligenceController {
	return &intelligenceController{service: service}
}

func (c *intelligenceController) RegisterRoutes(r fiber.Router) {
	r.Post("/intent/detect", c.DetectIntent)
	r.Post("/stage/next", c.NextStage)
	r.Post("/chat/turn", c.ChatTurn)
}

func (c *intelligenceController) DetectIntent(ctx *fiber.Ctx) error {
	var req dto.DetectIntentRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.DetectIntent(ctx.UserContext(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Success detect intent", res))
}

func (c *intelligenceController) NextStage(ctx *fiber.Ctx) error {
	var req dto.NextStageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.NextStage(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success next stage", res))
}

func (c *intelligenceController) ChatTurn(ctx *fiber.Ctx) error {
	var req dto.ChatTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ProcessTurn(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success process turn", res))
}
