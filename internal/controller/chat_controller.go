package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Switch(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	UpdateMessage(ctx *fiber.Ctx) error
	Transcribe(ctx *fiber.Ctx) error
	GetSheetURL(ctx *fiber.Ctx) error
	SetSheetURL(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler) {
	h := r.Group("/chats")
	for _, m := range middlewares {
		h.Use(m)
	}

	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/current", c.Current)
	h.Get("/messages", c.Messages)
	h.Post("/messages", c.Send)
	h.Patch("/messages/:id", c.UpdateMessage)
	h.Post("/transcribe", c.Transcribe)
	h.Get("/sheet-url", c.GetSheetURL)
	h.Put("/sheet-url", c.SetSheetURL)
	h.Get("/:id", c.Show)
	h.Post("/:id/switch", c.Switch)
	h.Delete("/:id", c.Delete)
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateChatRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.service.CreateChat(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Chat created",
		"data":    res,
	})
}

func (c *chatController) List(ctx *fiber.Ctx) error {
	res, err := c.service.Tabs(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Chat tabs",
		"data":    res,
	})
}

func (c *chatController) Current(ctx *fiber.Ctx) error {
	res, err := c.service.CurrentChat(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Current chat",
		"data":    res,
	})
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	res, err := c.service.Tab(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Chat",
		"data":    res,
	})
}

func (c *chatController) Switch(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	res, err := c.service.SwitchChat(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Chat switched",
		"data":    res,
	})
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	if err := c.service.DeleteChat(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Chat deleted",
		"data":    nil,
	})
}

func (c *chatController) Messages(ctx *fiber.Ctx) error {
	res, err := c.service.Messages(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Messages",
		"data":    res,
	})
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Message sent",
		"data":    res,
	})
}

func (c *chatController) UpdateMessage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.UpdateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.service.UpdateMessage(ctx.Context(), id, &req); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Message updated",
		"data":    nil,
	})
}

// Transcribe accepts the raw audio clip as the request body and returns the
// transcript text.
func (c *chatController) Transcribe(ctx *fiber.Ctx) error {
	audio := ctx.Body()
	if len(audio) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty audio payload")
	}

	res, err := c.service.Transcribe(ctx.Context(), audio)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": "Transcription failed",
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Transcription complete",
		"data":    res,
	})
}

func (c *chatController) GetSheetURL(ctx *fiber.Ctx) error {
	res, err := c.service.SheetURL(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Default sheet URL",
		"data":    res,
	})
}

func (c *chatController) SetSheetURL(ctx *fiber.Ctx) error {
	var req dto.SheetURLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.SetSheetURL(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Default sheet URL updated",
		"data":    res,
	})
}
