package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kiwi-assistant-core/internal/dto"
	"kiwi-assistant-core/internal/service"
)

type IDatasetController interface {
	RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler)
	Open(ctx *fiber.Ctx) error
	Connect(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Details(ctx *fiber.Ctx) error
	Back(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type datasetController struct {
	service service.IDatasetService
}

func NewDatasetController(service service.IDatasetService) IDatasetController {
	return &datasetController{service: service}
}

func (c *datasetController) RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler) {
	h := r.Group("/chats/:id/dataset")
	for _, m := range middlewares {
		h.Use(m)
	}

	h.Post("/open", c.Open)
	h.Post("/connect", c.Connect)
	h.Get("/progress", c.Progress)
	h.Post("/details", c.Details)
	h.Post("/back", c.Back)
	h.Post("/retry", c.Retry)
	h.Post("/close", c.Close)
}

func tabId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}
	return id, nil
}

func (c *datasetController) Open(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Open(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Connector opened",
		"data":    res,
	})
}

// Connect blocks for the full staged run. A rejected URL comes back as a
// 400 with the connector view still in idle.
func (c *datasetController) Connect(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	var req dto.ConnectDatasetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.Connect(ctx.Context(), id, &req)
	if err != nil {
		if res != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"code":    400,
				"message": err.Error(),
				"data":    res,
			})
		}
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Connection attempt finished",
		"data":    res,
	})
}

func (c *datasetController) Progress(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Progress(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Connector progress",
		"data":    res,
	})
}

func (c *datasetController) Details(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ViewDetails(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Dataset details",
		"data":    res,
	})
}

func (c *datasetController) Back(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Back(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Back to connected view",
		"data":    res,
	})
}

func (c *datasetController) Retry(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Retry(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Connector reset",
		"data":    res,
	})
}

func (c *datasetController) Close(ctx *fiber.Ctx) error {
	id, err := tabId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Close(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Connector closed",
		"data":    nil,
	})
}
