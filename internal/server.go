package internal

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func NewServer(queue Requeuer, store Storage, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("running")
	})

	app.Post("/payments", func(c *fiber.Ctx) error {
		var request PaymentRequest
		if err := json.Unmarshal(c.Body(), &request); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("invalid payment: " + err.Error())
		}
		if request.CorrelationId == uuid.Nil {
			return c.Status(fiber.StatusBadRequest).SendString("correlationId is required")
		}

		if err := queue.Add(request); err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return c.SendStatus(fiber.StatusServiceUnavailable)
			}
			return err
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	app.Get("/payments-summary", func(c *fiber.Ctx) error {
		fromStr := c.Query("from")
		toStr := c.Query("to")
		from, err := ParseTimeOrNil(fromStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("failed to parse time " + fromStr + ": " + err.Error())
		}
		to, err := ParseTimeOrNil(toStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("failed to parse time " + toStr + ": " + err.Error())
		}

		summary, err := store.GetSummary(c.UserContext(), from, to)
		if err != nil {
			logger.Error("failed to get summary", "err", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.JSON(summary)
	})

	app.Post("/purge-payments", func(c *fiber.Ctx) error {
		if err := store.CleanUp(c.UserContext()); err != nil {
			logger.Error("failed to purge payments", "err", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}
