package monitor

import (
	"github.com/gofiber/fiber/v2"
)

// POST /api/availability/monitor-transfer
// Scheduler-facing trigger. Always answers 200 with the batch
// summary; per-row failures ride inside it.
func SweepHandler(m *Monitor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := m.RunSweep(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sweep could not scan stock rows")
		}
		return c.JSON(fiber.Map{"success": true, "data": summary})
	}
}
