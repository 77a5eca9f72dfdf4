package controller

import (
	"github.com/gofiber/fiber/v2"

	"schoolreg_backend/internals/features/finance/payments/service"
	helper "schoolreg_backend/internals/helpers"
)

/* ===================== GATEWAY WEBHOOK ===================== */

// POST /api/public/payments/webhook
// Always answers 200 once the event is journaled; a non-2xx would make the
// PSP retry forever on notifications we will never match.
func (ctl *PaymentController) Webhook(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "Corps de requête vide")
	}

	event, err := service.HandleGatewayNotification(c.Context(), ctl.DB, body)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Notification illisible")
	}

	return helper.JsonOK(c, "Notification traitée", fiber.Map{
		"gateway_event_id":     event.GatewayEventID,
		"gateway_event_status": event.GatewayEventStatus,
	})
}
