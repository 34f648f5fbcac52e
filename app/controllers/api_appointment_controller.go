package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/ManuelReschke/CalFox/app/repository"
	"github.com/ManuelReschke/CalFox/internal/pkg/scheduling"
)

// HandleListAppointments returns a paginated appointment list for the admin API.
// Supports ?status=scheduled|canceled|no_show|completed and ?page/?limit.
func HandleListAppointments(c *fiber.Ctx) error {
	offset, limit := paginationParams(c)
	repo := repository.GetGlobalFactory().GetAppointmentRepository()

	status := c.Query("status")
	var (
		appointments []models.Appointment
		total        int64
		err          error
	)
	if status != "" {
		appointments, err = repo.ListByStatus(status, offset, limit)
		if err == nil {
			total, err = repo.CountByStatus(status)
		}
	} else {
		appointments, err = repo.List(offset, limit)
		if err == nil {
			total, err = repo.Count()
		}
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load appointments"})
	}

	items := make([]fiber.Map, 0, len(appointments))
	for i := range appointments {
		items = append(items, appointmentSummary(&appointments[i]))
	}

	return c.JSON(fiber.Map{
		"appointments": items,
		"total":        total,
		"offset":       offset,
		"limit":        limit,
	})
}

// HandleGetAppointment returns one appointment by its public UUID, including
// payment authorizations and notification history.
func HandleGetAppointment(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	repo := repository.GetGlobalFactory().GetAppointmentRepository()

	appointment, err := repo.GetByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Appointment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load appointment"})
	}

	authorizations, err := repo.GetAuthorizations(appointment.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load authorizations"})
	}
	notifications, err := repo.GetNotifications(appointment.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}

	authItems := make([]fiber.Map, 0, len(authorizations))
	for _, auth := range authorizations {
		authItems = append(authItems, fiber.Map{
			"id":           auth.ID,
			"kind":         auth.Kind,
			"amount_cents": auth.AmountCents,
			"status":       auth.Status,
			"created_at":   auth.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	notifItems := make([]fiber.Map, 0, len(notifications))
	for _, n := range notifications {
		notifItems = append(notifItems, fiber.Map{
			"id":        n.ID,
			"kind":      n.Kind,
			"recipient": n.Recipient,
			"status":    n.Status,
			"sent_at":   formatTimePtr(n.SentAt),
		})
	}

	response := appointmentSummary(appointment)
	response["cancellation_reason"] = appointment.CancellationReason
	response["no_show_recorded_at"] = formatTimePtr(appointment.NoShowRecordedAt)
	response["location"] = appointment.Location
	response["metadata"] = appointment.MetadataJSON
	response["authorizations"] = authItems
	response["notifications"] = notifItems
	return c.JSON(response)
}

func appointmentSummary(a *models.Appointment) fiber.Map {
	return fiber.Map{
		"uuid":                a.UUID,
		"client_email":        a.Client.Email,
		"client_name":         a.Client.Name,
		"provider_invitee_id": a.ProviderInviteeID,
		"appointment_type":    a.AppointmentType,
		"scheduled_start":     a.ScheduledStart.UTC().Format(time.RFC3339),
		"scheduled_end":       a.ScheduledEnd.UTC().Format(time.RFC3339),
		"schedule_window":     scheduling.FormatScheduleWindow(a.ScheduledStart, a.ScheduledEnd),
		"status":              a.Status,
		"created_at":          a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// paginationParams reads page/limit query params with sane bounds.
func paginationParams(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return (page - 1) * limit, limit
}
