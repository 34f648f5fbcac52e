package scheduling

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
)

const notificationTimeLayout = "Monday, 2 Jan 2006 at 15:04 MST"

// renderNotification produces the subject and plain-text body for a lifecycle
// notification. Kept deliberately simple: layout and branding belong to the
// mail templates of the surrounding app, not to the webhook core.
func renderNotification(appointment *models.Appointment, kind string, feeApplied bool, feeCents int64) (string, string) {
	when := appointment.ScheduledStart.Format(notificationTimeLayout)
	label := appointment.AppointmentType
	if label == "" {
		label = "Your appointment"
	}

	switch kind {
	case models.NotificationKindConfirmation:
		subject := fmt.Sprintf("Appointment confirmed: %s", when)
		body := fmt.Sprintf("%s is confirmed for %s.", label, when)
		if appointment.Location != "" {
			body += fmt.Sprintf("\nLocation: %s", appointment.Location)
		}
		return subject, body

	case models.NotificationKindCancellation:
		subject := "Your appointment has been canceled"
		body := fmt.Sprintf("%s on %s has been canceled.", label, when)
		if appointment.CancellationReason != "" {
			body += fmt.Sprintf("\nReason: %s", appointment.CancellationReason)
		}
		if feeApplied {
			body += fmt.Sprintf("\n\nBecause the cancellation was within the late-cancellation window, a fee of %s applies.", formatCents(feeCents))
		}
		return subject, body

	case models.NotificationKindReschedule:
		subject := fmt.Sprintf("Appointment rescheduled: %s", when)
		body := fmt.Sprintf("%s has been moved to %s.", label, when)
		return subject, body
	}

	// Unknown kinds still produce something deliverable.
	return "Appointment update", fmt.Sprintf("%s on %s was updated.", label, when)
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%.2f EUR", float64(cents)/100)
}

// FormatScheduleWindow is used by the admin API to render a slot range.
func FormatScheduleWindow(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
}
