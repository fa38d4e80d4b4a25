package notify

import (
	"fmt"

	"github.com/shopspring/decimal"

	"leavehub/internal/events"
)

// BodyParams membawa data yang dibutuhkan template pesan keluar.
type BodyParams struct {
	EmployeeName  string
	RequestNumber string
	LeaveType     string
	StartDate     string
	EndDate       string
	Days          decimal.Decimal
	Reason        string
}

// RenderBody merender isi pesan per jenis kejadian. Pesan pendek, satu
// paragraf, karena kanalnya chat.
func RenderBody(kind string, p BodyParams) string {
	switch kind {
	case events.NotificationKindSubmitted:
		return fmt.Sprintf(
			"New leave request %s from %s: %s from %s to %s (%s day(s)). Please review.",
			p.RequestNumber, p.EmployeeName, p.LeaveType, p.StartDate, p.EndDate, p.Days.String(),
		)
	case events.NotificationKindApproved:
		return fmt.Sprintf(
			"Your leave request %s (%s to %s) has been approved. Calendar and tracker updates are on the way.",
			p.RequestNumber, p.StartDate, p.EndDate,
		)
	case events.NotificationKindRejected:
		return fmt.Sprintf(
			"Your leave request %s has been rejected. Reason: %s",
			p.RequestNumber, p.Reason,
		)
	case events.NotificationKindWithdrawn:
		return fmt.Sprintf(
			"Your leave request %s has been withdrawn at your request.",
			p.RequestNumber,
		)
	case events.NotificationKindReverted:
		return fmt.Sprintf(
			"Your approved leave %s (%s to %s) has been reverted. The %s day(s) were returned to your balance.",
			p.RequestNumber, p.StartDate, p.EndDate, p.Days.String(),
		)
	case events.NotificationKindSynced:
		return fmt.Sprintf(
			"Your leave %s is fully booked. Calendar and tracker are up to date.",
			p.RequestNumber,
		)
	case events.NotificationKindSyncFailed:
		return fmt.Sprintf(
			"Your leave %s is approved, but booking it externally hit a problem. HR has been alerted and will fix it.",
			p.RequestNumber,
		)
	default:
		return fmt.Sprintf("Update on leave request %s.", p.RequestNumber)
	}
}
