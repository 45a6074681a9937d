package format

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

const productID = "-//outcal//Calendar Export//EN"

// renderICal emits a VCALENDAR with one VEVENT per event. UIDs are
// content-addressed and DTSTAMP is pinned to the event start, so the
// same batch always serialises to the same bytes.
func renderICal(batch domain.EventBatch) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)

	for _, ev := range batch {
		vevent := cal.AddEvent(eventUID(ev))
		vevent.SetDtStampTime(ev.Start.UTC())
		vevent.SetSummary(ev.Subject)
		if ev.IsAllDay {
			vevent.SetAllDayStartAt(ev.Start.UTC())
			vevent.SetAllDayEndAt(ev.End.UTC())
		} else {
			vevent.SetStartAt(ev.Start.UTC())
			vevent.SetEndAt(ev.End.UTC())
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
	}

	return cal.Serialize()
}

// eventUID derives a stable UID from the event's identity fields.
func eventUID(ev domain.CalendarEvent) string {
	seed := ev.Subject + "|" +
		ev.Start.UTC().Format(time.RFC3339) + "|" +
		ev.End.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("outcal:"+seed)).String() + "@outcal"
}
