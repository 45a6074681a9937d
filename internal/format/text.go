package format

import (
	"strings"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// renderText writes one human-readable line per event:
//
//	Tue Jan 02 09:00-09:15  Standup @ Room 1
//	Fri Jan 05 (all day)    Offsite
func renderText(batch domain.EventBatch) string {
	if len(batch) == 0 {
		return "No upcoming events.\n"
	}

	var b strings.Builder
	for _, ev := range batch {
		b.WriteString(ev.Start.Format("Mon Jan 02 "))
		if ev.IsAllDay {
			b.WriteString("(all day)   ")
		} else {
			b.WriteString(ev.Start.Format("15:04"))
			b.WriteByte('-')
			b.WriteString(ev.End.Format("15:04"))
			b.WriteString("  ")
		}
		b.WriteString(ev.Subject)
		if ev.Location != "" {
			b.WriteString(" @ ")
			b.WriteString(ev.Location)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
