package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// jsonEvent is the wire shape of one event. Location is a pointer so an
// absent location serialises as null rather than "".
type jsonEvent struct {
	Subject  string  `json:"subject"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Location *string `json:"location"`
	IsAllDay bool    `json:"is_all_day"`
}

// renderJSON emits the batch as a bare JSON array, timestamps in UTC
// RFC 3339. An empty batch renders as [].
func renderJSON(batch domain.EventBatch) (string, error) {
	out := make([]jsonEvent, 0, len(batch))
	for _, ev := range batch {
		je := jsonEvent{
			Subject:  ev.Subject,
			Start:    ev.Start.UTC().Format(time.RFC3339),
			End:      ev.End.UTC().Format(time.RFC3339),
			IsAllDay: ev.IsAllDay,
		}
		if ev.Location != "" {
			loc := ev.Location
			je.Location = &loc
		}
		out = append(out, je)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode events: %w", err)
	}
	return string(data), nil
}
