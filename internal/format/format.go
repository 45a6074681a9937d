// Package format renders a normalised event batch into one of the
// supported output encodings. Rendering is pure: the same batch and kind
// always produce byte-identical output.
package format

import (
	"fmt"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// Kind selects an output encoding.
type Kind int

const (
	Text Kind = iota
	ICal
	JSON
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case ICal:
		return "ical"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Render serialises the batch in the given encoding. The batch is
// assumed to be sorted; Render never reorders it.
func Render(batch domain.EventBatch, kind Kind) (string, error) {
	switch kind {
	case Text:
		return renderText(batch), nil
	case ICal:
		return renderICal(batch), nil
	case JSON:
		return renderJSON(batch)
	default:
		return "", fmt.Errorf("unknown output format %v", kind)
	}
}
