package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/outcal/internal/connectors/microsoft"
	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/logger"
)

// pageSize is the $top value for calendarView requests.
const pageSize = 50

func newLimiter() *microsoft.RateLimiter {
	return microsoft.NewRateLimiter()
}

// Session is an authenticated Graph API session for one target.
type Session struct {
	token   *oauth2.Token
	base    string
	store   *TokenStore
	target  string
	limiter *microsoft.RateLimiter
}

var _ driven.Session = (*Session)(nil)

// graphEvent mirrors the fields selected from the calendarView response.
type graphEvent struct {
	Subject  string         `json:"subject"`
	IsAllDay bool           `json:"isAllDay"`
	Start    *graphDateTime `json:"start"`
	End      *graphDateTime `json:"end"`
	Location *struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

// graphDateTime is Graph's dateTimeTimeZone shape. With the Prefer
// outlook.timezone="UTC" header the TimeZone field is always UTC.
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// eventPage is one page of a calendarView response.
type eventPage struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

// FetchEvents issues a paginated calendarView request filtered to the
// window and maps the response into the normalised event batch, sorted
// ascending by start time.
func (s *Session) FetchEvents(ctx context.Context, window domain.Window) (domain.EventBatch, error) {
	base := s.base
	if base == "" {
		base = microsoft.GraphBaseURL
	}

	params := url.Values{}
	params.Set("startDateTime", window.From.UTC().Format(time.RFC3339))
	params.Set("endDateTime", window.To.UTC().Format(time.RFC3339))
	params.Set("$select", "subject,start,end,location,isAllDay")
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", fmt.Sprintf("%d", pageSize))

	next := base + "/me/calendarView?" + params.Encode()

	var batch domain.EventBatch
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := s.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		logger.Debug("graph: page with %d events", len(page.Value))

		for _, ev := range page.Value {
			mapped, err := mapEvent(ev)
			if err != nil {
				return nil, err
			}
			batch = append(batch, mapped)
		}

		next = page.NextLink
	}

	batch = batch.Clamp(window)
	batch.SortByStart()

	logger.Debug("graph: fetched %d events in window", len(batch))
	return batch, nil
}

func (s *Session) fetchPage(ctx context.Context, url string) (*eventPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrProviderError, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar view: %w", microsoft.WrapStatus(resp.StatusCode))
	}

	var page eventPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode calendar view: %v", domain.ErrParseFailure, err)
	}

	return &page, nil
}

// mapEvent converts a Graph event into the normalised representation.
func mapEvent(ev graphEvent) (domain.CalendarEvent, error) {
	start, err := parseGraphTime(ev.Start)
	if err != nil {
		return domain.CalendarEvent{}, err
	}
	end, err := parseGraphTime(ev.End)
	if err != nil {
		return domain.CalendarEvent{}, err
	}

	out := domain.CalendarEvent{
		Subject:  ev.Subject,
		Start:    start,
		End:      end,
		IsAllDay: ev.IsAllDay,
	}
	if ev.Location != nil {
		out.Location = ev.Location.DisplayName
	}
	return out, nil
}

// parseGraphTime parses Graph's dateTime strings, e.g.
// "2024-01-02T09:00:00.0000000". Fractional seconds are discarded.
func parseGraphTime(dt *graphDateTime) (time.Time, error) {
	if dt == nil || dt.DateTime == "" {
		return time.Time{}, fmt.Errorf("%w: event missing start or end time", domain.ErrParseFailure)
	}

	value := dt.DateTime
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad event time %q: %v", domain.ErrParseFailure, dt.DateTime, err)
	}
	return t, nil
}

// Close persists the session token so the next run can refresh silently.
func (s *Session) Close(_ context.Context) error {
	if s.store == nil || s.target == "" {
		return nil
	}
	return s.store.Save(s.target, s.token)
}
