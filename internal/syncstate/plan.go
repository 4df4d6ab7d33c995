package syncstate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
)

type ActionType string

const (
	ActionInsert ActionType = "insert"
	ActionUpdate ActionType = "update"
)

// calendarTimeZone is the zone all timed bodies are expressed in.
const calendarTimeZone = "Asia/Tokyo"

// DateTime is one endpoint of a calendar body. All-day bodies set Date,
// timed bodies set Time and TimeZone.
type DateTime struct {
	Date     string `json:"date,omitempty"`
	Time     string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Body is the calendar payload for one event, shaped for an upsert call
// by whatever calendar client consumes the plan.
type Body struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	SourceTitle string   `json:"sourceTitle,omitempty"`
	SourceURL   string   `json:"sourceUrl,omitempty"`
	Start       DateTime `json:"start"`
	End         DateTime `json:"end"`
}

// Action is one planned upsert against the remote calendar.
type Action struct {
	Type     ActionType `json:"type"`
	Key      string     `json:"key"`
	RemoteID string     `json:"remoteId,omitempty"`
	Title    string     `json:"title"`
	Body     Body       `json:"body"`
}

// Key is the stable upsert identity of an event: the hash of its title
// and start date. Records merged from several sources keep the surviving
// title, so re-syncs hit the same key.
func Key(rec *event.Record) string {
	raw := strings.TrimSpace(rec.Title) + rec.Timing.StartDate.Format("2006-01-02")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Plan computes the insert and update actions for the event set against
// the persisted key mapping. Events without a start date are skipped.
func Plan(ctx context.Context, lookup Lookup, events []*event.Record) ([]Action, error) {
	var actions []Action
	for _, rec := range events {
		if rec.Timing.StartDate.IsZero() {
			continue
		}
		key := Key(rec)
		remoteID, exists, err := lookup.RemoteID(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve remote id for %q: %w", rec.Title, err)
		}
		action := Action{
			Type:  ActionInsert,
			Key:   key,
			Title: rec.Title,
			Body:  BuildBody(rec),
		}
		if exists {
			action.Type = ActionUpdate
			action.RemoteID = remoteID
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// BuildBody renders the calendar payload. All-day bodies use exclusive
// end dates, so the end is always bumped one day past the last covered
// day. Timed bodies carry the Tokyo zone.
func BuildBody(rec *event.Record) Body {
	start := rec.Timing.StartDate
	end := rec.Timing.EndDate
	if end.IsZero() {
		end = start
	}

	body := Body{
		Summary:     rec.Title,
		Description: description(rec),
		SourceTitle: rec.SourceSite,
		SourceURL:   rec.SourceURL,
	}
	if rec.Location != nil {
		body.Location = rec.Location.Name
		if rec.Location.Address != "" {
			body.Location += ", " + rec.Location.Address
		}
	}

	if rec.Timing.AllDay || rec.Timing.StartTime == nil {
		body.Start = DateTime{Date: start.Format("2006-01-02")}
		body.End = DateTime{Date: end.AddDate(0, 0, 1).Format("2006-01-02")}
		return body
	}

	startAt := rec.Timing.StartTime.On(start)
	endClock := event.ClockTime{Hour: 23, Minute: 59}
	if rec.Timing.EndTime != nil {
		endClock = *rec.Timing.EndTime
	}
	endAt := endClock.On(end)
	body.Start = DateTime{Time: startAt.Format("2006-01-02T15:04:05"), TimeZone: calendarTimeZone}
	body.End = DateTime{Time: endAt.Format("2006-01-02T15:04:05"), TimeZone: calendarTimeZone}
	return body
}

// description renders the localized annotation block appended below the
// scraped description.
func description(rec *event.Record) string {
	var parts []string
	if rec.Description != "" {
		parts = append(parts, rec.Description)
	}
	parts = append(parts, fmt.Sprintf("\n品質スコア: %.1f/100", rec.QualityScore))
	parts = append(parts, fmt.Sprintf("カテゴリー: %s", rec.Category))
	if rec.SourceSite != "" {
		parts = append(parts, fmt.Sprintf("情報源: %s", rec.SourceSite))
	}
	if rec.Contact != nil {
		var contact []string
		if rec.Contact.Phone != "" {
			contact = append(contact, "電話: "+rec.Contact.Phone)
		}
		if rec.Contact.Email != "" {
			contact = append(contact, "メール: "+rec.Contact.Email)
		}
		if len(contact) > 0 {
			parts = append(parts, "\n連絡先:")
			parts = append(parts, contact...)
		}
	}
	if rec.Pricing != nil {
		if rec.Pricing.Free {
			parts = append(parts, "\n参加費: 無料")
		} else if rec.Pricing.Amount > 0 {
			parts = append(parts, fmt.Sprintf("\n料金: %.0f円", rec.Pricing.Amount))
		}
	}
	return strings.Join(parts, "\n")
}
