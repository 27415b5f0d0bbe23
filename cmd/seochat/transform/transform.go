// Package transform maps backend message records onto the display model.
package transform

import (
	"time"

	"seo-assistant/dto"
	"seo-assistant/models"
)

// timestamp layouts emitted by the backend: RFC 3339 when timezone-aware, naive ISO-8601 otherwise.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// ParseTimestamp parses a backend timestamp. Unparsable or empty values give the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Message branches on role only: "user" is a user message, anything else is an agent reply.
func Message(rec dto.MessageOut) models.Message {
	if rec.Role == dto.RoleUser {
		return UserMessage(rec)
	}
	return AgentMessage(rec)
}

// Messages transforms a history page, preserving order.
func Messages(recs []dto.MessageOut) []models.Message {
	out := make([]models.Message, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Message(rec))
	}
	return out
}

func UserMessage(rec dto.MessageOut) models.Message {
	return models.Message{
		ID:        rec.ID,
		Type:      models.MessageTypeUser,
		Text:      rec.MessageContent,
		Timestamp: ParseTimestamp(rec.CreatedAt),
	}
}

func AgentMessage(rec dto.MessageOut) models.Message {
	return models.Message{
		ID:   rec.ID,
		Type: models.MessageTypeAgent,
		Suggestion: &models.Suggestion{
			Title:           deref(rec.SuggestedPageTitle),
			Content:         deref(rec.SuggestedPageContent),
			TitleTag:        deref(rec.SuggestedTitleTag),
			MetaDescription: deref(rec.SuggestedMetaDescription),
			MetaKeywords:    append([]string(nil), rec.SuggestedMetaKeywords...),
		},
		Timestamp: ParseTimestamp(rec.CreatedAt),
	}
}

// Session maps a GET /sessions item.
func Session(item dto.SessionListItem) models.Session {
	return models.Session{
		ID:            item.ID,
		Title:         item.Title,
		LastMessageAt: ParseTimestamp(item.LastMessageAt),
	}
}

func Sessions(items []dto.SessionListItem) []models.Session {
	out := make([]models.Session, 0, len(items))
	for _, item := range items {
		out = append(out, Session(item))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
