// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"quill/internal/models"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 255

// Mode selects which fields a post payload must carry.
type Mode int

const (
	// Full requires title and content. Used by create and PUT.
	Full Mode = iota
	// Partial validates only the fields present. Used by PATCH.
	Partial
)

// PostInput is a normalized, validated post payload.
type PostInput struct {
	Title       string
	Content     string
	IsDraft     bool
	PublishedAt *time.Time
}

// Errors collects failure messages per field.
type Errors map[string][]string

// Add records msg under field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Err returns a VALIDATION_FAILED AppError, or nil when nothing failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return models.NewValidationFailedError(e)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidatePost checks a decoded JSON payload.
//
// existing is nil on create. On update, fields absent from payload are taken
// from existing before the draft/publish-date rule is applied. When the
// payload sets is_draft the rule is checked against the payload alone, so a
// request turning a post live must say when.
func ValidatePost(payload map[string]any, mode Mode, existing *models.Post, now time.Time) (PostInput, error) {
	errs := Errors{}
	var out PostInput
	if existing != nil {
		out = PostInput{
			Title:       existing.Title,
			Content:     existing.Content,
			IsDraft:     existing.IsDraft,
			PublishedAt: existing.PublishedAt,
		}
	}

	if s, ok := stringField(payload, "title", mode, errs); ok {
		if utf8.RuneCountInString(s) > MaxTitleLength {
			errs.Add("title", fmt.Sprintf("The title field must not be greater than %d characters.", MaxTitleLength))
		} else {
			out.Title = s
		}
	}

	if s, ok := stringField(payload, "content", mode, errs); ok {
		out.Content = s
	}

	draftGiven := false
	draftValid := true
	if raw, present := payload["is_draft"]; present && raw != nil {
		draftGiven = true
		b, ok := coerceBool(raw)
		if !ok {
			draftValid = false
			errs.Add("is_draft", "The is_draft field must be true or false.")
		} else {
			out.IsDraft = b
		}
	}

	dateGiven := false
	dateValid := true
	if raw, present := payload["published_at"]; present {
		dateGiven = true
		switch v := raw.(type) {
		case nil:
			out.PublishedAt = nil
		case string:
			if strings.TrimSpace(v) == "" {
				out.PublishedAt = nil
				break
			}
			t, err := ParseTime(v, now)
			if err != nil {
				dateValid = false
				errs.Add("published_at", "The published_at field must be a valid date.")
			} else {
				out.PublishedAt = &t
			}
		default:
			dateValid = false
			errs.Add("published_at", "The published_at field must be a valid date.")
		}
	}

	if draftValid && dateValid && !out.IsDraft {
		var hasDate bool
		if existing == nil || draftGiven {
			hasDate = dateGiven && out.PublishedAt != nil
		} else {
			hasDate = out.PublishedAt != nil
		}
		if !hasDate {
			errs.Add("published_at", "The published_at field is required when is_draft is false.")
		}
	}

	if err := errs.Err(); err != nil {
		return PostInput{}, err
	}
	return out, nil
}

// stringField validates a required-in-Full-mode string. ok is true only when
// a usable value was supplied.
func stringField(payload map[string]any, field string, mode Mode, errs Errors) (string, bool) {
	raw, present := payload[field]
	if !present || raw == nil {
		if mode == Full {
			errs.Add(field, fmt.Sprintf("The %s field is required.", field))
		}
		return "", false
	}
	s, isString := raw.(string)
	if !isString {
		errs.Add(field, fmt.Sprintf("The %s field must be a string.", field))
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		errs.Add(field, fmt.Sprintf("The %s field is required.", field))
		return "", false
	}
	return s, true
}

// coerceBool accepts JSON booleans, 0/1 and their string forms.
func coerceBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		switch v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case int:
		switch v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false":
			return false, true
		case "1", "true":
			return true, true
		}
	}
	return false, false
}

// ParseTime parses an absolute timestamp in one of the accepted layouts, or
// one of the keywords now, today, tomorrow, yesterday relative to now.
// Zone-less layouts are read as UTC. The result is in UTC.
func ParseTime(value string, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	midnight := func(t time.Time) time.Time {
		y, m, d := t.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	switch strings.ToLower(v) {
	case "now":
		return now.UTC(), nil
	case "today":
		return midnight(now), nil
	case "tomorrow":
		return midnight(now).AddDate(0, 0, 1), nil
	case "yesterday":
		return midnight(now).AddDate(0, 0, -1), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
