package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, models.CodeValidationFailed, appErr.Code)
	return appErr.Fields
}

func TestValidatePost_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{"missing title", map[string]any{"content": "some content", "is_draft": 1.0}, "title"},
		{"title too long", map[string]any{"title": strings.Repeat("a", 256), "content": "some content"}, "title"},
		{"title not a string", map[string]any{"title": 42.0, "content": "c", "is_draft": true}, "title"},
		{"blank title", map[string]any{"title": "   ", "content": "c", "is_draft": true}, "title"},
		{"missing content", map[string]any{"title": "some title", "is_draft": 1.0}, "content"},
		{"is_draft not a boolean", map[string]any{"title": "t", "content": "c", "is_draft": "not-a-bool"}, "is_draft"},
		{"is_draft out of range", map[string]any{"title": "t", "content": "c", "is_draft": 2.0}, "is_draft"},
		{"published_at not a date", map[string]any{"title": "t", "content": "c", "published_at": "not-a-date-at-all"}, "published_at"},
		{"published_at wrong type", map[string]any{"title": "t", "content": "c", "published_at": 12.0}, "published_at"},
		{"non-draft without published_at", map[string]any{"title": "t", "content": "c", "is_draft": 0.0}, "published_at"},
		{"is_draft defaults to false", map[string]any{"title": "t", "content": "c"}, "published_at"},
		{"non-draft with null published_at", map[string]any{"title": "t", "content": "c", "is_draft": false, "published_at": nil}, "published_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePost(tt.payload, Full, nil, now)
			fields := fieldErrors(t, err)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidatePost_ReportsEveryField(t *testing.T) {
	t.Parallel()

	_, err := ValidatePost(map[string]any{"is_draft": "maybe", "published_at": "soon-ish"}, Full, nil, now)
	fields := fieldErrors(t, err)
	assert.Len(t, fields, 4)
	for _, f := range []string{"title", "content", "is_draft", "published_at"} {
		assert.Contains(t, fields, f)
	}
}

func TestValidatePost_CreateValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   map[string]any
		wantDraft bool
		wantDate  *time.Time
	}{
		{
			name:     "published post",
			payload:  map[string]any{"title": "Hello", "content": "World", "is_draft": false, "published_at": "2026-02-01T10:00:00Z"},
			wantDate: ptr(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:     "zone offset normalized to UTC",
			payload:  map[string]any{"title": "Hello", "content": "World", "published_at": "2026-02-01T12:00:00+02:00"},
			wantDate: ptr(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:     "sql style timestamp",
			payload:  map[string]any{"title": "Hello", "content": "World", "is_draft": "0", "published_at": "2026-02-01 10:00:00"},
			wantDate: ptr(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:     "relative keyword",
			payload:  map[string]any{"title": "Hello", "content": "World", "published_at": "tomorrow"},
			wantDate: ptr(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:      "draft without date",
			payload:   map[string]any{"title": "Hello", "content": "World", "is_draft": 1.0},
			wantDraft: true,
		},
		{
			name:      "draft with string flag",
			payload:   map[string]any{"title": "Hello", "content": "World", "is_draft": "true", "published_at": ""},
			wantDraft: true,
		},
		{
			name:     "title at the limit in multibyte characters",
			payload:  map[string]any{"title": strings.Repeat("é", MaxTitleLength), "content": "World", "published_at": "2026-02-01"},
			wantDate: ptr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ValidatePost(tt.payload, Full, nil, now)
			require.NoError(t, err)
			assert.Equal(t, tt.payload["title"], in.Title)
			assert.Equal(t, tt.payload["content"], in.Content)
			assert.Equal(t, tt.wantDraft, in.IsDraft)
			if tt.wantDate == nil {
				assert.Nil(t, in.PublishedAt)
			} else {
				require.NotNil(t, in.PublishedAt)
				assert.True(t, tt.wantDate.Equal(*in.PublishedAt), "got %v", in.PublishedAt)
			}
		})
	}
}

func TestValidatePost_Update(t *testing.T) {
	t.Parallel()

	published := now.Add(-time.Hour)
	existing := func() *models.Post {
		return &models.Post{ID: 7, Title: "Old", Content: "Old body", PublishedAt: &published}
	}

	t.Run("title and content keep stored publication state", func(t *testing.T) {
		in, err := ValidatePost(map[string]any{"title": "Updated Title", "content": "New content."}, Full, existing(), now)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", in.Title)
		assert.False(t, in.IsDraft)
		require.NotNil(t, in.PublishedAt)
		assert.True(t, published.Equal(*in.PublishedAt))
	})

	t.Run("put still requires title", func(t *testing.T) {
		_, err := ValidatePost(map[string]any{"content": "New content."}, Full, existing(), now)
		assert.Contains(t, fieldErrors(t, err), "title")
	})

	t.Run("patch keeps omitted fields", func(t *testing.T) {
		in, err := ValidatePost(map[string]any{"content": "Only body"}, Partial, existing(), now)
		require.NoError(t, err)
		assert.Equal(t, "Old", in.Title)
		assert.Equal(t, "Only body", in.Content)
	})

	t.Run("patch still rejects a blank title", func(t *testing.T) {
		_, err := ValidatePost(map[string]any{"title": ""}, Partial, existing(), now)
		assert.Contains(t, fieldErrors(t, err), "title")
	})

	t.Run("explicit is_draft false needs a date in the request", func(t *testing.T) {
		_, err := ValidatePost(map[string]any{"title": "t", "content": "c", "is_draft": 0.0}, Full, existing(), now)
		assert.Contains(t, fieldErrors(t, err), "published_at")
	})

	t.Run("clearing the date of a published post fails", func(t *testing.T) {
		_, err := ValidatePost(map[string]any{"published_at": nil}, Partial, existing(), now)
		assert.Contains(t, fieldErrors(t, err), "published_at")
	})

	t.Run("turning into a draft may clear the date", func(t *testing.T) {
		in, err := ValidatePost(map[string]any{"is_draft": true, "published_at": nil}, Partial, existing(), now)
		require.NoError(t, err)
		assert.True(t, in.IsDraft)
		assert.Nil(t, in.PublishedAt)
	})

	t.Run("publishing a draft with a date", func(t *testing.T) {
		draft := &models.Post{ID: 8, Title: "Draft", Content: "Body", IsDraft: true}
		in, err := ValidatePost(map[string]any{"is_draft": false, "published_at": "2026-04-01T00:00:00Z"}, Partial, draft, now)
		require.NoError(t, err)
		assert.False(t, in.IsDraft)
		require.NotNil(t, in.PublishedAt)
	})
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	ok := []string{"2026-01-02T03:04:05Z", "2026-01-02T03:04:05.123456Z", "2026-01-02 03:04:05", "2026-01-02T03:04:05", "2026-01-02 03:04", "2026-01-02", "now", "Today", "yesterday"}
	for _, v := range ok {
		_, err := ParseTime(v, now)
		assert.NoError(t, err, v)
	}

	bad := []string{"", "not-a-date-at-all", "2026-13-01", "02/01/2026", "next week"}
	for _, v := range bad {
		_, err := ParseTime(v, now)
		assert.Error(t, err, v)
	}
}

func ptr[T any](v T) *T { return &v }
