package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilikepancakes/gorkdb-admin/internal/database"
)

func TestFilterEmpty(t *testing.T) {
	t.Parallel()

	f := &database.Filter{}
	assert.Equal(t, "", f.Where())
	assert.Empty(t, f.Args())
}

func TestFilterSubstring(t *testing.T) {
	t.Parallel()

	f := &database.Filter{}
	f.Substring("hello", "message_content", "username")

	assert.Equal(t, "WHERE (message_content LIKE ? OR username LIKE ?)", f.Where())
	assert.Equal(t, []any{"%hello%", "%hello%"}, f.Args())
}

func TestFilterEquals(t *testing.T) {
	t.Parallel()

	f := &database.Filter{}
	f.Equals("user_id", "12345")

	assert.Equal(t, "WHERE user_id = ?", f.Where())
	assert.Equal(t, []any{"12345"}, f.Args())
}

func TestFilterConjunction(t *testing.T) {
	t.Parallel()

	f := &database.Filter{}
	f.Substring("bot", "message_content", "username")
	f.Equals("user_id", "42")

	assert.Equal(t, "WHERE (message_content LIKE ? OR username LIKE ?) AND user_id = ?", f.Where())
	assert.Equal(t, []any{"%bot%", "%bot%", "42"}, f.Args())
}

func TestFilterIgnoresEmptyValues(t *testing.T) {
	t.Parallel()

	f := &database.Filter{}
	f.Substring("", "message_content")
	f.Equals("user_id", "")

	assert.Equal(t, "", f.Where())
	assert.Empty(t, f.Args())
}

func TestFilterArgsMatchPlaceholders(t *testing.T) {
	t.Parallel()

	// Every predicate must contribute exactly as many args as placeholders,
	// so the count query and page query bind identically.
	f := &database.Filter{}
	f.Substring("x", "a", "b", "c")
	f.Equals("d", "y")

	placeholders := 0
	for _, ch := range f.Where() {
		if ch == '?' {
			placeholders++
		}
	}
	assert.Equal(t, placeholders, len(f.Args()))
}

func TestNewPageClamping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, database.NewPage(0).Number)
	assert.Equal(t, 1, database.NewPage(-5).Number)
	assert.Equal(t, 7, database.NewPage(7).Number)
}

func TestPageLimitOffset(t *testing.T) {
	t.Parallel()

	p := database.NewPage(3)
	assert.Equal(t, database.PageSize, p.Limit())
	assert.Equal(t, 2*database.PageSize, p.Offset())
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int64
		size  int
		want  int
	}{
		{"empty", 0, 20, 0},
		{"partial page", 5, 20, 1},
		{"exact page", 20, 20, 1},
		{"one over", 21, 20, 2},
		{"several pages", 45, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, database.TotalPages(tt.total, tt.size))
		})
	}
}
