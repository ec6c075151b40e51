package web

import (
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames lists the per-page templates; each is parsed together with the
// shared layout so pages only define their own content block.
var pageNames = []string{
	"login.html",
	"dashboard.html",
	"messages.html",
	"responses.html",
	"users.html",
	"analytics.html",
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

var templateFuncs = template.FuncMap{
	"truncate": truncate,
	"number":   formatNumber,
	"na":       stringOrNA,
	"ms":       floatMs,
	"msInt":    intMs,
	"nsfw":     nsfwLabel,
	"filterLevel": func(ns sql.NullString) string {
		// Default content filter level when the user has no settings row.
		if !ns.Valid || ns.String == "" {
			return "strict"
		}
		return ns.String
	},
	"timefmt": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
	"pct": barPercent,
}

func truncate(maxLen int, s string) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// formatNumber renders an integer with thousands separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func stringOrNA(ns sql.NullString) string {
	if !ns.Valid || ns.String == "" {
		return "N/A"
	}
	return ns.String
}

func floatMs(v sql.NullFloat64) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f ms", v.Float64)
}

func intMs(v sql.NullInt64) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%d ms", v.Int64)
}

func nsfwLabel(b sql.NullBool) string {
	switch {
	case !b.Valid:
		return "Not Set"
	case b.Bool:
		return "Enabled"
	default:
		return "Disabled"
	}
}

// barPercent scales a count against the largest value in its chart,
// clamped so even tiny non-zero bars stay visible.
func barPercent(count, max int64) int {
	if max <= 0 {
		return 0
	}
	p := int(count * 100 / max)
	if p < 2 {
		p = 2
	}
	return p
}

// render executes the named page template. Render failures surface as a
// bare 500; by that point part of the page may already be written.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		s.logger.Error("unknown template requested", "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
