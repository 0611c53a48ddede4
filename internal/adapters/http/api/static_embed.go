package api

import (
	"embed"
	"html/template"
	"time"
)

//go:embed static/*.html
var apiStaticFS embed.FS

// dateLayout is how game dates are shown on the leaderboard page.
const dateLayout = "Jan 2, 2006"

// boardTemplate renders the leaderboard page.
var boardTemplate = template.Must(template.New("leaderboard.html").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	},
}).ParseFS(apiStaticFS, "static/leaderboard.html"))
