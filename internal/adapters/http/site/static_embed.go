package site

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/internal/domain/sponsors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// StaticFS returns the stylesheet and images served under /static/.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// parsePages builds one template set per page, each sharing the layout.
func parsePages(md *Markdown) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"markdown": md.Render,
		"money": money,
		"threshold": func(t *model.SponsorTier) string {
			return money(sponsors.Threshold(t.Price))
		},
		"date": func(d model.Date) string {
			return d.Format("January 2, 2006")
		},
	}

	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, errors.Join(ErrTemplate, err)
	}

	names := []string{"home", "sponsors", "events", "robots", "about", "news", "post"}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		clone, err := base.Clone()
		if err != nil {
			return nil, errors.Join(ErrTemplate, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, errors.Join(ErrTemplate, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

var usd = message.NewPrinter(language.English)

// money formats whole dollars with grouping, "$12,500".
func money(d decimal.Decimal) string {
	return usd.Sprintf("$%d", d.Round(0).IntPart())
}
