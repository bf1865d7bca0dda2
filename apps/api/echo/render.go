package echoapi

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/eduquest/academy/core/account"
)

const (
	pagesDir     = "assets/templates/pages"
	layoutFile   = "_layout.gohtml"
	layoutTmpl   = "layout"
	templateExt  = ".gohtml"
	currencyUnit = "VND"
)

var errUnknownPage = errors.New("unknown page template")

// raw HTML in course descriptions is escaped
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// View is the value every page template is executed with.
type View struct {
	Identity account.Identity
	Path     string
	Year     int
	Build    string
	Data     interface{}
}

// Renderer renders the embedded page templates, each wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
	build string
}

var _ echo.Renderer = (*Renderer)(nil)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"money":    formatMoney,
		"date":     func(t time.Time) string { return t.Format("2006-01-02") },
		"lower":    strings.ToLower,
	}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatMoney groups thousands: 4000000 -> "4,000,000 VND".
func formatMoney(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + " " + currencyUnit
	if neg {
		return "-" + out
	}
	return out
}

// NewRenderer parses every page under assets/templates/pages of fsys together with the layout.
func NewRenderer(fsys fs.FS, build string) (*Renderer, error) {
	fps, err := fs.Glob(fsys, path.Join(pagesDir, "*"+templateExt))
	if err != nil {
		return nil, errors.Wrap(err, "listing page templates")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(fps)), build: build}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(fname).
			Funcs(templateFuncs()).
			Option("missingkey=error").
			ParseFS(fsys, path.Join(pagesDir, layoutFile), fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		r.pages[strings.TrimSuffix(fname, templateExt)] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, ctx echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Wrap(errUnknownPage, name)
	}
	view := View{
		Identity: contextIdentity(ctx),
		Path:     ctx.Request().URL.Path,
		Year:     time.Now().Year(),
		Build:    r.build,
		Data:     data,
	}

	// render into a buffer so a failing template never leaves a half-written page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTmpl, view); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}
