package viewer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/errs"
	"github.com/Bahjat/wp-posts-viewer/internal/wordpress"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// TitleMode selects how post titles reach the page.
type TitleMode int

const (
	// TitleHTML inserts title.rendered as markup, unescaped. WordPress
	// renders titles server-side, so this trusts the upstream API.
	TitleHTML TitleMode = iota
	// TitleText strips the markup and inserts escaped plain text.
	TitleText
)

// ParseTitleMode maps the TITLE_MARKUP setting to a TitleMode.
func ParseTitleMode(s string) TitleMode {
	if s == "text" {
		return TitleText
	}
	return TitleHTML
}

const (
	usShortDate = "1/2/2006"
	invalidDate = "Invalid Date"
)

// Renderer turns posts into HTML.
type Renderer struct {
	loc    *time.Location
	titles TitleMode
}

// NewRenderer returns a Renderer that shows dates in loc.
func NewRenderer(loc *time.Location, titles TitleMode) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc, titles: titles}
}

// PostsView is the template input for the post list.
type PostsView struct {
	Header string
	Items  []PostItem
}

// PostItem is one rendered list entry.
type PostItem struct {
	ID    string
	Href  string
	Title template.HTML
	Date  string
}

// ResultsView is everything below the inputs: the optional error banner and
// the post list.
type ResultsView struct {
	State      string
	Target     string
	ShowBanner bool
	Status     string
	Posts      PostsView
}

// PageView is the whole document.
type PageView struct {
	PageSize string
	Site     string
	Results  ResultsView
}

// Posts builds the list view in the order the posts were received. A post
// whose guid or title is missing or not a rendered object fails the whole
// list.
func (r *Renderer) Posts(posts []model.Post) (PostsView, error) {
	if len(posts) == 0 {
		return PostsView{}, nil
	}

	header := strconv.Itoa(len(posts)) + " post found."
	if len(posts) > 1 {
		header = strconv.Itoa(len(posts)) + " posts found."
	}

	items := make([]PostItem, 0, len(posts))
	for i, p := range posts {
		href, err := p.Link()
		if err != nil {
			return PostsView{}, malformedPost(i, p, "guid", err)
		}
		title, err := p.TitleMarkup()
		if err != nil {
			return PostsView{}, malformedPost(i, p, "title", err)
		}
		items = append(items, PostItem{
			ID:    model.Text(p.ID),
			Href:  href,
			Title: r.title(title),
			Date:  r.date(model.Text(p.Modified)),
		})
	}

	return PostsView{Header: header, Items: items}, nil
}

// RenderPosts writes the post list for posts.
func (r *Renderer) RenderPosts(w io.Writer, posts []model.Post) error {
	view, err := r.Posts(posts)
	if err != nil {
		return err
	}
	return execute(w, "posts", view)
}

// RenderResults writes the banner and post list.
func (r *Renderer) RenderResults(w io.Writer, view ResultsView) error {
	return execute(w, "results", view)
}

// RenderPage writes the full document.
func (r *Renderer) RenderPage(w io.Writer, view PageView) error {
	return execute(w, "page", view)
}

func (r *Renderer) title(rendered string) template.HTML {
	if r.titles == TitleText {
		return template.HTML(template.HTMLEscapeString(wordpress.TitleText(rendered))) //nolint:gosec // escaped above
	}
	return template.HTML(rendered) //nolint:gosec // trusted upstream markup, see TitleHTML
}

// date formats a WordPress timestamp as a US short date. Timestamps with an
// offset are converted to the display zone; "modified" normally carries no
// offset and is read as wall time in that zone. Date-only strings are UTC.
func (r *Renderer) date(modified string) string {
	if t, err := time.Parse(time.RFC3339, modified); err == nil {
		return t.In(r.loc).Format(usShortDate)
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", modified, r.loc); err == nil {
		return t.Format(usShortDate)
	}
	if t, err := time.Parse(time.DateOnly, modified); err == nil {
		return t.In(r.loc).Format(usShortDate)
	}
	return invalidDate
}

func malformedPost(index int, p model.Post, field string, err error) error {
	msg := fmt.Sprintf("post #%d (id %s) has no %s", index, model.Text(p.ID), field)
	if !errors.Is(err, model.ErrFieldMissing) {
		msg = fmt.Sprintf("post #%d (id %s) has a %s that is not a rendered object", index, model.Text(p.ID), field)
	}
	return &errs.AppError{
		Kind:    errs.RenderFailed,
		Message: msg,
		Cause:   err,
	}
}

// execute renders into a buffer first so a failing template never leaves a
// partial document on w.
func execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return &errs.AppError{
			Kind:    errs.RenderFailed,
			Message: "failed to render " + name,
			Cause:   err,
		}
	}
	_, err := buf.WriteTo(w)
	return err
}
