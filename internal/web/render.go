// Package web renders the HTML pages of the panel.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/faciam-dev/redisboard/internal/inspect"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"servers.html", "inspect.html", "key.html"}

// Response is a page waiting to be rendered. Callbacks registered with
// AddPostRenderCallback run once rendering has finished, whatever its outcome.
type Response struct {
	Status    int
	Page      string
	Data      any
	callbacks []func()
}

// NewResponse returns a 200 response for page.
func NewResponse(page string, data any) *Response {
	return &Response{Status: http.StatusOK, Page: page, Data: data}
}

// AddPostRenderCallback registers fn to run after rendering.
func (r *Response) AddPostRenderCallback(fn func()) {
	r.callbacks = append(r.callbacks, fn)
}

func (r *Response) finish() {
	cbs := r.callbacks
	r.callbacks = nil
	for _, fn := range cbs {
		fn()
	}
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	rd := &Renderer{pages: map[string]*template.Template{}}
	for _, p := range pages {
		t, err := template.New("base.html").Funcs(Funcs()).ParseFS(templateFS, "templates/base.html", "templates/"+p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		rd.pages[p] = t
	}
	return rd, nil
}

// Render executes resp into w and then runs its post-render callbacks. The
// page is buffered so that a failing template yields a 500 instead of a
// truncated page.
func (rd *Renderer) Render(w http.ResponseWriter, resp *Response) error {
	defer resp.finish()
	t, ok := rd.pages[resp.Page]
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return fmt.Errorf("unknown page %q", resp.Page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", resp.Data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"inspectURL": InspectURL,
		"keyURL":     KeyURL,
		"displayKey": inspect.DisplayKey,
		"duration":   func(d time.Duration) string { return d.Round(time.Second).String() },
		"seconds":    func(n int64) string { return (time.Duration(n) * time.Second).String() },
		"ms":         func(d time.Duration) string { return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64) },
		"deref":      func(p *int64) int64 { return *p },
		"add":        func(a, b int64) int64 { return a + b },
	}
}

// InspectURL links to the inspection page of db at cursor; db < 0 links to
// the server overview. Query filters are preserved.
func InspectURL(serverID int64, db int, cursor uint64, q url.Values) string {
	u := "/servers/" + strconv.FormatInt(serverID, 10) + "/inspect/"
	if db >= 0 {
		u += strconv.Itoa(db) + "/"
		if cursor != 0 {
			u += strconv.FormatUint(cursor, 10) + "/"
		}
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// KeyURL links to the detail page of key, starting its value at cursor.
func KeyURL(serverID int64, db int, key string, cursor uint64) string {
	u := "/servers/" + strconv.FormatInt(serverID, 10) + "/inspect/" + strconv.Itoa(db) + "/"
	if cursor != 0 {
		u += strconv.FormatUint(cursor, 10) + "/"
	}
	return u + "key/" + inspect.EscapeKey(key)
}
