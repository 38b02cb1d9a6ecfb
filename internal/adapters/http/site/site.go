// Package site renders the HTML front end for the custom object records.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/cobj/internal/adapters/http/api"
	"github.com/okian/cobj/internal/domain/model"
	"github.com/okian/cobj/pkg/logger"
)

// Page titles.
const (
	TitleHome   = "Homepage | Integrating With HubSpot I Practicum"
	TitleUpdate = "Update Custom Object Form | Integrating With HubSpot I Practicum"
)

// Generic bodies returned on failure; details only go to the log.
const (
	msgListFailed   = "Error fetching custom objects. Check console."
	msgCreateFailed = "Failed to create record. Check console for details."
	msgRenderFailed = "Error rendering page. Check console."
	msgBadForm      = "Could not read the submitted form."
)

const maxFormBytes = 1 << 20

// Records is what the pages need from the service layer.
type Records interface {
	ObjectType() model.ObjectType
	ListRecords(ctx context.Context) ([]model.Record, error)
	CreateRecord(ctx context.Context, form map[string]string) (model.Record, error)
}

// Handler serves the record pages.
type Handler struct {
	records Records
	pages   *renderer
	logger  logger.Logger
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithLogger sets a custom logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New parses the embedded templates and returns a Handler over records.
func New(records Records, opts ...Option) (*Handler, error) {
	if records == nil {
		return nil, errors.New("site: records is nil")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("site: parse templates: %w", err)
	}
	h := &Handler{records: records, pages: &renderer{pages: pages}}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Named("site")
	}
	return h, nil
}

// Register attaches the page and asset routes to mux.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /{$}", api.Instrument("home", http.HandlerFunc(h.HandleHome)))
	mux.Handle("GET /update-cobj", api.Instrument("update_form", http.HandlerFunc(h.HandleForm)))
	mux.Handle("POST /update-cobj", api.Instrument("update_submit", http.HandlerFunc(h.HandleCreate)))
	mux.Handle("GET /css/", http.FileServer(assets()))
}

// HandleHome handles GET / by listing records into a table.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	const op = "site.home"
	ctx := r.Context()

	records, err := h.records.ListRecords(ctx)
	if err != nil {
		h.fail(ctx, w, http.StatusInternalServerError, msgListFailed, api.WrapKind(op, api.ErrUpstream, err))
		return
	}

	ot := h.records.ObjectType()
	data := pageData{
		Title:  TitleHome,
		Fields: fieldsFor(ot),
		Rows:   rowsFor(ot, records),
	}
	h.render(w, r, pageHome, data)
}

// HandleForm handles GET /update-cobj by rendering the create form.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:  TitleUpdate,
		Fields: fieldsFor(h.records.ObjectType()),
	}
	h.render(w, r, pageUpdate, data)
}

// HandleCreate handles POST /update-cobj: it creates a record from the form
// fields and redirects to the homepage.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "site.create"
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.fail(ctx, w, http.StatusBadRequest, msgBadForm, api.WrapKind(op, api.ErrBadRequest, err))
		return
	}

	submitted := make(map[string]string)
	for _, name := range h.records.ObjectType().Properties {
		if vals, ok := r.PostForm[name]; ok && len(vals) > 0 {
			submitted[name] = vals[0]
		}
	}

	rec, err := h.records.CreateRecord(ctx, submitted)
	if err != nil {
		h.fail(ctx, w, http.StatusInternalServerError, msgCreateFailed, api.WrapKind(op, api.ErrUpstream, err))
		return
	}
	h.logger.Debug(ctx, "record submitted", logger.String("id", rec.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// render writes the page only once it has rendered completely.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	buf, err := h.pages.render(page, data)
	if err != nil {
		h.fail(r.Context(), w, http.StatusInternalServerError, msgRenderFailed,
			api.WrapKind("site.render", api.ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	h.logger.Error(ctx, "request failed", logger.Int("status", status), logger.Error(err))
	http.Error(w, msg, status)
}

type renderer struct {
	pages map[string]*template.Template
}

func (p *renderer) render(page string, data pageData) (*bytes.Buffer, error) {
	t, ok := p.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return &buf, nil
}

// pageData is the view model shared by both pages.
type pageData struct {
	Title  string
	Fields []field
	Rows   []row
}

type field struct {
	Name  string
	Label string
}

type row struct {
	ID    string
	Cells []string
}

func fieldsFor(ot model.ObjectType) []field {
	fields := make([]field, 0, len(ot.Properties))
	for _, p := range ot.Properties {
		fields = append(fields, field{Name: p, Label: label(p)})
	}
	return fields
}

// rowsFor aligns each record's values with the configured columns.
func rowsFor(ot model.ObjectType, records []model.Record) []row {
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		cells := make([]string, 0, len(ot.Properties))
		for _, p := range ot.Properties {
			cells = append(cells, rec.Get(p))
		}
		rows = append(rows, row{ID: rec.ID, Cells: cells})
	}
	return rows
}

// label turns an internal property name such as "family_type" into "Family Type".
func label(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
