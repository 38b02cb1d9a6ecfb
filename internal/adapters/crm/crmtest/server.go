// Package crmtest provides an in-memory stand-in for the CRM custom object
// API, served over httptest. It is used by tests across the module.
package crmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Request is one call captured by the server.
type Request struct {
	Method        string
	Path          string
	Query         map[string]string
	Authorization string
	ContentType   string
	Properties    map[string]string // decoded create body, nil for GET
}

// Object is one stored object.
type Object struct {
	ID         string
	Properties map[string]string
	CreatedAt  time.Time
}

// Server is a fake CRM. Zero or more objects of a single type are kept in
// insertion order.
type Server struct {
	*httptest.Server

	token      string
	objectType string

	mu       sync.Mutex
	nextID   int
	objects  []Object
	requests []Request
	failWith int  // status to return instead of serving; 0 disables
	omitList bool // reply to list without a results array
}

// NewServer starts a fake CRM that accepts token for objectType.
func NewServer(token, objectType string) *Server {
	s := &Server{token: token, objectType: objectType, nextID: 1001}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /crm/v3/objects/{objectType}", s.handleList)
	mux.HandleFunc("POST /crm/v3/objects/{objectType}", s.handleCreate)
	s.Server = httptest.NewServer(mux)
	return s
}

// Seed stores objects as if they had been created earlier.
func (s *Server) Seed(props ...map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range props {
		s.objects = append(s.objects, s.newObjectLocked(p))
	}
}

// FailWith makes every following call answer with status. Zero restores normal service.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failWith = status
	s.mu.Unlock()
}

// OmitResults makes list calls answer with an empty JSON object.
func (s *Server) OmitResults(omit bool) {
	s.mu.Lock()
	s.omitList = omit
	s.mu.Unlock()
}

// Objects returns a copy of the stored objects.
func (s *Server) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Object(nil), s.objects...)
}

// Requests returns a copy of the captured requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) newObjectLocked(p map[string]string) Object {
	props := make(map[string]string, len(p))
	for k, v := range p {
		props[k] = v
	}
	id := strconv.Itoa(s.nextID)
	s.nextID++
	return Object{ID: id, Properties: props, CreatedAt: time.Now().UTC()}
}

func (s *Server) capture(r *http.Request, props map[string]string) {
	q := make(map[string]string)
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         q,
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Properties:    props,
	})
}

// guard applies failure injection, authentication and type checks.
// It reports whether the handler may continue.
func (s *Server) guard(w http.ResponseWriter, r *http.Request) bool {
	if s.failWith != 0 {
		writeError(w, s.failWith, "INTERNAL_ERROR", "injected failure")
		return false
	}
	if r.Header.Get("Authorization") != "Bearer "+s.token || s.token == "" {
		writeError(w, http.StatusUnauthorized, "INVALID_AUTHENTICATION",
			"Authentication credentials not found.")
		return false
	}
	if r.PathValue("objectType") != s.objectType {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"Unable to infer object type from: "+r.PathValue("objectType"))
		return false
	}
	return true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture(r, nil)
	if !s.guard(w, r) {
		return
	}
	if s.omitList {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid limit")
			return
		}
		limit = n
	}
	var wanted []string
	if v := r.URL.Query().Get("properties"); v != "" {
		wanted = strings.Split(v, ",")
	}

	results := make([]map[string]any, 0, len(s.objects))
	for i, o := range s.objects {
		if i >= limit {
			break
		}
		results = append(results, objectJSON(o, wanted))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body struct {
		Properties map[string]string `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.capture(r, nil)
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input JSON: "+err.Error())
		return
	}
	s.capture(r, body.Properties)
	if !s.guard(w, r) {
		return
	}

	o := s.newObjectLocked(body.Properties)
	s.objects = append(s.objects, o)
	writeJSON(w, http.StatusCreated, objectJSON(o, nil))
}

// objectJSON renders an object. With wanted set only those properties are
// returned, with null for unknown ones, plus hs_object_id.
func objectJSON(o Object, wanted []string) map[string]any {
	props := map[string]any{"hs_object_id": o.ID}
	if wanted == nil {
		keys := make([]string, 0, len(o.Properties))
		for k := range o.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		wanted = keys
	}
	for _, k := range wanted {
		if v, ok := o.Properties[k]; ok {
			props[k] = v
		} else {
			props[k] = nil
		}
	}
	ts := o.CreatedAt.Format(time.RFC3339Nano)
	return map[string]any{
		"id":         o.ID,
		"properties": props,
		"createdAt":  ts,
		"updatedAt":  ts,
		"archived":   false,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, map[string]any{
		"status":        "error",
		"message":       message,
		"category":      category,
		"correlationId": uuid.NewString(),
	})
}
