package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"addressbook/internal/application/listutil"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/application/projections"
	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/deletion"
	"addressbook/internal/domain/viewstate"
	"addressbook/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// recentDeletions is how many log entries the deletions page shows.
const recentDeletions = 50

var baseFuncs = template.FuncMap{
	// replaced per request in render
	"csrfField": func() template.HTML { return "" },
	"renderMarkdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
	"sub":  func(a, b int) int { return a - b },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"contacts", "confirm", "deletions"} {
		t, err := template.New(name).Funcs(baseFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("internal_error", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	base, ok := s.pages[page]
	if !ok {
		s.internalError(w, fmt.Errorf("unknown page %q", page))
		return
	}
	t, err := base.Clone()
	if err != nil {
		s.internalError(w, err)
		return
	}
	t.Funcs(template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
	})

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// requestContext attaches the server logger so orchestrators log through it.
func (s *Server) requestContext(r *http.Request) context.Context {
	return logging.WithLogger(r.Context(), s.logger)
}

type listPage struct {
	Title   string
	List    projections.GetContactListResult
	Notices []string
	Error   string
	Target  string
	PerPage []int
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	s.renderList(w, r, http.StatusOK, listPage{}, listutil.ParsePageParams(r.URL.Query()))
}

// handleFilter replaces the persisted view.
// PRE: POST with a valid CSRF token
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	state, ok := listutil.ParseViewParams(r.PostForm)
	if !ok {
		s.renderList(w, r, http.StatusUnprocessableEntity, listPage{Error: errNoFilter.Error()}, listutil.PageParams{})
		return
	}

	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	data := listPage{}
	status := http.StatusOK
	res, err := orchestrators.ExecuteFilterContacts(s.requestContext(r), orchestrators.FilterContactsInput{State: state}, orchestrators.FilterContactsDeps{Book: s.deps.Book})
	switch {
	case errors.Is(err, viewstate.ErrMissingKeywords), errors.Is(err, viewstate.ErrInvalidMode):
		data.Error = err.Error()
		status = http.StatusUnprocessableEntity
	case err != nil:
		s.internalError(w, err)
		return
	default:
		data.Notices = append(data.Notices, res.Message)
	}
	s.renderList(w, r, status, data, listutil.PageParams{})
}

var errNoFilter = errors.New("enter a name or tag to filter by")

func (s *Server) renderList(w http.ResponseWriter, r *http.Request, status int, data listPage, page listutil.PageParams) {
	list, err := projections.QueryGetContactList(s.requestContext(r), projections.GetContactListQuery{Page: page}, projections.GetContactListDeps{Book: s.deps.Book})
	if err != nil {
		s.internalError(w, err)
		return
	}
	data.Title = "Contacts"
	data.List = list
	data.PerPage = listutil.PerPageOptions
	s.render(w, r, "contacts", status, data)
}

type confirmPage struct {
	Title      string
	Target     string
	Single     bool
	Candidates []projections.ContactRow
}

// handleDelete runs in two steps. Without a `confirm` field it previews the
// outcome and, when there is something to confirm, renders the confirmation
// page. With `confirm` it runs the deletion against the answer posted back.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := s.requestContext(r)
	target := strings.TrimSpace(r.PostForm.Get("target"))
	decision := r.PostForm.Get("confirm")

	req, err := deletion.ParseRequest(strings.Fields(target))
	if err != nil {
		s.renderList(w, r, http.StatusUnprocessableEntity, listPage{Error: err.Error(), Target: target}, listutil.PageParams{})
		return
	}

	s.deleteMu.Lock()
	defer s.deleteMu.Unlock()

	if decision == "" {
		if page, ok := s.preview(target, req); ok {
			s.render(w, r, "confirm", http.StatusOK, page)
			return
		}
	}

	notices := &flashNotifier{}
	res, err := orchestrators.ExecuteDeleteContact(ctx, orchestrators.DeleteContactInput{Request: req}, orchestrators.DeleteContactDeps{
		Book:        s.deps.Book,
		Confirmer:   formConfirmer{confirm: decision == "yes", choice: r.PostForm.Get("choice")},
		Notifier:    notices,
		DeletionLog: s.deps.DeletionLog,
	})

	data := listPage{Notices: notices.messages}
	status := http.StatusOK
	switch {
	case err == nil:
		data.Notices = append(data.Notices, res.Message)
		if s.deps.AfterDelete != nil {
			s.deps.AfterDelete(ctx, res)
		}
	case errors.Is(err, deletion.ErrDeletionCancelled):
		data.Notices = append(data.Notices, err.Error())
	case errors.Is(err, deletion.ErrNoMatchesFound):
		// already reported through the notifier
		status = http.StatusUnprocessableEntity
	case errors.Is(err, deletion.ErrInvalidIndex):
		data.Error = err.Error()
		data.Target = target
		status = http.StatusUnprocessableEntity
	default:
		s.internalError(w, err)
		return
	}
	s.renderList(w, r, status, data, listutil.PageParams{})
}

// preview decides whether req needs a confirmation page.
func (s *Server) preview(target string, req deletion.Request) (confirmPage, bool) {
	page := confirmPage{Title: "Confirm deletion", Target: target}
	switch o := deletion.Resolve(req, s.deps.Book.FilteredView()).(type) {
	case deletion.ByIndex:
		page.Single = true
		page.Candidates = []projections.ContactRow{projections.NewContactRow(req.(deletion.ByPosition).Index, o.Contact)}
	case deletion.SingleMatch:
		page.Single = true
		page.Candidates = s.rowsFor([]contact.Contact{o.Contact})
	case deletion.MultipleMatches:
		page.Candidates = s.rowsFor(o.Candidates)
	default:
		return confirmPage{}, false
	}
	return page, true
}

// rowsFor numbers candidates by their position in the filtered view.
func (s *Server) rowsFor(candidates []contact.Contact) []projections.ContactRow {
	view := s.deps.Book.FilteredView()
	rows := make([]projections.ContactRow, 0, len(candidates))
	for _, c := range candidates {
		for i, v := range view {
			if v.ID == c.ID {
				rows = append(rows, projections.NewContactRow(i+1, c))
				break
			}
		}
	}
	return rows
}

type deletionsPage struct {
	Title   string
	Entries []deletion.Entry
}

func (s *Server) handleDeletions(w http.ResponseWriter, r *http.Request) {
	data := deletionsPage{Title: "Deleted contacts"}
	if s.deps.DeletionLog != nil {
		entries, err := s.deps.DeletionLog.ListRecent(r.Context(), recentDeletions)
		if err != nil {
			s.internalError(w, err)
			return
		}
		data.Entries = entries
	}
	s.render(w, r, "deletions", http.StatusOK, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok %d contacts\n", s.deps.Book.Size())
}

// formConfirmer answers the confirmation surface from a posted form.
// It only agrees to delete the exact contact the user saw on the confirmation page,
// so a view that changed in between declines instead of deleting someone else.
type formConfirmer struct {
	confirm bool
	choice  string // contact ID
}

func (f formConfirmer) ConfirmSingle(_ context.Context, c contact.Contact) (bool, error) {
	return f.confirm && f.choice == c.ID, nil
}

func (f formConfirmer) Choose(_ context.Context, candidates []contact.Contact) (contact.Contact, bool, error) {
	if !f.confirm {
		return contact.Contact{}, false, nil
	}
	for _, c := range candidates {
		if c.ID == f.choice {
			return c, true, nil
		}
	}
	return contact.Contact{}, false, nil
}

// flashNotifier collects notifications for the next rendered page.
type flashNotifier struct {
	messages []string
}

func (f *flashNotifier) Notify(_ context.Context, message string) {
	f.messages = append(f.messages, message)
}
