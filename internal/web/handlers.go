package web

import (
	"net/http"
	"strconv"

	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/ops"
)

// sessionEventLimit caps the journal events shown on a session page.
const sessionEventLimit = 25

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	rt       *ops.Runtime
	renderer *Renderer
}

// HandleKnowledgeIndex handles GET /knowledge: every knowledge file with its description.
func (h *Handlers) HandleKnowledgeIndex(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListKnowledge(r.Context(), h.rt)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "knowledge", KnowledgePageData{
		PageData: h.renderer.page("Knowledge", "knowledge"),
		Entries:  result.Files,
	})
}

// HandleKnowledgeSearch handles GET /knowledge/search: pattern or literal search.
func (h *Handlers) HandleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	mode := r.URL.Query().Get("mode")

	data := SearchPageData{
		PageData: h.renderer.page("Search", "search"),
		Query:    query,
		Mode:     mode,
		HasQuery: query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, "search", data)
		return
	}

	result, err := ops.LookupKnowledge(r.Context(), h.rt, ops.LookupKnowledgeInput{Query: query, Mode: mode})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data.Mode = result.Mode
	data.Results = result.Results
	data.Searched = len(result.FilesSearched)
	h.renderer.renderPage(w, "search", data)
}

// HandleKnowledgeDoc handles GET /knowledge/doc/{key...}: one file rendered as HTML.
func (h *Handlers) HandleKnowledgeDoc(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		h.renderer.renderError(w, r, errors.NewInvalidInput("file_key is required"))
		return
	}

	doc, err := ops.LoadKnowledge(r.Context(), h.rt, key)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, doc)
		return
	}

	outline, err := ops.KnowledgeOutline(r.Context(), h.rt, key)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "doc", DocPageData{
		PageData:     h.renderer.page(key, "knowledge"),
		Key:          key,
		Headings:     outline.Headings,
		RenderedHTML: renderMarkdown(doc.Content),
		Chars:        len([]rune(doc.Content)),
	})
}

// HandleSessions handles GET /sessions: every session on disk.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListSessions(r.Context(), h.rt)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "sessions", SessionsPageData{
		PageData: h.renderer.page("Sessions", "sessions"),
		Sessions: result.Sessions,
	})
}

// HandleSession handles GET /sessions/{name}: metadata, roster, log and recent journal events.
func (h *Handlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	details, err := ops.GetSession(r.Context(), h.rt, name)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := SessionPageData{
		PageData:    h.renderer.page(name, "sessions"),
		Name:        name,
		Metadata:    details.Metadata,
		RenderedLog: renderMarkdown(details.Log),
		HasJournal:  h.rt.Journal != nil,
	}

	if data.HasJournal {
		history, err := ops.SessionHistory(r.Context(), h.rt, ops.SessionHistoryInput{
			Session: name,
			Limit:   parseIntParam(r, "limit", sessionEventLimit),
			Offset:  parseIntParam(r, "offset", 0),
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Events = history.Events
		data.MoreEvents = history.Pagination.HasMore
		data.TotalEvents = history.Pagination.Total
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"session": details,
			"events":  data.Events,
		})
		return
	}

	h.renderer.renderPage(w, "session", data)
}

// HandleCharacter handles GET /sessions/{name}/characters/{character}: sheet plus readiness.
func (h *Handlers) HandleCharacter(w http.ResponseWriter, r *http.Request) {
	input := ops.GetCharacterInput{
		Session: r.PathValue("name"),
		Name:    r.PathValue("character"),
	}

	sheet, err := ops.GetCharacter(r.Context(), h.rt, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	readiness, err := ops.ValidateCharacter(r.Context(), h.rt, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{
			"character": sheet,
			"readiness": readiness,
		})
		return
	}

	h.renderer.renderPage(w, "character", CharacterPageData{
		PageData:  h.renderer.page(sheet.Character.BasicInfo.Name, "sessions"),
		Session:   input.Session,
		Character: sheet.Character,
		Readiness: readiness.Readiness,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
