package handlers

import (
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"

	"noteify/internal/middleware"
	"noteify/internal/models"
	"noteify/internal/services"
	"noteify/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NoteHandler struct {
	notes *services.NoteService
	log   *zap.Logger
}

func NewNoteHandler(notes *services.NoteService, log *zap.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, log: log}
}

func filterFromQuery(c *gin.Context) services.NoteFilter {
	return services.NoteFilter{
		Course: strings.TrimSpace(c.Query("course")),
		Type:   strings.TrimSpace(c.Query("type")),
		Year:   utils.StringToIntDefault(c.Query("year"), 0),
		Status: strings.TrimSpace(c.Query("status")),
		Query:  c.Query("q"),
	}
}

// FilterNotes applies the browse filters in memory, the same way the notes
// page does in the browser. Course and type match exactly; the query is a
// case-insensitive substring of title, description or course.
func FilterNotes(notes []models.Note, f services.NoteFilter) []models.Note {
	term := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if f.Course != "" && n.Course != f.Course {
			continue
		}
		if f.Type != "" && string(n.Type) != f.Type {
			continue
		}
		if f.Year > 0 && n.Year != f.Year {
			continue
		}
		if f.Status != "" && string(n.Status) != f.Status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(n.Title), term) &&
			!strings.Contains(strings.ToLower(n.Description), term) &&
			!strings.Contains(strings.ToLower(n.Course), term) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MatchedIDs returns the ids of the notes FilterNotes keeps. The browse page
// renders every note and hides the rest so the browser can widen the filter.
func MatchedIDs(notes []models.Note, f services.NoteFilter) map[uint]bool {
	matched := make(map[uint]bool, len(notes))
	for _, n := range FilterNotes(notes, f) {
		matched[n.ID] = true
	}
	return matched
}

// List - GET /api/notes
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context(), middleware.CurrentUser(c), filterFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// Get - GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	note, err := h.notes.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.notes.RecordView(c.Request.Context(), id); err == nil {
		note.Views++
	}
	c.JSON(http.StatusOK, note)
}

// Download - GET /api/notes/:id/download
func (h *NoteHandler) Download(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	note, rc, err := h.notes.OpenFile(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer rc.Close()

	name := path.Base(note.FilePath)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}

// Create - POST /api/notes, multipart with file, title, description, course, type, year
func (h *NoteHandler) Create(c *gin.Context) {
	in := services.NoteInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Course:      c.PostForm("course"),
		Type:        c.PostForm("type"),
		Year:        c.PostForm("year"),
	}
	note, err := h.notes.Create(c.Request.Context(), middleware.CurrentUser(c), in, optionalFile(c, "file"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "note": note})
}

// Index - notes browser at /
func (h *NoteHandler) Index(c *gin.Context) {
	f := filterFromQuery(c)
	f.Status = ""

	all, err := h.notes.List(c.Request.Context(), middleware.CurrentUser(c), services.NoteFilter{})
	if err != nil {
		h.log.Error("list notes", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load notes")
		return
	}

	Render(c, http.StatusOK, "notes/index.html", gin.H{
		"Title":   "Browse notes",
		"Notes":   all,
		"Matched": MatchedIDs(all, f),
		"Courses": distinctCourses(all),
		"Types":   []models.NoteType{models.NoteTypeNotes, models.NoteTypePastPaper, models.NoteTypeTutorial, models.NoteTypeReference},
		"Filter":  f,
	})
}

// Show - /notes/:id
func (h *NoteHandler) Show(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Note not found")
		return
	}
	note, err := h.notes.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RenderError(c, statusFor(err), "Note not found")
		return
	}
	if err := h.notes.RecordView(c.Request.Context(), id); err == nil {
		note.Views++
	}
	Render(c, http.StatusOK, "notes/show.html", gin.H{"Title": note.Title, "Note": note})
}

func distinctCourses(notes []models.Note) []string {
	seen := map[string]bool{}
	var courses []string
	for _, n := range notes {
		if n.Course != "" && !seen[n.Course] {
			seen[n.Course] = true
			courses = append(courses, n.Course)
		}
	}
	sort.Strings(courses)
	return courses
}
