package main

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"noteify/internal/handlers"
	"noteify/internal/models"
	"noteify/internal/services"
	"noteify/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotesPageKeepsFilteredOutNotes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	for _, n := range []models.Note{
		{Title: "Recursion", Course: "CS101", Type: models.NoteTypeNotes, FilePath: "uploads/notes/a.pdf", Status: models.NoteStatusApproved},
		{Title: "Matrices", Course: "MA201", Type: models.NoteTypeNotes, FilePath: "uploads/notes/b.pdf", Status: models.NoteStatusApproved},
	} {
		n := n
		require.NoError(t, gdb.Create(&n).Error)
	}

	notes := services.NewNoteService(gdb, services.NewUploader(services.NewDiskStorage(t.TempDir())), false, zap.NewNop())
	r := gin.New()
	r.HTMLRender = loadTemplates("../../web/templates")
	r.GET("/", handlers.NewNoteHandler(notes, zap.NewNop()).Index)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?course=CS101", nil))
	require.Equal(t, http.StatusOK, w.Code)

	card := func(course string) string {
		m := regexp.MustCompile(`<li class="note"[^>]*data-course="` + course + `"[^>]*>`).FindString(w.Body.String())
		require.NotEmpty(t, m, "card for %s", course)
		return m
	}
	assert.NotContains(t, card("CS101"), "hidden")
	assert.Contains(t, card("MA201"), "hidden")
	assert.Regexp(t, `<p id="note-empty" class="empty" hidden>`, w.Body.String())
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 minute ago", plural(1, "minute"))
	assert.Equal(t, "3 days ago", plural(3, "day"))
}
