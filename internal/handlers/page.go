package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Rooms - /rooms; study rooms live entirely in the browser (rooms.js).
func Rooms(c *gin.Context) {
	Render(c, http.StatusOK, "rooms/index.html", gin.H{"Title": "Study rooms"})
}

// NotFound answers unknown routes with JSON under /api and the error page elsewhere.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	RenderError(c, http.StatusNotFound, "Page not found")
}

// MethodNotAllowed mirrors NotFound for known paths hit with the wrong verb.
func MethodNotAllowed(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}
	RenderError(c, http.StatusMethodNotAllowed, "Method not allowed")
}
