package handlers

import (
	"mime"
	"net/http"
	"path"

	"noteify/internal/middleware"
	"noteify/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users *services.UserService
	notes *services.NoteService
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, notes *services.NoteService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, notes: notes, log: log}
}

// GetProfile - GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile - PUT /api/profile, JSON body with any of fullname, course, year, bio
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UploadAvatar - POST /api/avatar, multipart field profile_pic
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh := optionalFile(c, "profile_pic")
	if fh == nil {
		fh = optionalFile(c, "avatar")
	}
	relPath, err := h.users.ReplaceAvatar(c.Request.Context(), middleware.CurrentUser(c), fh)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile_pic": relPath})
}

// Avatar - GET /uploads/avatars/:name, served from whichever storage backend is configured
func (h *UserHandler) Avatar(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.users.OpenAvatar(c.Request.Context(), name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

// ShowProfile - /profile page with the user's own uploads
func (h *UserHandler) ShowProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	profile, err := h.users.Profile(c.Request.Context(), user.ID)
	if err != nil {
		RenderError(c, statusFor(err), "Profile unavailable")
		return
	}
	notes, err := h.notes.List(c.Request.Context(), user, services.NoteFilter{})
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Could not load your notes")
		return
	}
	mine := notes[:0]
	for _, n := range notes {
		if n.UploadedBy != nil && *n.UploadedBy == user.ID {
			mine = append(mine, n)
		}
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":   "My profile",
		"Profile": profile,
		"Notes":   mine,
	})
}
