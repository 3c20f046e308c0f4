package handlers

import (
	"net/http"

	"noteify/internal/middleware"
	"noteify/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves moderation endpoints. Routes are mounted behind
// middleware.AdminRequired, so every call has already been role-checked.
type AdminHandler struct {
	notes *services.NoteService
	users *services.UserService
	forum *services.ForumService
	log   *zap.Logger
}

func NewAdminHandler(notes *services.NoteService, users *services.UserService, forum *services.ForumService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{notes: notes, users: users, forum: forum, log: log}
}

type actionRequest struct {
	Action string `json:"action" form:"action"`
}

func bindAction(c *gin.Context) (string, bool) {
	var req actionRequest
	if err := c.ShouldBind(&req); err != nil || req.Action == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return "", false
	}
	return req.Action, true
}

// ModerateNote - PATCH /api/admin/notes/:id {"action":"approve"|"reject"}
func (h *AdminHandler) ModerateNote(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	action, ok := bindAction(c)
	if !ok {
		return
	}
	note, err := h.notes.Moderate(c.Request.Context(), id, action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "note": note})
}

// DeleteNote - DELETE /api/admin/notes/:id
func (h *AdminHandler) DeleteNote(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListUsers - GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUser - PATCH /api/admin/users/:id {"action":"activate"|"deactivate"}
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	action, ok := bindAction(c)
	if !ok {
		return
	}
	user, err := h.users.SetStatus(c.Request.Context(), middleware.CurrentUser(c), id, action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// DeleteUser - DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListForum - GET /api/admin/forum?type=posts|comments
func (h *AdminHandler) ListForum(c *gin.Context) {
	switch c.DefaultQuery("type", "posts") {
	case "posts":
		posts, err := h.forum.ListPosts(c.Request.Context(), "")
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, posts)
	case "comments":
		comments, err := h.forum.ListAllComments(c.Request.Context())
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, comments)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be posts or comments"})
	}
}

// DeletePost - DELETE /api/admin/forum/posts/:id
func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.forum.DeletePost(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteComment - DELETE /api/admin/forum/comments/:id
func (h *AdminHandler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.forum.DeleteComment(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Dashboard - /admin page; data is fetched from the admin API by the page script.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	pending, err := h.notes.List(ctx, middleware.CurrentUser(c), services.NoteFilter{Status: "pending"})
	if err != nil {
		h.log.Error("list pending notes", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the dashboard")
		return
	}
	users, err := h.users.List(ctx)
	if err != nil {
		h.log.Error("list users", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the dashboard")
		return
	}
	Render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title":   "Admin",
		"Pending": pending,
		"Users":   users,
	})
}
