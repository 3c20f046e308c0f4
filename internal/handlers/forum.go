package handlers

import (
	"net/http"

	"noteify/internal/middleware"
	"noteify/internal/services"
	"noteify/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// forumCategories are the tabs offered on the forum page; any slug is accepted on write.
var forumCategories = []string{"all", services.DefaultCategory, "questions", "exam-prep", "resources"}

type ForumHandler struct {
	forum *services.ForumService
	log   *zap.Logger
}

func NewForumHandler(forum *services.ForumService, log *zap.Logger) *ForumHandler {
	return &ForumHandler{forum: forum, log: log}
}

// ListPosts - GET /api/forum/posts?category=
func (h *ForumHandler) ListPosts(c *gin.Context) {
	posts, err := h.forum.ListPosts(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost - POST /api/forum/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var in services.PostInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	post, err := h.forum.CreatePost(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost - GET /api/forum/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	post, err := h.forum.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListComments - GET /api/forum/posts/:id/comments
func (h *ForumHandler) ListComments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	comments, err := h.forum.ListComments(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type commentRequest struct {
	Text string `json:"text" form:"text"`
}

// AddComment - POST /api/forum/posts/:id/comments
func (h *ForumHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	comment, err := h.forum.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Index - /forum page
func (h *ForumHandler) Index(c *gin.Context) {
	category := c.DefaultQuery("category", "all")
	posts, err := h.forum.ListPosts(c.Request.Context(), category)
	if err != nil {
		h.log.Error("list posts", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the forum")
		return
	}
	Render(c, http.StatusOK, "forum/index.html", gin.H{
		"Title":      "Forum",
		"Posts":      posts,
		"Category":   category,
		"Categories": forumCategories,
	})
}

// Show - /forum/:id page with the post body rendered from markdown
func (h *ForumHandler) Show(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	post, err := h.forum.GetPost(c.Request.Context(), id)
	if err != nil {
		RenderError(c, statusFor(err), "Post not found")
		return
	}
	Render(c, http.StatusOK, "forum/show.html", gin.H{
		"Title":       post.Title,
		"Post":        post,
		"Body":        utils.RenderMarkdown(post.Content),
		"Description": utils.Excerpt(post.Content, 160),
	})
}
