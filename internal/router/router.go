package router

import (
	"noteify/internal/handlers"
	"noteify/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Note  *handlers.NoteHandler
	Forum *handlers.ForumHandler
	Admin *handlers.AdminHandler
}

// RegisterRoutes mounts the JSON API under /api and the server-rendered
// pages. Session and LoadUser middleware must already be installed on r.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.HandleMethodNotAllowed = true
	r.NoRoute(handlers.NotFound)
	r.NoMethod(handlers.MethodNotAllowed)

	RegisterAPI(r.Group("/api"), h)
	registerPages(r, h)
}

// RegisterAPI mounts the JSON endpoints on api.
func RegisterAPI(api *gin.RouterGroup, h Handlers) {
	// Public
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/logout", h.Auth.Logout)
	api.GET("/me", h.Auth.Me)

	api.GET("/notes", h.Note.List)
	api.GET("/notes/:id", h.Note.Get)
	api.GET("/notes/:id/download", h.Note.Download)

	api.GET("/forum/posts", h.Forum.ListPosts)
	api.GET("/forum/posts/:id", h.Forum.GetPost)
	api.GET("/forum/posts/:id/comments", h.Forum.ListComments)

	// Logged-in users
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/profile", h.User.GetProfile)
		authorized.PUT("/profile", h.User.UpdateProfile)
		authorized.POST("/avatar", h.User.UploadAvatar)

		authorized.POST("/notes", h.Note.Create)

		authorized.POST("/forum/posts", h.Forum.CreatePost)
		authorized.POST("/forum/posts/:id/comments", h.Forum.AddComment)
	}

	// Admins only
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.PATCH("/notes/:id", h.Admin.ModerateNote)
		admin.DELETE("/notes/:id", h.Admin.DeleteNote)

		admin.GET("/users", h.Admin.ListUsers)
		admin.PATCH("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)

		admin.GET("/forum", h.Admin.ListForum)
		admin.DELETE("/forum/posts/:id", h.Admin.DeletePost)
		admin.DELETE("/forum/comments/:id", h.Admin.DeleteComment)
	}
}

func registerPages(r *gin.Engine, h Handlers) {
	r.GET("/", h.Note.Index)
	r.GET("/notes/:id", h.Note.Show)
	r.GET("/forum", h.Forum.Index)
	r.GET("/forum/:id", h.Forum.Show)
	r.GET("/rooms", handlers.Rooms)
	r.GET("/uploads/avatars/:name", h.User.Avatar)
	r.GET("/login", h.Auth.ShowLogin)
	r.GET("/register", h.Auth.ShowRegister)

	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/profile", h.User.ShowProfile)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", h.Admin.Dashboard)
	}
}
