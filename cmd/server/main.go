package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"noteify/internal/config"
	"noteify/internal/db"
	"noteify/internal/handlers"
	"noteify/internal/logger"
	"noteify/internal/middleware"
	"noteify/internal/models"
	"noteify/internal/router"
	"noteify/internal/services"
	"noteify/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	gdb := db.Init(cfg)

	var store services.Storage
	if cfg.UseSupabase() {
		store = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		zlog.Info("using supabase storage", zap.String("bucket", cfg.SupabaseBucket))
	} else {
		store = services.NewDiskStorage(cfg.UploadDir)
		zlog.Info("using disk storage", zap.String("dir", cfg.UploadDir))
	}
	uploader := services.NewUploader(store)

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	noteService := services.NewNoteService(gdb, uploader, cfg.NotesAutoApprove, zlog)
	userService := services.NewUserService(gdb, uploader, zlog)
	forumService := services.NewForumService(gdb, cfg.ForumAuthorMode, zlog)

	r := gin.New()
	r.Use(logger.Middleware(zlog), gin.Recovery())
	// multipart bodies beyond this spill to temp files; the upload policies enforce the real limits
	r.MaxMultipartMemory = 16 << 20

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("noteify_session", sessionStore))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates(cfg.TemplatesDir)

	// Static Assets
	r.Static("/static", cfg.StaticDir)
	r.StaticFile("/"+models.DefaultProfilePic, filepath.Join(cfg.StaticDir, "img", "default.png"))

	// Middleware
	r.Use(middleware.LoadUser(gdb, tokens))

	router.RegisterRoutes(r, router.Handlers{
		Auth:  handlers.NewAuthHandler(userService, tokens, zlog),
		User:  handlers.NewUserHandler(userService, noteService, zlog),
		Note:  handlers.NewNoteHandler(noteService, zlog),
		Forum: handlers.NewForumHandler(forumService, zlog),
		Admin: handlers.NewAdminHandler(noteService, userService, forumService, zlog),
	})

	log.Printf("Noteify server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, templatesDir+"/views/"+view)
		return files
	}

	funcMap := template.FuncMap{
		"timeAgo": timeAgo,
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"excerpt": utils.Excerpt,
		"fileURL": func(relPath string) string {
			return "/" + strings.TrimPrefix(relPath, "/")
		},
	}

	// Manual registration to ensure keys match handler expectation
	for _, view := range []string{
		"auth/login.html",
		"auth/register.html",
		"notes/index.html",
		"notes/show.html",
		"forum/index.html",
		"forum/show.html",
		"rooms/index.html",
		"user/profile.html",
		"admin/dashboard.html",
		"error.html",
	} {
		r.AddFromFilesFuncs(view, funcMap, assemble(view)...)
	}

	return r
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
