package middleware

import (
	"errors"
	"net/http"
	"strings"

	"noteify/internal/models"
	"noteify/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"

// Session keys written at login.
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
	SessionRole     = "role"
)

// CurrentUser returns the user LoadUser attached to the request, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(CheckUserKey); ok {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// LoadUser resolves the caller from the cookie session or, failing that, an
// "Authorization: Bearer" token. Deactivated accounts are treated as
// anonymous and their session is cleared. A failed lookup leaves the
// session alone.
func LoadUser(gdb *gorm.DB, tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		var userID interface{}
		fromSession := false
		if id := session.Get(SessionUserID); id != nil {
			userID = id
			fromSession = true
		} else if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") && tokens != nil {
			if claims, err := tokens.Parse(strings.TrimPrefix(auth, "Bearer ")); err == nil {
				userID = claims.UserID
			}
		}

		if userID != nil {
			var user models.User
			err := gdb.WithContext(c.Request.Context()).First(&user, userID).Error
			switch {
			case err == nil && user.IsActive():
				c.Set(CheckUserKey, &user)
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				// lookup failed; serve this request anonymously but keep the session
				c.Error(err)
			case fromSession:
				session.Clear()
				session.Save()
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in. API calls get 401, pages are
// redirected to the login form.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			if isAPI(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			if isAPI(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
				return
			}
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
