package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bridgesync/bridgesync/internal/auth"
	"github.com/bridgesync/bridgesync/internal/model"
)

// CORS allows the browser front end to call the API from another origin.
func CORS() gin.HandlerFunc {
	config := cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}
	return cors.New(config)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// MaxBodySize caps request bodies, uploads included.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RequireAuth resolves the bearer token into a principal and stores it in the
// request context. Requests without a valid token get 401 and stop here.
func (a *API) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		principal, err := a.auth.PrincipalFromToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireRole loads the caller's profile and rejects roles outside the allow
// list. An incomplete profile counts as no role.
func (a *API) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := a.callerRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// callerRole resolves the request principal's role, RoleUnknown when the
// profile is missing or the principal is unresolved.
func (a *API) callerRole(c *gin.Context) model.Role {
	principal, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		return model.RoleUnknown
	}
	profile, err := a.profiles.Get(c.Request.Context(), principal.ID)
	if err != nil {
		return model.RoleUnknown
	}
	return profile.Role
}
