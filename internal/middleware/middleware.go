package middleware

import (
	"net/http"
	"strings"

	"exercise-service/internal/logging"

	"github.com/gin-gonic/gin"
)

const (
	ReadExercisePermission   = "read:exercise"
	WriteExercisePermission  = "write:exercise"
	DeleteExercisePermission = "delete:exercise"

	AdminPermission   = "admin"
	ManagerPermission = "manager"
)

const (
	UserIDHeader      = "X-User-ID"
	PermissionsHeader = "X-User-Permissions"

	userIDKey = "userID"
)

// RequireUser rejects requests the gateway did not attach a user to.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User ID is required",
				"code":  "MISSING_USER_ID",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// PermissionRequired lets the request through when the caller holds the
// permission, or any admin/manager permission.
func PermissionRequired(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasPermission(c.GetHeader(PermissionsHeader), required) {
			logging.Info("Permission %s denied for user %q on %s %s", required, c.GetHeader(UserIDHeader), c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

func HasPermission(header, required string) bool {
	if header == "" {
		return false
	}
	for _, perm := range strings.Split(header, ",") {
		perm = strings.TrimSpace(perm)
		if perm == required || strings.HasPrefix(perm, AdminPermission) || strings.HasPrefix(perm, ManagerPermission) {
			return true
		}
	}
	return false
}

// UserID returns the caller set by RequireUser. Routes without RequireUser
// always get "", whatever headers the request carries.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
