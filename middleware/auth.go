package middleware

import (
	"errors"
	"strings"

	"github.com/Govind-619/GreenLedger/models"
	"github.com/Govind-619/GreenLedger/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the auth middlewares.
const (
	UserKey  = "user"
	AdminKey = "admin"
)

// AuthMiddleware requires a session user that exists and is not blocked.
// Membership and admin flags are always read from the database, never from
// the session.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := utils.SessionUser(sessions.Default(c))
		if !ok {
			utils.LogError("Missing session user on %s", c.Request.URL.Path)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		utils.LogDebug("Authenticating user ID: %d", userID)
		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.LogError("User not found: %d", userID)
				utils.Unauthorized(c, "User not found")
			} else {
				utils.LogError("Failed to load user %d: %v", userID, err)
				utils.InternalServerError(c, "Failed to load user", nil)
			}
			c.Abort()
			return
		}

		if user.IsBlocked {
			utils.LogError("Blocked user attempted access: %d", userID)
			utils.Forbidden(c, "Account is blocked")
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// AdminAuthMiddleware requires a bearer JWT whose admin_id claim names an
// admin user.
func AdminAuthMiddleware(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			utils.LogError("Missing or malformed Authorization header")
			utils.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		adminID, err := utils.ParseAdminToken(tokenString, jwtSecret)
		if err != nil {
			utils.LogError("Invalid admin token: %v", err)
			utils.Unauthorized(c, "Please login for access")
			c.Abort()
			return
		}

		var admin models.User
		if err := db.WithContext(c.Request.Context()).First(&admin, adminID).Error; err != nil {
			utils.LogError("Admin not found: %d: %v", adminID, err)
			utils.Unauthorized(c, "Admin not found")
			c.Abort()
			return
		}
		if !admin.IsAdmin || admin.IsBlocked {
			utils.LogError("Non-admin user attempted admin access: %d", admin.ID)
			utils.RespondError(c, utils.ForbiddenError("Admin access required", nil))
			c.Abort()
			return
		}

		c.Set(AdminKey, admin)
		utils.LogInfo("Admin %d authenticated successfully", admin.ID)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
