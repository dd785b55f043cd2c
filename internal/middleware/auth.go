package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/peakform/education-server-go/internal/utils/jwt"
	"github.com/peakform/education-server-go/pkg/response"
	"github.com/peakform/education-server-go/pkg/types"
)

// User represents the authenticated user loaded into the request context.
// The users table is owned by the platform's account service; this server
// only reads the columns the education module needs.
type User struct {
	ID                 uuid.UUID      `gorm:"column:id;primaryKey"`
	Email              string         `gorm:"column:email"`
	FullName           string         `gorm:"column:full_name"`
	Role               types.UserRole `gorm:"column:role"`
	Permissions        pq.StringArray `gorm:"type:text[];column:permissions"`
	EducationStartDate *time.Time     `gorm:"column:education_start_date"`
	Meta               types.JSON     `gorm:"type:jsonb;column:meta"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// MetaMap decodes the user's metadata blob. Malformed metadata yields an
// empty map rather than an error; callers treat missing keys as absent.
func (u *User) MetaMap() map[string]any {
	if len(u.Meta) == 0 {
		return nil
	}

	var meta map[string]any
	if err := json.Unmarshal(u.Meta, &meta); err != nil {
		return nil
	}
	return meta
}

// HasPermission reports whether the user holds the permission directly or
// through their role.
func (u *User) HasPermission(permission types.Permission) bool {
	if u == nil {
		return false
	}

	for _, direct := range u.Permissions {
		if types.Permission(direct) == permission {
			return true
		}
	}

	for _, granted := range types.RolePermissions[u.Role] {
		if granted == permission {
			return true
		}
	}

	return false
}

// AuthMiddleware holds dependencies for authentication middleware.
type AuthMiddleware struct {
	db        *gorm.DB
	jwtSecret string
	logger    *slog.Logger
}

// NewAuthMiddleware creates an auth middleware instance.
func NewAuthMiddleware(db *gorm.DB, jwtSecret string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		db:        db,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Authenticate validates the bearer token and loads the user into context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.ensureAuthenticated(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the authenticated user holds the
// given capability. Must run after Authenticate.
func (m *AuthMiddleware) RequirePermission(permission types.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		usr, ok := GetUserFromContext(c)
		if !ok {
			response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "User not authenticated", nil)
			c.Abort()
			return
		}

		if !usr.HasPermission(permission) {
			response.ErrorWithLog(m.logger, c, http.StatusForbidden, "You do not have permission to perform this action", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the Gin context.
func GetUserFromContext(c *gin.Context) (*User, bool) {
	userVal, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	if usr, ok := userVal.(*User); ok && usr != nil {
		return usr, true
	}

	if usr, ok := userVal.(User); ok {
		return &usr, true
	}

	return nil, false
}

// SetUserForTest injects a user into the context. Only for handler tests.
func SetUserForTest(c *gin.Context, usr *User) {
	c.Set("user", usr)
}

func (m *AuthMiddleware) ensureAuthenticated(c *gin.Context) (*User, bool) {
	if usr, ok := GetUserFromContext(c); ok {
		return usr, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Unable to resolve user from access token", nil)
		c.Abort()
		return nil, false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Unable to resolve user from access token", nil)
		c.Abort()
		return nil, false
	}

	claims, err := jwt.VerifyToken(token, m.jwtSecret)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Token expired", err)
		default:
			response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Invalid token", err)
		}
		c.Abort()
		return nil, false
	}

	if claims.UserID == uuid.Nil {
		response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Invalid token payload", nil)
		c.Abort()
		return nil, false
	}

	var usr User
	if err := m.db.WithContext(c.Request.Context()).
		First(&usr, "id = ?", claims.UserID).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.ErrorWithLog(m.logger, c, http.StatusUnauthorized, "Unable to resolve user from access token", err)
		default:
			response.ErrorWithLog(m.logger, c, http.StatusInternalServerError, "Internal Server Error", err)
		}
		c.Abort()
		return nil, false
	}

	usrCopy := usr
	c.Set("user", &usrCopy)
	c.Set("userId", usr.ID)
	return &usrCopy, true
}
