package middleware

import (
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminMiddleware 确保只有管理员可以访问某些路由，必须放在 AuthMiddleware 之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			util.Logger.Warn("用户ID不存在")
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "Not authorized, no token"))
			c.Abort()
			return
		}

		if c.GetString(ContextUserRole) != model.RoleAdmin {
			util.Logger.Warn("非管理员访问",
				zap.Any("user_id", userID),
				zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "Not authorized as an admin"))
			c.Abort()
			return
		}
		c.Next()
	}
}
