package middleware

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 请求上下文中的键
const (
	ContextUserID       = "user_id"
	ContextUserRole     = "user_role"
	ContextUser         = "user"
	ContextToken        = "token"
	ContextTokenExpires = "token_expires"
)

// requestTimeout 覆盖模拟支付的延迟
const requestTimeout = 15 * time.Second

func AuthMiddleware(userService service.UserServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Debug("进入认证中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "Not authorized, no token"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "Not authorized, no token"))
			c.Abort()
			return
		}
		token := parts[1]

		if userService.IsTokenBlacklisted(ctx, token) {
			errors.HandleError(c, errors.New(errors.ErrInvalidToken, "Token has been revoked"))
			c.Abort()
			return
		}

		userID, expiresAt, err := util.ValidateToken(token)
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "Not authorized, token failed", err))
			c.Abort()
			return
		}

		// 每次请求都重新读取用户，封禁立即生效
		user, err := userService.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, errors.ErrResourceNotFound) {
				err = errors.New(errors.ErrUnauthorized, "Not authorized, user not found")
			}
			errors.HandleError(c, err)
			c.Abort()
			return
		}
		if user.Status == model.UserStatusSuspended {
			errors.HandleError(c, errors.New(errors.ErrAccountSuspended, "Your account has been suspended"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUser, user)
		c.Set(ContextToken, token)
		c.Set(ContextTokenExpires, expiresAt)
		c.Next()
	}
}

// CurrentUser 认证中间件写入的用户
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// CurrentRequester 当前调用者，用于本人或管理员的权限判断
func CurrentRequester(c *gin.Context) service.Requester {
	return service.Requester{
		UserID:  c.GetInt64(ContextUserID),
		IsAdmin: c.GetString(ContextUserRole) == model.RoleAdmin,
	}
}
