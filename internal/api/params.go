// Package api 存放各业务 HTTP 处理器共用的参数解析
package api

import (
	"donation-backend/internal/errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseID 解析路径中的数字 ID，失败时直接写入 400 响应
func ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid "+name, err))
		return 0, false
	}
	return id, true
}
