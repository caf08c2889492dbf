package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	maxLimit = 100
	// maxPage 保证 (page-1)*limit 不会溢出
	maxPage = 100000
)

// Pagination 分页参数
type Pagination struct {
	Page  int
	Limit int
}

// Offset 对应 SQL 的 OFFSET
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pages 总页数，向上取整
func (p Pagination) Pages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// ParsePagination 读取 page/limit 查询参数，非法值回退到默认值
func ParsePagination(c *gin.Context, defaultLimit int) Pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Meta 列表响应中的分页字段
func (p Pagination) Meta(count, total int) gin.H {
	return gin.H{
		"count": count,
		"total": total,
		"page":  p.Page,
		"pages": p.Pages(total),
	}
}
