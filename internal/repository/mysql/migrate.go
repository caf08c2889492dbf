package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/util"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Migrate 按语句执行建表脚本，所有语句都是 IF NOT EXISTS，可以重复执行
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	util.Logger.Info("数据库表结构检查完成")
	return nil
}
