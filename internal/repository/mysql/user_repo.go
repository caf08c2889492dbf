package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UserRepository 实现了 interfaces.UserRepository
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, user_type, role, phone, address, status,
	donations_count, total_amount_donated, created_at, updated_at`

// Create 创建一个新用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	util.Logger.Info("尝试创建新用户", zap.String("email", user.Email))

	address, err := jsonColumn(user.Address, user.Address == nil)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, user_type, role, phone, address, status,
			donations_count, total_amount_donated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, user.UserType, user.Role, user.Phone, address, user.Status,
		user.DonationsCount, user.TotalAmountDonated, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("email %s: %w", user.Email, interfaces.ErrDuplicate)
		}
		util.Logger.Error("创建用户失败", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	user.ID = id
	util.Logger.Info("用户创建成功", zap.Int64("user_id", user.ID))
	return nil
}

// FindByID 通过ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail 通过邮箱查找用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, cond string, arg interface{}) (*model.User, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, arg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查找用户失败", zap.Error(err))
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// UpdateProfile 更新姓名、电话和地址
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	address, err := jsonColumn(user.Address, user.Address == nil)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	user.UpdatedAt = time.Now()
	_, err = conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Phone, address, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status model.UserStatus) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		"UPDATE users SET status = ?, updated_at = ? WHERE id = ?", status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

// IncrementDonationStats 单条 UPDATE 完成累加，并发安全
func (r *UserRepository) IncrementDonationStats(ctx context.Context, id int64, count int64, amount float64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET donations_count = donations_count + ?, total_amount_donated = total_amount_donated + ?
		WHERE id = ?`, count, amount, id)
	if err != nil {
		util.Logger.Error("更新用户捐赠统计失败", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("failed to increment donation stats: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		util.Logger.Warn("更新捐赠统计时用户不存在", zap.Int64("user_id", id))
	}
	return nil
}

// List 返回分页的用户列表
func (r *UserRepository) List(ctx context.Context, filter interfaces.UserFilter, limit, offset int) ([]*model.User, error) {
	where, args := userWhere(filter)
	args = append(args, limit, offset)
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count 返回满足条件的用户总数
func (r *UserRepository) Count(ctx context.Context, filter interfaces.UserFilter) (int, error) {
	where, args := userWhere(filter)
	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// TopDonors 按捐赠次数、金额排序
func (r *UserRepository) TopDonors(ctx context.Context, limit int) ([]model.TopDonor, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, email, user_type, donations_count, total_amount_donated
		FROM users
		ORDER BY donations_count DESC, total_amount_donated DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top donors: %w", err)
	}
	defer rows.Close()

	donors := []model.TopDonor{}
	for rows.Next() {
		var d model.TopDonor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.UserType, &d.DonationsCount, &d.TotalAmountDonated); err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func userWhere(f interfaces.UserFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.UserType != "" {
		conds = append(conds, "user_type = ?")
		args = append(args, f.UserType)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		conds = append(conds, "(name LIKE ? OR email LIKE ?)")
		args = append(args, likePattern(f.Search), likePattern(f.Search))
	}
	return whereClause(conds), args
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var address []byte
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.UserType, &user.Role, &user.Phone,
		&address, &user.Status, &user.DonationsCount, &user.TotalAmountDonated, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		user.Address = &model.Address{}
		if err := scanJSON(address, user.Address); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
	}
	return &user, nil
}
