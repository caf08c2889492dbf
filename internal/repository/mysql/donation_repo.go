package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

const donationColumns = `id, donation_id, donor_id, type, food_item, quantity, best_before,
	amount, payment_method, purpose, supply_items, location, notes, recipient,
	status, delivered_at, cancelled_at, cancel_reason, created_at, updated_at`

func (r *DonationRepository) Create(ctx context.Context, d *model.Donation) error {
	util.Logger.Info("开始创建捐赠记录",
		zap.String("donation_id", d.DonationID),
		zap.Int64("donor_id", d.DonorID),
		zap.String("type", string(d.Type)))

	supplyItems, err := jsonColumn(d.SupplyItems, len(d.SupplyItems) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode supply items: %w", err)
	}
	location, err := jsonColumn(d.Location, d.Location == nil)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	recipient, err := jsonColumn(d.Recipient, d.Recipient == nil)
	if err != nil {
		return fmt.Errorf("failed to encode recipient: %w", err)
	}

	q := conn(ctx, r.db)
	result, err := q.ExecContext(ctx, `
		INSERT INTO donations (donation_id, donor_id, type, food_item, quantity, best_before,
			amount, payment_method, purpose, supply_items, location, notes, recipient,
			status, delivered_at, cancelled_at, cancel_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DonationID, d.DonorID, d.Type, d.FoodItem, d.Quantity, d.BestBefore,
		d.Amount, d.PaymentMethod, d.Purpose, supplyItems, location, d.Notes, recipient,
		d.Status, nullTime(d.DeliveredAt), nullTime(d.CancelledAt), d.CancelReason, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建捐赠记录失败", zap.Error(err))
		return fmt.Errorf("failed to create donation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get donation ID: %w", err)
	}
	d.ID = id

	for _, entry := range d.Timeline.Entries() {
		if err := r.insertTimeline(ctx, q, id, entry); err != nil {
			return err
		}
	}

	util.Logger.Info("捐赠记录创建成功", zap.Int64("id", d.ID), zap.String("donation_id", d.DonationID))
	return nil
}

func (r *DonationRepository) AppendTimeline(ctx context.Context, donationID int64, entry model.TimelineEntry) error {
	return r.insertTimeline(ctx, conn(ctx, r.db), donationID, entry)
}

func (r *DonationRepository) insertTimeline(ctx context.Context, q querier, donationID int64, entry model.TimelineEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO donation_timeline (donation_id, status, title, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		donationID, entry.Status, entry.Title, entry.Description, entry.Timestamp)
	if err != nil {
		util.Logger.Error("写入时间线失败", zap.Int64("donation_id", donationID), zap.Error(err))
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}
	return nil
}

func (r *DonationRepository) FindByID(ctx context.Context, id int64) (*model.Donation, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *DonationRepository) FindByDonationID(ctx context.Context, donationID string) (*model.Donation, error) {
	return r.findOne(ctx, "donation_id = ?", donationID)
}

func (r *DonationRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error) {
	return r.findOne(ctx, "id = ? FOR UPDATE", id)
}

func (r *DonationRepository) findOne(ctx context.Context, cond string, arg interface{}) (*model.Donation, error) {
	q := conn(ctx, r.db)
	row := q.QueryRowContext(ctx, "SELECT "+donationColumns+" FROM donations WHERE "+cond, arg)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询捐赠失败", zap.Error(err))
		return nil, fmt.Errorf("failed to query donation: %w", err)
	}
	if err := r.loadTimelines(ctx, q, []*model.Donation{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DonationRepository) Update(ctx context.Context, d *model.Donation) error {
	recipient, err := jsonColumn(d.Recipient, d.Recipient == nil)
	if err != nil {
		return fmt.Errorf("failed to encode recipient: %w", err)
	}
	_, err = conn(ctx, r.db).ExecContext(ctx, `
		UPDATE donations
		SET status = ?, recipient = ?, delivered_at = ?, cancelled_at = ?, cancel_reason = ?, updated_at = ?
		WHERE id = ?`,
		d.Status, recipient, nullTime(d.DeliveredAt), nullTime(d.CancelledAt), d.CancelReason, d.UpdatedAt, d.ID)
	if err != nil {
		util.Logger.Error("更新捐赠失败", zap.Int64("id", d.ID), zap.Error(err))
		return fmt.Errorf("failed to update donation: %w", err)
	}
	return nil
}

func (r *DonationRepository) List(ctx context.Context, filter interfaces.DonationFilter, limit, offset int) ([]*model.Donation, error) {
	where, args := donationWhere(filter)
	args = append(args, limit, offset)

	q := conn(ctx, r.db)
	rows, err := q.QueryContext(ctx,
		"SELECT "+donationColumns+" FROM donations"+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		util.Logger.Error("查询捐赠列表失败", zap.Error(err))
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var donations []*model.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadTimelines(ctx, q, donations); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepository) Count(ctx context.Context, filter interfaces.DonationFilter) (int, error) {
	where, args := donationWhere(filter)
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM donations"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count donations: %w", err)
	}
	return count, nil
}

func (r *DonationRepository) SumMonetary(ctx context.Context, statuses []model.DonationStatus) (float64, error) {
	args := []interface{}{model.DonationTypeMonetary}
	for _, s := range statuses {
		args = append(args, s)
	}
	var total sql.NullFloat64
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT SUM(amount) FROM donations WHERE type = ? AND status IN ("+placeholders(len(statuses))+")",
		args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum donations: %w", err)
	}
	return total.Float64, nil
}

func (r *DonationRepository) CountByType(ctx context.Context) ([]model.GroupCount, error) {
	return r.groupCount(ctx, "type")
}

func (r *DonationRepository) CountByStatus(ctx context.Context) ([]model.GroupCount, error) {
	return r.groupCount(ctx, "status")
}

// groupCount column 只来自上面两个固定值
func (r *DonationRepository) groupCount(ctx context.Context, column string) ([]model.GroupCount, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM donations GROUP BY "+column+" ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to group donations by %s: %w", column, err)
	}
	defer rows.Close()

	groups := []model.GroupCount{}
	for rows.Next() {
		var g model.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *DonationRepository) CountByMonth(ctx context.Context, limit int) ([]model.MonthlyCount, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT YEAR(created_at) AS y, MONTH(created_at) AS m, COUNT(*)
		FROM donations
		GROUP BY y, m
		ORDER BY y DESC, m DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to group donations by month: %w", err)
	}
	defer rows.Close()

	months := []model.MonthlyCount{}
	for rows.Next() {
		var m model.MonthlyCount
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

func donationWhere(f interfaces.DonationFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.DonorID != 0 {
		conds = append(conds, "donor_id = ?")
		args = append(args, f.DonorID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Search != "" {
		conds = append(conds, "(donation_id LIKE ? OR food_item LIKE ?)")
		args = append(args, likePattern(f.Search), likePattern(f.Search))
	}
	if f.CreatedFrom != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedBefore != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, *f.CreatedBefore)
	}
	return whereClause(conds), args
}

// loadTimelines 一次查询填充多条捐赠的时间线
func (r *DonationRepository) loadTimelines(ctx context.Context, q querier, donations []*model.Donation) error {
	if len(donations) == 0 {
		return nil
	}
	byID := make(map[int64][]model.TimelineEntry, len(donations))
	args := make([]interface{}, 0, len(donations))
	for _, d := range donations {
		args = append(args, d.ID)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT donation_id, status, title, description, created_at FROM donation_timeline WHERE donation_id IN ("+
			placeholders(len(args))+") ORDER BY id ASC", args...)
	if err != nil {
		util.Logger.Error("查询时间线失败", zap.Error(err))
		return fmt.Errorf("failed to load timelines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var donationID int64
		var entry model.TimelineEntry
		if err := rows.Scan(&donationID, &entry.Status, &entry.Title, &entry.Description, &entry.Timestamp); err != nil {
			return fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		byID[donationID] = append(byID[donationID], entry)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, d := range donations {
		d.Timeline = model.RestoreTimeline(byID[d.ID])
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonation(row rowScanner) (*model.Donation, error) {
	var d model.Donation
	var supplyItems, location, recipient []byte
	var deliveredAt, cancelledAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.DonationID, &d.DonorID, &d.Type, &d.FoodItem, &d.Quantity, &d.BestBefore,
		&d.Amount, &d.PaymentMethod, &d.Purpose, &supplyItems, &location, &d.Notes, &recipient,
		&d.Status, &deliveredAt, &cancelledAt, &d.CancelReason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSON(supplyItems, &d.SupplyItems); err != nil {
		return nil, fmt.Errorf("failed to decode supply items: %w", err)
	}
	if len(location) > 0 {
		d.Location = &model.Location{}
		if err := scanJSON(location, d.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
	}
	if len(recipient) > 0 {
		d.Recipient = &model.Recipient{}
		if err := scanJSON(recipient, d.Recipient); err != nil {
			return nil, fmt.Errorf("failed to decode recipient: %w", err)
		}
	}
	d.DeliveredAt = timePtr(deliveredAt)
	d.CancelledAt = timePtr(cancelledAt)
	return &d, nil
}
