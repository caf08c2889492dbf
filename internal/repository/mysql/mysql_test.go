package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

var donationCols = []string{
	"id", "donation_id", "donor_id", "type", "food_item", "quantity", "best_before",
	"amount", "payment_method", "purpose", "supply_items", "location", "notes", "recipient",
	"status", "delivered_at", "cancelled_at", "cancel_reason", "created_at", "updated_at",
}

func TestWithinTxCommitsAndSharesTx(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	users := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE users")).WithArgs(int64(1), 500.0, int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(ctx context.Context) error {
		// 嵌套调用复用同一个事务
		return tm.WithinTx(ctx, func(ctx context.Context) error {
			return users.IncrementDonationStats(ctx, 7, 1, 500)
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithinTx(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceNextUsesInsertID(t *testing.T) {
	db, mock := newMock(t)
	seq := NewSequenceRepository(db)

	mock.ExpectExec(q("INSERT INTO id_sequences (name, value) VALUES (?, LAST_INSERT_ID(1))")).
		WithArgs("donation:2024").
		WillReturnResult(sqlmock.NewResult(42, 2))

	n, err := seq.Next(context.Background(), "donation:2024")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationCreateWritesTimeline(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	d := model.NewDonation("DON-2024-00001", 7, model.DonationTypeFood, fixedNow)
	d.FoodItem = "Rice"
	d.Quantity = "10kg"
	d.Location = &model.Location{City: "Pune"}

	mock.ExpectExec(q("INSERT INTO donations")).
		WithArgs("DON-2024-00001", int64(7), "food", "Rice", "10kg", "", 0.0, "", "",
			nil, []byte(`{"city":"Pune"}`), "", nil, "pending",
			nil, nil, "", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(q("INSERT INTO donation_timeline")).
		WithArgs(int64(11), "pending", "Donation Received", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, int64(11), d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationFindByDonationID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectQuery(q("FROM donations WHERE donation_id = ?")).
		WithArgs("DON-2024-00003").
		WillReturnRows(sqlmock.NewRows(donationCols).AddRow(
			3, "DON-2024-00003", 7, "supplies", "", "", "", "0.00", "", "general",
			[]byte(`[{"name":"Blankets","quantity":"20","condition":"new"}]`), nil, "", []byte(`{"name":"Hope Shelter","type":"shelter"}`),
			"delivered", fixedNow, nil, "", fixedNow, fixedNow))
	mock.ExpectQuery(q("FROM donation_timeline WHERE donation_id IN (?)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"donation_id", "status", "title", "description", "created_at"}).
			AddRow(3, "pending", "Donation Received", "", fixedNow).
			AddRow(3, "delivered", "Delivered", "Status updated to delivered", fixedNow))

	d, err := repo.FindByDonationID(context.Background(), "DON-2024-00003")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, model.DonationStatusDelivered, d.Status)
	require.Len(t, d.SupplyItems, 1)
	assert.Equal(t, model.ConditionNew, d.SupplyItems[0].Condition)
	assert.Equal(t, "Hope Shelter", d.Recipient.Name)
	assert.Nil(t, d.Location)
	require.NotNil(t, d.DeliveredAt)
	assert.Equal(t, 2, d.Timeline.Len())
	last, _ := d.Timeline.Last()
	assert.Equal(t, d.Status, last.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationFindMissingReturnsNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectQuery(q("FROM donations WHERE id = ?")).WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows(donationCols))

	d, err := repo.FindByID(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestDonationCountFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	from := fixedNow.AddDate(0, -1, 0)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM donations WHERE status IN (?, ?) AND created_at >= ? AND created_at < ?")).
		WithArgs("completed", "delivered", from, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.Count(context.Background(), interfaces.DonationFilter{
		Statuses:      []model.DonationStatus{model.DonationStatusCompleted, model.DonationStatusDelivered},
		CreatedFrom:   &from,
		CreatedBefore: &fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestDonationSumMonetaryHandlesNull(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)

	mock.ExpectQuery(q("SELECT SUM(amount) FROM donations WHERE type = ? AND status IN (?, ?)")).
		WithArgs("monetary", "completed", "paid").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

	total, err := repo.SumMonetary(context.Background(), []model.DonationStatus{"completed", "paid"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDonationUpdateAndAppend(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDonationRepository(db)
	d := model.NewDonation("DON-2024-00001", 7, model.DonationTypeFood, fixedNow)
	d.ID = 5
	entry, err := d.Cancel("", fixedNow)
	require.NoError(t, err)

	mock.ExpectExec(q("UPDATE donations")).
		WithArgs("cancelled", nil, nil, fixedNow, model.DefaultCancelReason, fixedNow, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO donation_timeline")).
		WithArgs(int64(5), "cancelled", "Donation Cancelled", model.DefaultCancelReason, fixedNow).
		WillReturnResult(sqlmock.NewResult(2, 1))

	require.NoError(t, repo.Update(context.Background(), d))
	require.NoError(t, repo.AppendTimeline(context.Background(), d.ID, entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFindByEmailMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(q("FROM users WHERE email = ?")).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	cols := []string{"id", "name", "email", "password_hash", "user_type", "role", "phone", "address", "status",
		"donations_count", "total_amount_donated", "created_at", "updated_at"}

	mock.ExpectQuery(q("FROM users WHERE status = ? AND (name LIKE ? OR email LIKE ?) ORDER BY")).
		WithArgs("active", "%asha%", "%asha%", 20, 0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Asha", "asha@example.com", "hash", "individual", "user", "",
			[]byte(`{"city":"Mumbai"}`), "active", 3, "1500.00", fixedNow, fixedNow))

	users, err := repo.List(context.Background(), interfaces.UserFilter{Status: model.UserStatusActive, Search: "asha"}, 20, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Mumbai", users[0].Address.City)
	assert.Equal(t, 1500.0, users[0].TotalAmountDonated)
}

func TestPaymentFindByOrderIDJoinsDonation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	cols := []string{"id", "payment_id", "user_id", "donation_id", "donation_ref", "order_id", "amount", "currency",
		"status", "payment_method", "donation_type", "description", "receipt_id", "simulated_details",
		"paid_at", "failed_at", "failure_reason", "created_at", "updated_at"}

	mock.ExpectQuery(q("LEFT JOIN donations d ON d.id = p.donation_id WHERE p.order_id = ?")).
		WithArgs("ORD-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "PAY-1", 7, 9, "DON-2024-00009", "ORD-1", "500.00", "INR",
			"paid", "upi", "meals", "", "RCPT-2024-ABCDEFGH", []byte(`{"upiId":"user@upi","transactionRef":"X"}`),
			fixedNow, nil, "", fixedNow, fixedNow))

	p, err := repo.FindByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, p.DonationID)
	assert.Equal(t, int64(9), *p.DonationID)
	assert.Equal(t, "DON-2024-00009", p.DonationRef)
	assert.Equal(t, "user@upi", p.SimulatedDetails.UPIID)
	assert.Nil(t, p.FailedAt)
}

func TestPaymentExpireCreatedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	cutoff := fixedNow.Add(-24 * time.Hour)

	mock.ExpectExec(q("WHERE status = ? AND created_at < ?")).
		WithArgs("failed", fixedNow, model.OrderExpiredReason, fixedNow, "created", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireCreatedBefore(context.Background(), cutoff, model.OrderExpiredReason, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestContactCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)
	c := &model.Contact{
		TicketID: "TKT-2024-00001", Name: "Ravi", Email: "ravi@example.com",
		Subject: model.SubjectTechnical, Message: "App crashes", Status: model.ContactStatusNew,
		Priority: model.PriorityHigh, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}

	mock.ExpectExec(q("INSERT INTO contacts")).
		WithArgs("TKT-2024-00001", "Ravi", "ravi@example.com", "technical", "App crashes", "new", "high",
			"", nil, nil, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(4, 1))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, int64(4), c.ID)
}

func TestContactUpdateLocksRowInTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewContactRepository(db)
	cols := []string{"id", "ticket_id", "name", "email", "subject", "message", "status", "priority",
		"response_message", "responded_at", "responded_by", "created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM contacts WHERE id = ? FOR UPDATE")).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, "TKT-2024-00001", "Ravi", "ravi@example.com", "technical",
			"App crashes", "new", "high", "", nil, nil, fixedNow, fixedNow))
	mock.ExpectExec(q("UPDATE contacts")).
		WithArgs("resolved", "Fixed", fixedNow, int64(9), fixedNow, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTxManager(db).WithinTx(context.Background(), func(ctx context.Context) error {
		c, err := repo.FindByIDForUpdate(ctx, 4)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Nil(t, c.RespondedAt)

		by := int64(9)
		c.Status = model.ContactStatusResolved
		c.ResponseMessage = "Fixed"
		c.RespondedAt = &fixedNow
		c.RespondedBy = &by
		return repo.Update(ctx, c)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactFindForUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM contacts WHERE id = ? FOR UPDATE")).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)

	c, err := NewContactRepository(db).FindByIDForUpdate(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Name: "A", Email: "a@example.com", CreatedAt: fixedNow, UpdatedAt: fixedNow})
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)
}

func TestPaymentFindForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE p.order_id = ? FOR UPDATE OF p")).WithArgs("ORD-9").WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := NewTxManager(db).WithinTx(context.Background(), func(ctx context.Context) error {
		p, err := repo.FindByOrderIDForUpdate(ctx, "ORD-9")
		assert.Nil(t, p)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
