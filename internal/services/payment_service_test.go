package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-finance/internal/models"
	"club-finance/pkg/common"
)

func TestCreateMemberPaymentAndExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	athlete := env.profile(t, models.RoleAthlete)

	payment, err := env.Payments.CreateMemberPayment(ctx, CreatePaymentDTO{
		MemberID: athlete.ID, Amount: dec(120), Category: " uniform ", DueDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "uniform", payment.Category)
	assert.Len(t, env.notificationsFor(t, athlete.ID), 1)

	expense, err := env.Payments.CreateExpense(ctx, CreatePaymentDTO{Amount: dec(300), Category: "field rent"})
	require.NoError(t, err)
	assert.Nil(t, expense.MemberID)
	assert.Equal(t, models.PaymentStatusExpense, expense.Status)
	assert.True(t, StatusConsistent(env.reload(t, expense)))

	_, err = env.Payments.CreateMemberPayment(ctx, CreatePaymentDTO{MemberID: "missing", Amount: dec(1), Category: "x"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = env.Payments.CreateMemberPayment(ctx, CreatePaymentDTO{MemberID: athlete.ID, Amount: dec(0), Category: "x"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.Payments.CreateExpense(ctx, CreatePaymentDTO{Amount: dec(5)})
	assert.Equal(t, 400, StatusOf(err))
}

func TestListPaymentsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.profile(t, models.RoleAthlete)
	bob := env.profile(t, models.RoleAthlete)
	env.payment(t, alice.ID, 10)
	env.payment(t, alice.ID, 20)
	env.payment(t, bob.ID, 30)
	_, err := env.Payments.CreateExpense(ctx, CreatePaymentDTO{Amount: dec(300), Category: "field rent"})
	require.NoError(t, err)

	res, err := env.Payments.List(ctx, ListPaymentsDTO{MemberID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)

	res, err = env.Payments.List(ctx, ListPaymentsDTO{Status: models.PaymentStatusExpense})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)

	res, err = env.Payments.List(ctx, ListPaymentsDTO{Category: "monthly fee", Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Count)
	assert.Len(t, res.Data.([]models.Payment), 1)
	assert.Equal(t, 1, res.PrevPage)
}

func TestUpdatePaymentOnlyTouchesDescriptiveFields(t *testing.T) {
	env := newTestEnv(t)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 10)

	updated, err := env.Payments.Update(context.Background(), payment.ID, UpdatePaymentDTO{
		Observation: common.StringPtr("bring receipt"),
		PixKey:      common.StringPtr("club@pix"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bring receipt", updated.Observation)
	assert.Equal(t, "club@pix", updated.PixKey)
	assert.Equal(t, models.PaymentStatusPending, updated.Status)
	assert.True(t, updated.Amount.Equal(dec(10)))

	_, err = env.Payments.Update(context.Background(), payment.ID, UpdatePaymentDTO{Category: common.StringPtr(" ")})
	assert.Equal(t, 400, StatusOf(err))
	_, err = env.Payments.Update(context.Background(), "missing", UpdatePaymentDTO{})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestDeletePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)

	open := env.payment(t, athlete.ID, 10)
	env.proof(t, open, 5, "pix")
	require.NoError(t, env.Payments.Delete(ctx, open.ID))
	assert.Zero(t, env.count(t, &models.Payment{}, "id = ?", open.ID))
	assert.Zero(t, env.count(t, &models.PaymentProof{}, "payment_id = ?", open.ID))

	ticketed := env.payment(t, athlete.ID, 10)
	proof := env.proof(t, ticketed, 10, "pix")
	_, err := env.Review.Approve(ctx, ApproveProofDTO{ProofID: proof.ID, AdminID: admin.ID})
	require.NoError(t, err)

	err = env.Payments.Delete(ctx, ticketed.ID)
	assert.Equal(t, 409, StatusOf(err))
	assert.Equal(t, 1, int(env.count(t, &models.Payment{}, "id = ?", ticketed.ID)))

	view, err := env.Payments.Get(ctx, ticketed.ID)
	require.NoError(t, err)
	assert.True(t, view.HasTicket)
	assert.True(t, view.Outstanding.IsZero())
}

func TestPaymentSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	alice := env.profile(t, models.RoleAthlete)
	bob := env.profile(t, models.RoleAthlete)

	partial := env.payment(t, alice.ID, 100)
	proof := env.proof(t, partial, 40, "pix")
	_, err := env.Review.Approve(ctx, ApproveProofDTO{ProofID: proof.ID, AdminID: admin.ID})
	require.NoError(t, err)
	env.payment(t, alice.ID, 50)
	env.payment(t, bob.ID, 25)
	_, err = env.Payments.CreateExpense(ctx, CreatePaymentDTO{Amount: dec(300), Category: "field rent"})
	require.NoError(t, err)

	sum, err := env.Payments.Summary(ctx, "")
	require.NoError(t, err)
	assert.True(t, sum.TotalDue.Equal(dec(175)), sum.TotalDue.String())
	assert.True(t, sum.TotalPaid.Equal(dec(40)))
	assert.True(t, sum.Outstanding.Equal(dec(135)))
	assert.True(t, sum.TotalExpenses.Equal(dec(300)))
	assert.Equal(t, int64(2), sum.Pending)
	assert.Equal(t, int64(1), sum.Partial)

	sum, err = env.Payments.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, sum.TotalDue.Equal(dec(150)))
	assert.True(t, sum.TotalExpenses.IsZero())
}

func TestPaymentSummaryFractionalAmounts(t *testing.T) {
	env := newTestEnv(t)
	alice := env.profile(t, models.RoleAthlete)
	for _, amount := range []string{"0.10", "0.20", "33.35"} {
		p := env.payment(t, alice.ID, 1)
		require.NoError(t, env.DB.Model(p).Update("amount", decimal.RequireFromString(amount)).Error)
	}

	sum, err := env.Payments.Summary(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "33.65", sum.TotalDue.StringFixed(2))
	assert.Equal(t, "33.65", sum.Outstanding.StringFixed(2))
	assert.Equal(t, int64(3), sum.Pending)
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.PaymentStatusPending, DeriveStatus(dec(0), dec(100)))
	assert.Equal(t, models.PaymentStatusPartial, DeriveStatus(dec(40), dec(100)))
	assert.Equal(t, models.PaymentStatusPaid, DeriveStatus(dec(100), dec(100)))
	assert.Equal(t, models.PaymentStatusPaid, DeriveStatus(dec(120), dec(100)))
}
