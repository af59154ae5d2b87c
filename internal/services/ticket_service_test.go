package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-finance/internal/models"
)

// paidWithProofs marks the payment paid and approves the given proofs directly.
func (e *testEnv) paidWithProofs(t *testing.T, payment *models.Payment, admin string, proofs ...*models.PaymentProof) {
	t.Helper()
	reviewed := time.Now().Add(-time.Hour)
	for i, p := range proofs {
		at := reviewed.Add(time.Duration(i) * time.Minute)
		require.NoError(t, e.DB.Model(p).Updates(map[string]interface{}{
			"status": models.ProofStatusApproved, "reviewed_at": at, "reviewed_by": admin,
		}).Error)
	}
	require.NoError(t, e.DB.Model(payment).Updates(map[string]interface{}{
		"status": models.PaymentStatusPaid, "paid_amount": payment.Amount, "paid_at": time.Now(),
	}).Error)
}

func TestIssueSingleProof(t *testing.T) {
	env := newTestEnv(t)
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 80)
	env.paidWithProofs(t, payment, admin.ID, env.proof(t, payment, 80, "pix"))

	ticket, err := env.Tickets.Issue(context.Background(), payment.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, athlete.ID, ticket.UserID)
	assert.Equal(t, admin.ID, ticket.ApprovedBy)
	assert.Equal(t, 1, ticket.ProofCount)
	assert.Equal(t, "data:image/png;base64,AAAA", ticket.ProofImage)
	assert.NotEmpty(t, ticket.ProofID)
	assert.Empty(t, ticket.ProofBundle)
	assert.True(t, ticket.Amount.Equal(dec(80)))

	proofs, err := BundledProofs(ticket)
	require.NoError(t, err)
	assert.Len(t, proofs, 1)
}

func TestIssueUpdatesExistingTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 100)
	first := env.proof(t, payment, 100, "pix")
	env.paidWithProofs(t, payment, admin.ID, first)

	original, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, original)

	second := env.proof(t, payment, 5, "card")
	env.paidWithProofs(t, payment, admin.ID, first, second)

	updated, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, 2, updated.ProofCount)
	assert.Equal(t, "pix, card", updated.PaymentMethod)
	assert.Empty(t, updated.ProofImage)
	assert.Equal(t, 1, int(env.count(t, &models.PaymentTicket{}, "payment_id = ?", payment.ID)))

	proofs, err := BundledProofs(updated)
	require.NoError(t, err)
	require.Len(t, proofs, 2)
	assert.Equal(t, first.ID, proofs[0].ProofID)
	assert.Equal(t, second.ID, proofs[1].ProofID)
}

func TestIssueFallsBackToFirstAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 10)
	env.paidWithProofs(t, payment, admin.ID, env.proof(t, payment, 10, "pix"))

	ticket, err := env.Tickets.Issue(context.Background(), payment.ID, "")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, admin.ID, ticket.ApprovedBy)
}

func TestIssueSoftSkips(t *testing.T) {
	ctx := context.Background()

	t.Run("missing profile", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.profile(t, models.RoleAdmin)
		athlete := env.profile(t, models.RoleAthlete)
		payment := env.payment(t, athlete.ID, 10)
		env.paidWithProofs(t, payment, admin.ID, env.proof(t, payment, 10, "pix"))
		require.NoError(t, env.DB.Delete(athlete).Error)

		ticket, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
		assert.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("no admin", func(t *testing.T) {
		env := newTestEnv(t)
		athlete := env.profile(t, models.RoleAthlete)
		payment := env.payment(t, athlete.ID, 10)
		env.paidWithProofs(t, payment, athlete.ID, env.proof(t, payment, 10, "pix"))

		ticket, err := env.Tickets.Issue(ctx, payment.ID, "")
		assert.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("no approved proofs", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.profile(t, models.RoleAdmin)
		athlete := env.profile(t, models.RoleAthlete)
		payment := env.payment(t, athlete.ID, 10)
		env.paidWithProofs(t, payment, admin.ID)

		ticket, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
		assert.NoError(t, err)
		assert.Nil(t, ticket)
		assert.Zero(t, env.count(t, &models.PaymentTicket{}, "payment_id = ?", payment.ID))
	})
}

func TestIssueRequiresPaidPayment(t *testing.T) {
	env := newTestEnv(t)
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 10)

	_, err := env.Tickets.Issue(context.Background(), payment.ID, admin.ID)
	assert.Equal(t, 409, StatusOf(err))

	_, err = env.Tickets.Issue(context.Background(), "missing", admin.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestListTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	other := env.profile(t, models.RoleAthlete)

	for _, member := range []string{athlete.ID, athlete.ID, other.ID} {
		payment := env.payment(t, member, 10)
		env.paidWithProofs(t, payment, admin.ID, env.proof(t, payment, 10, "pix"))
		_, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
		require.NoError(t, err)
	}

	res, err := env.Tickets.List(ctx, ListTicketsDTO{UserID: athlete.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	tickets := res.Data.([]models.PaymentTicket)
	require.Len(t, tickets, 2)
	assert.Empty(t, tickets[0].ProofImage)

	res, err = env.Tickets.List(ctx, ListTicketsDTO{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Count)
	assert.Equal(t, 2, res.LastPage)
	assert.Equal(t, 2, res.NextPage)

	res, err = env.Tickets.List(ctx, ListTicketsDTO{UserID: other.ID, OnlyCurrent: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
}

func TestReissueKeepsCleanedUpProofs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 50)

	first := env.proof(t, payment, 50, "pix")
	res, err := env.Review.Approve(ctx, ApproveProofDTO{ProofID: first.ID, AdminID: admin.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, first.ID, res.Ticket.ProofID)

	aged := time.Now().Add(-200 * 24 * time.Hour)
	require.NoError(t, env.DB.Model(&models.PaymentProof{}).Where("id = ?", first.ID).Update("reviewed_at", aged).Error)
	removed, err := env.Cleanup.CleanupProofs(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	extra := env.proof(t, payment, 10, "cash")
	res, err = env.Review.Approve(ctx, ApproveProofDTO{ProofID: extra.ID, AdminID: admin.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)

	ticket := res.Ticket
	assert.Equal(t, 2, ticket.ProofCount)
	assert.Equal(t, "pix, cash", ticket.PaymentMethod)
	assert.Empty(t, ticket.ProofImage)
	assert.True(t, ticket.Amount.Equal(dec(60)))

	proofs, err := BundledProofs(ticket)
	require.NoError(t, err)
	require.Len(t, proofs, 2)
	assert.Equal(t, first.ID, proofs[0].ProofID)
	assert.Equal(t, "data:image/png;base64,AAAA", proofs[0].Image)
	assert.Equal(t, extra.ID, proofs[1].ProofID)

	// a later refresh does not duplicate either entry
	again, err := env.Tickets.Issue(ctx, payment.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.ProofCount)
}

func TestMethodSummary(t *testing.T) {
	entries := []models.TicketProof{
		{PaymentMethod: "pix"}, {PaymentMethod: "cash"}, {PaymentMethod: "pix, card"}, {PaymentMethod: ""},
	}
	assert.Equal(t, "pix, cash, card", methodSummary(entries))
}
