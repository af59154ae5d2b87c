package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-finance/internal/models"
)

func TestSubmitProof(t *testing.T) {
	env := newTestEnv(t)
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 100)

	proof, err := env.Proofs.Submit(context.Background(), SubmitProofDTO{
		PaymentID:     payment.ID,
		UserID:        athlete.ID,
		Amount:        decimal.RequireFromString("40.50"),
		PaymentMethod: " pix ",
		TransactionID: "E123",
		File:          pngHeader,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProofStatusPending, proof.Status)
	assert.Equal(t, "image/png", proof.ImageMime)
	assert.True(t, strings.HasPrefix(proof.Image, "data:image/png;base64,"))
	assert.Equal(t, "pix", proof.PaymentMethod)
	require.NotNil(t, proof.TransactionID)
	assert.Equal(t, "E123", *proof.TransactionID)

	member := env.notificationsFor(t, athlete.ID)
	require.Len(t, member, 1)
	assert.Contains(t, member[0].Message, "R$ 40,50")
	assert.Len(t, env.notificationsFor(t, admin.ID), 1)

	stored := env.reload(t, payment)
	assert.True(t, stored.PaidAmount.IsZero())
}

func TestSubmitProofValidation(t *testing.T) {
	env := newTestEnv(t)
	athlete := env.profile(t, models.RoleAthlete)
	other := env.profile(t, models.RoleAthlete)
	admin := env.profile(t, models.RoleAdmin)
	payment := env.payment(t, athlete.ID, 100)

	oversized := make([]byte, MaxProofSize+1)
	copy(oversized, pngHeader)

	valid := SubmitProofDTO{PaymentID: payment.ID, UserID: athlete.ID, Amount: dec(10), PaymentMethod: "pix", File: pngHeader}

	cases := []struct {
		name   string
		mutate func(d *SubmitProofDTO)
		status int
	}{
		{"zero amount", func(d *SubmitProofDTO) { d.Amount = decimal.Zero }, 400},
		{"negative amount", func(d *SubmitProofDTO) { d.Amount = dec(-5) }, 400},
		{"missing method", func(d *SubmitProofDTO) { d.PaymentMethod = "  " }, 400},
		{"missing file", func(d *SubmitProofDTO) { d.File = nil }, 400},
		{"oversized file", func(d *SubmitProofDTO) { d.File = oversized }, 400},
		{"text file", func(d *SubmitProofDTO) { d.File = []byte("just some text") }, 400},
		{"unknown payment", func(d *SubmitProofDTO) { d.PaymentID = "missing" }, 404},
		{"someone else's payment", func(d *SubmitProofDTO) { d.UserID = other.ID }, 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := valid
			tc.mutate(&data)
			_, err := env.Proofs.Submit(context.Background(), data)
			assert.Equal(t, tc.status, StatusOf(err))
		})
	}
	assert.Zero(t, env.count(t, &models.PaymentProof{}, "payment_id = ?", payment.ID))

	// admins may submit on behalf of a member; the proof still belongs to the member
	data := valid
	data.UserID = admin.ID
	data.IsAdmin = true
	data.File = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	proof, err := env.Proofs.Submit(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, athlete.ID, proof.UserID)
	assert.Equal(t, "application/pdf", proof.ImageMime)
}

func TestSubmitProofForExpenseIsRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.profile(t, models.RoleAdmin)
	expense, err := env.Payments.CreateExpense(context.Background(), CreatePaymentDTO{Amount: dec(30), Category: "balls"})
	require.NoError(t, err)

	_, err = env.Proofs.Submit(context.Background(), SubmitProofDTO{
		PaymentID: expense.ID, UserID: admin.ID, IsAdmin: true, Amount: dec(30), PaymentMethod: "pix", File: pngHeader,
	})
	assert.Equal(t, 400, StatusOf(err))
}

func TestListProofs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)
	payment := env.payment(t, athlete.ID, 100)
	first := env.proof(t, payment, 40, "pix")
	env.proof(t, payment, 60, "pix")

	_, err := env.Review.Approve(ctx, ApproveProofDTO{ProofID: first.ID, AdminID: admin.ID})
	require.NoError(t, err)

	all, err := env.Proofs.ListForPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Empty(t, all[0].Image)

	pending, err := env.Proofs.ListPending(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	got, err := env.Proofs.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProofStatusApproved, got.Status)
	assert.NotEmpty(t, got.Image)
}
