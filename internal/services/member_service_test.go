package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-finance/internal/auth"
	"club-finance/internal/models"
)

func TestRegisterApproveLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)

	profile, err := env.Members.Register(ctx, RegisterDTO{
		Email: " Ana@Club.test ", FullName: "Ana", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@club.test", profile.Email)
	assert.Equal(t, models.ProfileStatusPending, profile.Status)
	assert.Equal(t, models.RoleAthlete, profile.Role)
	assert.Len(t, env.notificationsFor(t, admin.ID), 1)

	_, err = env.Members.Register(ctx, RegisterDTO{Email: "ana@club.test", FullName: "Ana", Password: "secret123"})
	assert.Equal(t, 409, StatusOf(err))

	_, err = env.Members.Login(ctx, LoginDTO{Email: "ana@club.test", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountNotActive)

	_, err = env.Members.Approve(ctx, profile.ID)
	require.NoError(t, err)

	_, err = env.Members.Login(ctx, LoginDTO{Email: "ana@club.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidLogin)

	res, err := env.Members.Login(ctx, LoginDTO{Email: "ANA@club.test", Password: "secret123"})
	require.NoError(t, err)
	claims, err := env.Members.Tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.Subject)
	assert.Equal(t, models.RoleAthlete, claims.Role)

	session, err := env.Members.Session(ctx, profile.ID)
	require.NoError(t, err)
	assert.False(t, session.IsAdmin())

	_, err = env.Members.SetAccountStatus(ctx, profile.ID, models.AccountInactive)
	require.NoError(t, err)
	_, err = env.Members.Session(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrAccountNotActive)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	for _, data := range []RegisterDTO{
		{Email: "nope", FullName: "A", Password: "secret123"},
		{Email: "a@b.c", FullName: " ", Password: "secret123"},
		{Email: "a@b.c", FullName: "A", Password: "123"},
	} {
		_, err := env.Members.Register(context.Background(), data)
		assert.Equal(t, 400, StatusOf(err))
	}
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.Members.EnsureAdmin(ctx, "root@club.test", "secret123", "Root")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.Members.EnsureAdmin(ctx, "other@club.test", "secret123", "Other")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := env.Members.Login(ctx, LoginDTO{Email: "root@club.test", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, res.Profile.IsAdmin())
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)

	password, err := env.Members.ResetPassword(ctx, ResetPasswordDTO{CallerID: admin.ID, AdminUserID: admin.ID, UserID: athlete.ID})
	require.NoError(t, err)
	assert.Len(t, password, 12)

	stored, err := env.Members.Get(ctx, athlete.ID)
	require.NoError(t, err)
	assert.True(t, stored.MustChangePassword)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, password))

	password, err = env.Members.ResetPassword(ctx, ResetPasswordDTO{CallerID: admin.ID, UserID: athlete.Email, NewPassword: "chosen-one"})
	require.NoError(t, err)
	assert.Equal(t, "chosen-one", password)

	require.NoError(t, env.Members.ChangePassword(ctx, ChangePasswordDTO{
		UserID: athlete.ID, CurrentPassword: "chosen-one", NewPassword: "mine-now",
	}))
	stored, err = env.Members.Get(ctx, athlete.ID)
	require.NoError(t, err)
	assert.False(t, stored.MustChangePassword)
}

func TestResetPasswordErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)

	cases := []struct {
		name   string
		data   ResetPasswordDTO
		status int
	}{
		{"missing user", ResetPasswordDTO{CallerID: admin.ID}, 400},
		{"caller not admin", ResetPasswordDTO{CallerID: athlete.ID, UserID: admin.ID}, 403},
		{"admin id mismatch", ResetPasswordDTO{CallerID: athlete.ID, AdminUserID: admin.ID, UserID: athlete.ID}, 403},
		{"unknown caller", ResetPasswordDTO{CallerID: "ghost", UserID: athlete.ID}, 403},
		{"unknown target", ResetPasswordDTO{CallerID: admin.ID, UserID: "nobody@club.test"}, 404},
		{"short password", ResetPasswordDTO{CallerID: admin.ID, UserID: athlete.ID, NewPassword: "abc"}, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Members.ResetPassword(ctx, tc.data)
			assert.Equal(t, tc.status, StatusOf(err))
		})
	}
}

func TestDeleteMemberCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.profile(t, models.RoleAdmin)
	athlete := env.profile(t, models.RoleAthlete)

	group, err := env.Groups.Create(ctx, CreateGroupDTO{Name: "Seniors"})
	require.NoError(t, err)
	require.NoError(t, env.Groups.AddMember(ctx, group.ID, athlete.ID))

	payment := env.payment(t, athlete.ID, 10)
	proof := env.proof(t, payment, 10, "pix")
	_, err = env.Review.Approve(ctx, ApproveProofDTO{ProofID: proof.ID, AdminID: admin.ID})
	require.NoError(t, err)

	require.NoError(t, env.Members.Delete(ctx, athlete.ID))
	assert.Zero(t, env.count(t, &models.Profile{}, "id = ?", athlete.ID))
	assert.Zero(t, env.count(t, &models.Payment{}, "member_id = ?", athlete.ID))
	assert.Zero(t, env.count(t, &models.PaymentProof{}, "user_id = ?", athlete.ID))
	assert.Zero(t, env.count(t, &models.PaymentTicket{}, "user_id = ?", athlete.ID))
	assert.Zero(t, env.count(t, &models.Notification{}, "user_id = ?", athlete.ID))
	assert.Zero(t, env.count(t, &models.GroupMembership{}, "user_id = ?", athlete.ID))

	assert.ErrorIs(t, env.Members.Delete(ctx, athlete.ID), ErrProfileNotFound)
}

func TestListMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.profile(t, models.RoleAdmin)
	_, err := env.Members.Register(ctx, RegisterDTO{Email: "zed@club.test", FullName: "Zed Pending", Password: "secret123"})
	require.NoError(t, err)

	res, err := env.Members.List(ctx, ListMembersDTO{Status: models.ProfileStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)

	res, err = env.Members.List(ctx, ListMembersDTO{Search: "zed"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
}
