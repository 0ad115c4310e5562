package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techradar/apiserver/internal/auth"
	"github.com/techradar/apiserver/types"
)

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
	})
	require.NoError(t, err)
	return svc
}

type authFixture struct {
	service     *AuthService
	users       *fakeUserRepo
	memberships *fakeMembershipRepo
	audits      *fakeAuditRepo
	publisher   *fakePublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUserRepo()
	memberships := newFakeMembershipRepo()
	audits := &fakeAuditRepo{}
	publisher := &fakePublisher{}
	return &authFixture{
		service:     NewAuthService(users, memberships, audits, newTestTokenService(t), publisher, nil),
		users:       users,
		memberships: memberships,
		audits:      audits,
		publisher:   publisher,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)

	pair, loggedIn, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "203.0.113.9", "go-test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	entries := fx.audits.all()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, user.ID, *entries[0].UserID)
	assert.Equal(t, "203.0.113.9", entries[0].IPAddress)
	assert.Nil(t, entries[0].FailureReason)

	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, "auth.logins", fx.publisher.events[0].channel)
}

func TestRegisterValidation(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		field    string
	}{
		{"invalid email", "not-an-email", "longenough", "Ada", "email"},
		{"short password", "ada@example.com", "short", "Ada", "password"},
		{"short name", "ada@example.com", "longenough", "A", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.Register(ctx, tt.email, tt.password, tt.userName)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, err = fx.service.Register(ctx, "ada@example.com", "other password", "Ada Again")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, _, err = fx.service.Login(ctx, "ada@example.com", "wrong password", "203.0.113.9", "go-test")
	assert.ErrorIs(t, err, ErrBadCredentials)

	entries := fx.audits.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, user.ID, *entries[0].UserID)
	require.NotNil(t, entries[0].FailureReason)
	assert.Equal(t, "invalid password", *entries[0].FailureReason)
}

func TestLoginUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, _, err := fx.service.Login(context.Background(), "ghost@example.com", "whatever1", "203.0.113.9", "go-test")
	assert.ErrorIs(t, err, ErrBadCredentials)

	entries := fx.audits.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Nil(t, entries[0].UserID)
	require.NotNil(t, entries[0].FailureReason)
	assert.Equal(t, "unknown email", *entries[0].FailureReason)
}

func TestLoginEmptyPasswordAudited(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, _, err = fx.service.Login(ctx, "ada@example.com", "", "203.0.113.9", "go-test")
	assert.ErrorIs(t, err, ErrBadCredentials)

	entries := fx.audits.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, user.ID, *entries[0].UserID)
	require.NotNil(t, entries[0].FailureReason)
	assert.Equal(t, "invalid password", *entries[0].FailureReason)
}

func TestLoginEmptyEmailAudited(t *testing.T) {
	fx := newAuthFixture(t)

	_, _, err := fx.service.Login(context.Background(), "", "", "203.0.113.9", "go-test")
	assert.ErrorIs(t, err, ErrBadCredentials)

	entries := fx.audits.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Nil(t, entries[0].UserID)
	require.NotNil(t, entries[0].FailureReason)
	assert.Equal(t, "unknown email", *entries[0].FailureReason)
}

func TestUpdateProfile(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		name := "Ada Lovelace"
		updated, err := fx.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", updated.Name)
	})

	t.Run("name too short", func(t *testing.T) {
		name := "A"
		_, err := fx.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)
	})

	t.Run("wrong current password", func(t *testing.T) {
		newPassword := "brand new phrase"
		_, err := fx.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{
			NewPassword:     &newPassword,
			CurrentPassword: "not the password",
		})
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		newPassword := "short"
		_, err := fx.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{
			NewPassword:     &newPassword,
			CurrentPassword: "correct horse",
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "newPassword", vErr.Field)
	})

	t.Run("password change sticks", func(t *testing.T) {
		newPassword := "brand new phrase"
		_, err := fx.service.UpdateProfile(ctx, user.ID, UpdateProfileInput{
			NewPassword:     &newPassword,
			CurrentPassword: "correct horse",
		})
		require.NoError(t, err)

		_, _, err = fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, _, err = fx.service.Login(ctx, "ada@example.com", "brand new phrase", "", "")
		assert.NoError(t, err)
	})
}

func TestLoginStats(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, _, err = fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)
	_, _, err = fx.service.Login(ctx, "ada@example.com", "wrong password", "", "")
	require.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	stats, err := fx.service.LoginStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Successes)
	assert.Equal(t, 1, stats.Failures)
}

func TestLoginSurvivesAuditFailure(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	fx.audits.failErr = assert.AnError

	_, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	_, _, err = fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	assert.NoError(t, err)
}

func TestRefreshRotatesPair(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	pair, _, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	fresh, refreshed, err := fx.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.ID)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.NotEmpty(t, fresh.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	pair, _, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	_, _, err = fx.service.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshDeletedUser(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	pair, _, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	fx.users.delete(user.ID)

	_, _, err = fx.service.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestResolveContextRefetchesMemberships(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	pair, _, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	// Membership granted after the token was minted must still be visible.
	_, err = fx.memberships.Create(ctx, types.WorkspaceMember{
		UserID:      user.ID,
		WorkspaceID: "ws-1",
		Role:        types.RoleTechLead,
	})
	require.NoError(t, err)

	authCtx, err := fx.service.ResolveContext(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, authCtx)
	assert.Equal(t, user.ID, authCtx.User.ID)
	member := authCtx.Membership("ws-1")
	require.NotNil(t, member)
	assert.Equal(t, types.RoleTechLead, member.Role)
}

func TestResolveContextAnonymousCases(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	authCtx, err := fx.service.ResolveContext(ctx, "not-a-token")
	require.NoError(t, err)
	assert.Nil(t, authCtx)

	user, err := fx.service.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	pair, _, err := fx.service.Login(ctx, "ada@example.com", "correct horse", "", "")
	require.NoError(t, err)

	fx.users.delete(user.ID)

	authCtx, err = fx.service.ResolveContext(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, authCtx)
}
