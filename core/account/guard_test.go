package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/tests"
)

func TestGuard_Require(t *testing.T) {
	repo := newRepo(t)
	guard := account.NewGuard(repo)
	ctx := context.Background()

	bob := account.Identity{Authenticated: true, UserType: account.UserTypeStudent, Username: "Bob", Role: account.RoleStudent}
	dillon := account.Identity{Authenticated: true, UserType: account.UserTypeTeacher, Username: "Dillon", Role: account.RoleAdmin}
	ghost := account.Identity{Authenticated: true, UserType: account.UserTypeStudent, Username: "Ghost", Role: account.RoleStudent}
	// the account exists but is not a student any more
	turned := account.Identity{Authenticated: true, UserType: account.UserTypeStudent, Username: "Sarah", Role: account.RoleStudent}

	tests := []struct {
		name      string
		sess      *testutil.MemorySession
		required  account.UserType
		wantErr   error
		wantClear bool
	}{
		{name: "anonymous", sess: testutil.NewSession(account.Anonymous), required: account.UserTypeStudent, wantErr: account.ErrNotAuthenticated},
		{name: "student on student page", sess: testutil.NewSession(bob), required: account.UserTypeStudent},
		{name: "student on teacher page", sess: testutil.NewSession(bob), required: account.UserTypeTeacher, wantErr: account.ErrWrongRole},
		{name: "admin on teacher page", sess: testutil.NewSession(dillon), required: account.UserTypeTeacher},
		{name: "admin on student page", sess: testutil.NewSession(dillon), required: account.UserTypeStudent, wantErr: account.ErrWrongRole},
		{name: "deleted account", sess: testutil.NewSession(ghost), required: account.UserTypeStudent, wantErr: account.ErrStaleIdentity, wantClear: true},
		{name: "account type changed", sess: testutil.NewSession(turned), required: account.UserTypeStudent, wantErr: account.ErrStaleIdentity, wantClear: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := guard.Require(ctx, tt.sess, tt.required)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, account.IsRedirect(err))
				assert.Equal(t, account.Anonymous, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.required, id.UserType)
			}
			assert.Equal(t, tt.wantClear, tt.sess.Cleared > 0)
			if tt.wantClear {
				_, ok := tt.sess.Identity()
				assert.False(t, ok)
			}
		})
	}
}

func TestGuard_Require_refreshesRole(t *testing.T) {
	repo := newRepo(t)
	guard := account.NewGuard(repo)
	ctx := context.Background()

	// Sarah signed in as a plain teacher, then got promoted
	sess := testutil.NewSession(account.Identity{
		Authenticated: true, UserType: account.UserTypeTeacher, Username: "Sarah", Role: account.RoleTeacher,
	})
	require.NoError(t, repo.Delete(ctx, "Sarah"))
	testutil.CreateTeacher(t, repo, "Sarah", "1234", true)

	id, err := guard.Require(ctx, sess, account.UserTypeTeacher)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
	assert.Zero(t, sess.Cleared)
}

func TestIsRedirect(t *testing.T) {
	assert.False(t, account.IsRedirect(nil))
	assert.False(t, account.IsRedirect(account.ErrNotFound))
	assert.True(t, account.IsRedirect(account.ErrWrongRole))
}
