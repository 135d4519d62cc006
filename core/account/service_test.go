package account_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/tests"
)

func TestService_Authenticate(t *testing.T) {
	f := setup(t)
	usr := testutil.CreateAccount(t, f.db, account.RoleStudent, "User", "awe", "awe@test.cd", "Secret-123")
	longPwd := "Aa1-" + strings.Repeat("x", account.MaxPasswordBytes-4)
	long := testutil.CreateAccount(t, f.db, account.RoleStudent, "Long", "lng", "lng@test.cd", longPwd)

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantID  int
		wantErr bool
	}{
		{name: "username", uname: "awe", pwd: "Secret-123"},
		{name: "longest password", uname: "lng", pwd: longPwd, wantID: long.ID},
		{name: "password past bcrypt limit", uname: "lng", pwd: longPwd + "yz", wantErr: true},
		{name: "email, mixed case", uname: " AWE@test.cd", pwd: "Secret-123"},
		{name: "wrong password", uname: "awe", pwd: "Secret-124", wantErr: true},
		{name: "unknown user", uname: "lol", pwd: "Secret-123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := f.svc.Authenticate(context.Background(), tt.uname, tt.pwd)
			if tt.wantErr {
				require.True(t, core.IsValidation(err), "err = %v", err)
				assert.True(t, errors.Is(err, account.ErrInvalidCredentials))
				return
			}
			require.NoError(t, err)
			wantID := usr.ID
			if tt.wantID != 0 {
				wantID = tt.wantID
			}
			assert.Equal(t, wantID, acc.ID)
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usr := testutil.CreateAccount(t, f.db, account.RoleAdmin, "Jane Doe", "janedoe", "jane@test.cd", "Secret-123")

	tests := []struct {
		name      string
		data      account.ChangePassword
		wantField string
	}{
		{name: "wrong old password", data: account.ChangePassword{OldPassword: "nope", Password: "N3w-Passw0rd!", PasswordConfirm: "N3w-Passw0rd!"}, wantField: "old_password"},
		{name: "weak password", data: account.ChangePassword{OldPassword: "Secret-123", Password: "12345678", PasswordConfirm: "12345678"}, wantField: "password"},
		{name: "similar to username", data: account.ChangePassword{OldPassword: "Secret-123", Password: "Janedoe-1", PasswordConfirm: "Janedoe-1"}, wantField: "password"},
		{name: "too long", data: account.ChangePassword{OldPassword: "Secret-123", Password: strings.Repeat("Aa1-", 19), PasswordConfirm: strings.Repeat("Aa1-", 19)}, wantField: "password"},
		{name: "mismatch", data: account.ChangePassword{OldPassword: "Secret-123", Password: "N3w-Passw0rd!", PasswordConfirm: "N3w-Passw0rd?"}, wantField: "password_confirm"},
		{name: "ok", data: account.ChangePassword{OldPassword: "Secret-123", Password: "N3w-Passw0rd!", PasswordConfirm: "N3w-Passw0rd!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ChangePassword(ctx, usr.ID, tt.data)
			if tt.wantField != "" {
				require.True(t, core.IsValidation(err), "err = %v", err)
				assert.Contains(t, fieldErrors(err), tt.wantField)
				return
			}
			require.NoError(t, err)
			_, err = f.svc.Authenticate(ctx, usr.Username, tt.data.Password)
			assert.NoError(t, err)
		})
	}

	err := f.svc.ChangePassword(ctx, 999999, account.ChangePassword{})
	assert.True(t, core.IsNotFound(err))
}

func TestService_SetPassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usr := testutil.CreateAccount(t, f.db, account.RoleAdmin, "Admin", "admin", "admin@test.cd", "Secret-123")

	require.NoError(t, f.svc.SetPassword(ctx, "ADMIN@test.cd", "lol"))
	_, err := f.svc.Authenticate(ctx, usr.Username, "lol")
	assert.NoError(t, err)

	assert.True(t, errors.Is(f.svc.SetPassword(ctx, "nobody", "lol"), account.ErrNotFound))

	err = f.svc.SetPassword(ctx, "admin", strings.Repeat("a", account.MaxPasswordBytes+1))
	require.True(t, core.IsValidation(err), "err = %v", err)
	assert.True(t, errors.Is(err, account.ErrPasswordTooLong))
}

func TestService_GetByID(t *testing.T) {
	f := setup(t)
	usr := testutil.CreateAccount(t, f.db, account.RoleParent, "Mom", "mom", "mom@test.cd", "")

	acc, err := f.svc.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.Username, acc.Username)
	assert.Equal(t, account.RoleParent, acc.Role)

	_, err = f.svc.GetByID(context.Background(), usr.ID+1)
	assert.True(t, core.IsNotFound(err))
}
