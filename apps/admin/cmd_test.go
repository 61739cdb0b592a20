package main

import (
	"context"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nyumba/core/admin"
	sqlxrepos "github.com/trezcool/nyumba/storage/database/sqlx"
	"github.com/trezcool/nyumba/testutil"
)

const strongPwd = "Sup3r-S3cret!"

func setup(t *testing.T) *commandLine {
	db := testutil.OpenDB(t)
	return &commandLine{
		db:        db,
		adminRepo: sqlxrepos.NewAdminRepository(db),
		out:       io.Discard,
	}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(tt.args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol" for "admin"`},
		{name: "migrate without command", args: []string{"migrate"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCmd string
	var gotArgs []string
	orig := gooseRunFunc
	gooseRunFunc = func(_ context.Context, db *sqlx.DB, command string, args ...string) error {
		assert.Same(t, cli.db, db)
		gotCmd, gotArgs = command, args
		return nil
	}
	t.Cleanup(func() { gooseRunFunc = orig })

	tests := []struct {
		args     []string
		wantCmd  string
		wantArgs []string
	}{
		{args: []string{"migrate", "up"}, wantCmd: "up", wantArgs: []string{}},
		{args: []string{"migrate", "up-to", "3"}, wantCmd: "up-to", wantArgs: []string{"3"}},
		{args: []string{"migrate", "create", "add_tours", "sql"}, wantCmd: "create", wantArgs: []string{"add_tours", "sql"}},
		{args: []string{"migrate", "status"}, wantCmd: "status", wantArgs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.wantCmd, func(t *testing.T) {
			require.NoError(t, cli.run(tt.args))
			assert.Equal(t, tt.wantCmd, gotCmd)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func Test_commandLine_migrateForReal(t *testing.T) {
	cli := setup(t)
	// migrations were applied by testutil.OpenDB
	assert.NoError(t, cli.run([]string{"migrate", "version"}))
	assert.Error(t, cli.run([]string{"migrate", "lol"}))
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	pending := testutil.CreateAdmin(t, cli.adminRepo, "Newbie", "newbie@test.cd", "0ld-Passw0rd!", false, false)

	runCLITests(t, cli, []cliTest{
		{name: "no email", args: []string{"createadmin"}, pwd: strongPwd, wantErrStr: `required flag(s) "email" not set`},
		{name: "no password", args: []string{"createadmin", "--email", "boss@test.cd"}, wantErr: errEmptyPassword},
		{name: "new superadmin", args: []string{"createadmin", "--email", " BOSS@test.cd", "--name", "Boss", "--superadmin"}, pwd: strongPwd},
		{name: "existing admin", args: []string{"createadmin", "--email", pending.Email}, pwd: strongPwd},
	})

	boss, err := cli.adminRepo.GetAdmin(ctx, admin.GetFilter{Email: "boss@test.cd"})
	require.NoError(t, err)
	assert.Equal(t, "Boss", boss.Name)
	assert.True(t, boss.IsApproved)
	assert.True(t, boss.IsSuperadmin)
	assert.NoError(t, boss.CheckPassword(strongPwd))

	got, err := cli.adminRepo.GetAdmin(ctx, admin.GetFilter{ID: pending.ID})
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.False(t, got.IsSuperadmin)
	assert.Equal(t, pending.Email, got.Name)
	assert.NoError(t, got.CheckPassword(strongPwd))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	adm := testutil.CreateAdmin(t, cli.adminRepo, "Agent", "agent@test.cd", "0ld-Passw0rd!", true, false)

	runCLITests(t, cli, []cliTest{
		{name: "no email", args: []string{"resetpassword"}, pwd: strongPwd, wantErrStr: `required flag(s) "email" not set`},
		{name: "no password", args: []string{"resetpassword", "--email", adm.Email}, wantErr: errEmptyPassword},
		{name: "admin not found", args: []string{"resetpassword", "--email", "ghost@test.cd"}, pwd: strongPwd, wantErr: admin.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "--email", "AGENT@test.cd"}, pwd: strongPwd},
	})

	got, err := cli.adminRepo.GetAdmin(context.Background(), admin.GetFilter{ID: adm.ID})
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword(strongPwd))
}

func Test_commandLine_approve(t *testing.T) {
	cli := setup(t)
	pending := testutil.CreateAdmin(t, cli.adminRepo, "Newbie", "newbie@test.cd", strongPwd, false, false)

	runCLITests(t, cli, []cliTest{
		{name: "admin not found", args: []string{"approve", "--email", "ghost@test.cd"}, wantErr: admin.ErrNotFound},
		{name: "approve", args: []string{"approve", "--email", pending.Email}},
		{name: "already approved", args: []string{"approve", "--email", pending.Email}},
	})

	got, err := cli.adminRepo.GetAdmin(context.Background(), admin.GetFilter{ID: pending.ID})
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
}
