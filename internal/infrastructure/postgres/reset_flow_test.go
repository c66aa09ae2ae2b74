package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

type fixedNumeric string

func (f fixedNumeric) Numeric(int) (string, error) { return string(f), nil }
func (f fixedNumeric) Number(int) (int, error)     { return 654321, nil }

var (
	userRow  = []string{"id", "first_name", "last_name", "email", "password_hash", "created_at", "updated_at"}
	roleRow  = []string{"id", "name", "created_at"}
	tokenRow = []string{"id", "user_id", "token", "method", "used", "consumed_at", "created_at"}
)

func newResetService(mock pgxmock.PgxPoolIface, token string) *application.PasswordResetService {
	logger, _ := test.NewNullLogger()
	svc := application.NewPasswordResetService(NewStore(mock), fixedNumeric(token),
		validation.DefaultPasswordPolicy(), nil, mailtpl.Brand{AppName: "ParkingTime"}, 5*time.Minute, 6, logger)
	svc.Now = func() time.Time { return t0 }
	return svc
}

// expectLockedUser queues the row-locking user read every issuance starts with.
func expectLockedUser(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(`FROM users WHERE email = \$1 FOR UPDATE`).
		WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows(userRow).
			AddRow("u-1", "Ana", "Horvat", "ana@example.com", "hash", t0, t0))
	mock.ExpectQuery(`FROM roles r`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(roleRow).AddRow("role-1", "ROLE_USER", t0))
}

func TestForgetPasswordLocksUserBeforeIssuing(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(true)

	mock.ExpectBegin()
	expectLockedUser(mock)
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM reset_tokens`).
		WithArgs("123456").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO reset_tokens`).
		WithArgs(pgxmock.AnyArg(), "u-1", "123456", "email", false, pgxmock.AnyArg(), t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tok, err := newResetService(mock, "123456").ForgetPassword(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", tok.Token)
	assert.Equal(t, "u-1", tok.UserID)
}

func TestForgetPasswordActiveTokenRollsBack(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(true)

	mock.ExpectBegin()
	expectLockedUser(mock)
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(tokenRow).
			AddRow("t-1", "u-1", "111111", "email", false, (*time.Time)(nil), t0.Add(-time.Minute)))
	mock.ExpectRollback()

	_, err := newResetService(mock, "123456").ForgetPassword(context.Background(), "ana@example.com")
	assert.True(t, apperror.IsCoverUp(err))
}

func TestResetPasswordLocksToken(t *testing.T) {
	mock := newMock(t)
	mock.MatchExpectationsInOrder(true)

	consumed := t0.Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reset_tokens WHERE token = \$1 FOR UPDATE`).
		WithArgs("123456").
		WillReturnRows(pgxmock.NewRows(tokenRow).
			AddRow("t-1", "u-1", "123456", "email", true, &consumed, t0.Add(-2*time.Minute)))
	mock.ExpectRollback()

	_, err := newResetService(mock, "123456").ResetPassword(context.Background(), application.ResetPasswordInput{
		Token: "123456", NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!",
	})
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInvalidArgument, ae.Kind)
	assert.Equal(t, application.MsgTokenExpired, ae.Message)
}
