package auth_test

import (
	"context"
	"os"
	"testing"
	"time"

	"leavehub/internal/auth"
	autherrors "leavehub/internal/auth/errors"
	"leavehub/internal/employee"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeEmployeeDirectory struct {
	findByEmailFn func(ctx context.Context, email string) (*employee.Employee, error)
}

func (f *fakeEmployeeDirectory) CreateWithBalances(context.Context, *employee.Employee, []employee.LeaveBalance) error {
	return nil
}
func (f *fakeEmployeeDirectory) FindAll(context.Context, string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeDirectory) FindByID(context.Context, string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeDirectory) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func tokenEmployee() *employee.Employee {
	return &employee.Employee{
		ID:             uuid.New(),
		EmployeeNumber: "EMP-000007",
		FullName:       "Alice Tan",
		Email:          "alice@example.com",
		Phone:          "+628111111111",
		Team:           "platform",
		Role:           "manager",
	}
}

func TestAuthService_IssueToken(t *testing.T) {
	ctx := context.Background()
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("success issues signed token", func(t *testing.T) {
		emp := tokenEmployee()
		directory := &fakeEmployeeDirectory{
			findByEmailFn: func(ctx context.Context, email string) (*employee.Employee, error) {
				assert.Equal(t, "alice@example.com", email)
				return emp, nil
			},
		}
		service := auth.NewService(directory, zap.NewNop())

		resp, err := service.IssueToken(ctx, "  Alice@example.com ", "+62 811-111-1111")

		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(12*60*60), resp.ExpiresIn)
		assert.Equal(t, emp.ID.String(), resp.Employee.ID)
		assert.Equal(t, "EMP-000007", resp.Employee.EmployeeNumber)
		assert.Equal(t, "manager", resp.Employee.Role)

		token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, emp.ID.String(), claims["employee_id"])
		assert.Equal(t, "manager", claims["role"])
		assert.Equal(t, "Alice Tan", claims["name"])
		exp, ok := claims["exp"].(float64)
		require.True(t, ok)
		assert.Greater(t, int64(exp), time.Now().Unix())
	})

	t.Run("negative unknown email", func(t *testing.T) {
		service := auth.NewService(&fakeEmployeeDirectory{}, zap.NewNop())

		_, err := service.IssueToken(ctx, "ghost@example.com", "+628111111111")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative phone mismatch", func(t *testing.T) {
		emp := tokenEmployee()
		directory := &fakeEmployeeDirectory{
			findByEmailFn: func(ctx context.Context, email string) (*employee.Employee, error) {
				return emp, nil
			},
		}
		service := auth.NewService(directory, zap.NewNop())

		_, err := service.IssueToken(ctx, emp.Email, "+628999999999")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}
