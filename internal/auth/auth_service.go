package auth

import (
	"context"
	"os"
	"strings"
	"time"

	autherrors "leavehub/internal/auth/errors"
	"leavehub/internal/employee"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Token hidup cukup lama untuk satu hari kerja; tidak ada refresh flow.
const accessTokenTTL = 12 * time.Hour

type Service interface {
	IssueToken(ctx context.Context, email, phone string) (TokenResponse, error)
}

type service struct {
	employees employee.Repository
	logger    *zap.Logger
}

func NewService(employees employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{employees: employees, logger: l}
}

func (s *service) IssueToken(ctx context.Context, email, phone string) (TokenResponse, error) {
	emp, err := s.employees.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Warn("token request for unknown email", zap.Error(err))
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	if normalizePhone(emp.Phone) != normalizePhone(phone) {
		s.logger.Warn("token request phone mismatch",
			zap.String("employee_id", emp.ID.String()),
		)
		return TokenResponse{}, autherrors.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"employee_id": emp.ID.String(),
		"role":        emp.Role,
		"name":        emp.FullName,
		"exp":         time.Now().Add(accessTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		s.logger.Error("token signing failed", zap.Error(err))
		return TokenResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("access token issued",
		zap.String("employee_id", emp.ID.String()),
		zap.String("role", emp.Role),
	)

	return TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		Employee: TokenEmployee{
			ID:             emp.ID.String(),
			EmployeeNumber: emp.EmployeeNumber,
			FullName:       emp.FullName,
			Team:           emp.Team,
			Role:           emp.Role,
		},
	}, nil
}

// normalizePhone menyamakan variasi penulisan nomor sebelum dibandingkan
// ("+62 811-1111" vs "+628111111").
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
