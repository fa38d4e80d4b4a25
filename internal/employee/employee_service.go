package employee

import (
	"context"
	"fmt"

	"leavehub/internal/domain"
	"leavehub/internal/shared/contextutil"
	"leavehub/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, teamFilter string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	GetBalances(ctx context.Context, employeeID string) ([]BalanceResponse, error)
}

type service struct {
	repo     Repository
	balances BalanceRepository
	counter  counter.Repository
	logger   *zap.Logger
}

func NewService(
	repo Repository,
	balances BalanceRepository,
	counterRepo counter.Repository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		repo:     repo,
		balances: balances,
		counter:  counterRepo,
		logger:   l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid), // Propagasi ke logs
		zap.String("email", req.Email),
		zap.String("team", req.Team),
		zap.String("role", req.Role),
	)

	if req.EmployeeNumber == "" {
		nextVal, err := s.counter.GetNextValue(ctx, counter.TypeEmployeeNumber)
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNumber = fmt.Sprintf("EMP-%06d", nextVal)
	}

	empl := &Employee{
		ID:             uuid.New(),
		EmployeeNumber: req.EmployeeNumber,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Team:           req.Team,
		Role:           req.Role,
		ManagerID:      uuidPtr(req.ManagerID),
	}

	// Saldo awal per tipe; tipe tanpa kuota (UNPAID) tidak diberi baris.
	balances := make([]LeaveBalance, 0, len(domain.LeaveTypes()))
	for _, leaveType := range domain.LeaveTypes() {
		allowance, ok := domain.DefaultAllowance(leaveType)
		if !ok {
			continue
		}
		balances = append(balances, LeaveBalance{
			ID:         uuid.New(),
			EmployeeID: empl.ID,
			LeaveType:  leaveType,
			Balance:    allowance,
			Version:    1,
		})
	}

	if err := s.repo.CreateWithBalances(ctx, empl, balances); err != nil {
		s.logger.Error("create employee persist failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
		zap.String("employee_number", empl.EmployeeNumber),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, teamFilter string) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested", zap.String("team", teamFilter))
	empls, err := s.repo.FindAll(ctx, teamFilter)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(empls), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.String("employee_id", id))
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) GetBalances(ctx context.Context, employeeID string) ([]BalanceResponse, error) {
	s.logger.Debug("get balances requested", zap.String("employee_id", employeeID))

	if _, err := s.repo.FindByID(ctx, employeeID); err != nil {
		return nil, mapRepositoryError(err)
	}

	balances, err := s.balances.FindByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("get balances failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = BalanceResponse{
			LeaveType: b.LeaveType,
			Balance:   b.Balance,
			Version:   b.Version,
		}
	}
	return resp, nil
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             empl.ID.String(),
		EmployeeNumber: empl.EmployeeNumber,
		FullName:       empl.FullName,
		Email:          empl.Email,
		Phone:          empl.Phone,
		Team:           empl.Team,
		Role:           empl.Role,
		ManagerID:      uuidToString(empl.ManagerID),
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}

func uuidPtr(v string) *uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

func uuidToString(v *uuid.UUID) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func parseUUID(v string) uuid.UUID {
	id, _ := uuid.Parse(v)
	return id
}
