package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leavehub/internal/employee"
	employeeerrors "leavehub/internal/employee/errors"
	"leavehub/internal/leave"
	"leavehub/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	groundingTTL         = 60 * time.Second
	recentDecisionsLimit = 5
)

// GroundingCacheKey dipakai service dan invalidator; satu key per karyawan.
func GroundingCacheKey(employeeID string) string {
	return fmt.Sprintf("assistant:grounding:%s", employeeID)
}

type Service interface {
	GetGrounding(ctx context.Context, actorID, actorRole, employeeID string) (GroundingResponse, error)
}

type service struct {
	leaves    leave.Repository
	employees employee.Repository
	balances  employee.BalanceRepository
	rdb       *redis.Client
	sf        *singleflight.Group
	logger    *zap.Logger
}

func NewService(
	leaves leave.Repository,
	employees employee.Repository,
	balances employee.BalanceRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("assistant.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.service")
	}
	return &service{
		leaves:    leaves,
		employees: employees,
		balances:  balances,
		rdb:       rdb,
		sf:        &singleflight.Group{},
		logger:    l,
	}
}

func (s *service) GetGrounding(ctx context.Context, actorID, actorRole, employeeID string) (GroundingResponse, error) {
	if employeeID != actorID && actorRole != "manager" && actorRole != "hr" {
		return GroundingResponse{}, apperror.ErrForbidden
	}

	cacheKey := GroundingCacheKey(employeeID)

	// Coba ambil dari Redis dulu; snapshot hanya hidup 60 detik.
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var resp GroundingResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				s.logger.Debug("grounding cache hit", zap.String("employee_id", employeeID))
				return resp, nil
			}
		}
	}

	// Singleflight mencegah stampede saat beberapa pertanyaan masuk
	// bersamaan untuk karyawan yang sama.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		resp, err := s.buildSnapshot(ctx, employeeID)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, string(jsonData), groundingTTL)
			}
		}

		return resp, nil
	})
	if err != nil {
		return GroundingResponse{}, err
	}

	return v.(GroundingResponse), nil
}

func (s *service) buildSnapshot(ctx context.Context, employeeID string) (GroundingResponse, error) {
	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		s.logger.Warn("grounding employee lookup failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return GroundingResponse{}, mapEmployeeLookupError(err)
	}

	balances, err := s.balances.FindByEmployee(ctx, employeeID)
	if err != nil {
		return GroundingResponse{}, err
	}

	active, err := s.leaves.FindActiveByEmployee(ctx, employeeID)
	if err != nil {
		return GroundingResponse{}, err
	}

	recent, err := s.leaves.FindRecentTerminalByEmployee(ctx, employeeID, recentDecisionsLimit)
	if err != nil {
		return GroundingResponse{}, err
	}

	resp := GroundingResponse{
		Employee: GroundingEmployee{
			ID:             emp.ID.String(),
			EmployeeNumber: emp.EmployeeNumber,
			FullName:       emp.FullName,
			Team:           emp.Team,
			Role:           emp.Role,
		},
		Balances:        make([]GroundingBalance, len(balances)),
		ActiveRequests:  mapGroundingRequests(active),
		RecentDecisions: mapGroundingRequests(recent),
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	for i, bal := range balances {
		resp.Balances[i] = GroundingBalance{
			LeaveType: bal.LeaveType,
			Balance:   bal.Balance,
			Version:   bal.Version,
		}
	}

	s.logger.Debug("grounding snapshot built",
		zap.String("employee_id", employeeID),
		zap.Int("active_requests", len(resp.ActiveRequests)),
		zap.Int("recent_decisions", len(resp.RecentDecisions)),
	)

	return resp, nil
}

func mapEmployeeLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	return err
}

func mapGroundingRequests(requests []leave.LeaveRequest) []GroundingRequest {
	resp := make([]GroundingRequest, len(requests))
	for i, l := range requests {
		resp[i] = GroundingRequest{
			ID:            l.ID.String(),
			RequestNumber: l.RequestNumber,
			LeaveType:     l.LeaveType,
			StartDate:     l.StartDate.Format("2006-01-02"),
			EndDate:       l.EndDate.Format("2006-01-02"),
			Days:          l.Days,
			Status:        l.Status,
			DecisionNote:  l.DecisionNote,
			Version:       l.Version,
		}
	}
	return resp
}
