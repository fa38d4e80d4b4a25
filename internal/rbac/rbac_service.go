package rbac

import (
	"sync"

	"leavehub/internal/domain"

	"github.com/casbin/casbin/v2"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
)

// Kebijakan statis: sistem single-company dengan tiga role tetap.
// hr mewarisi manager, manager mewarisi employee.
var seedPolicies = [][3]string{
	{RoleEmployee, "leave", "create"},
	{RoleEmployee, "leave", "read"},
	{RoleEmployee, "leave", "submit"},
	{RoleEmployee, "leave", "withdraw"},
	{RoleEmployee, "employee", "read"},
	{RoleEmployee, "assistant", "read"},

	{RoleManager, "leave", "approve"},
	{RoleManager, "leave", "revert"},
	{RoleManager, "employee", "list"},

	{RoleHR, "employee", "create"},
	{RoleHR, "leave", "redrive"},
	{RoleHR, "rbac", "read"},
}

var roleInheritance = [][2]string{
	{RoleManager, RoleEmployee},
	{RoleHR, RoleManager},
}

type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	Policies() []domain.PolicyResponse
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.Mutex
}

func NewService(enforcer *casbin.Enforcer) (Service, error) {
	s := &service{enforcer: enforcer}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *service) seed() error {
	s.enforcer.ClearPolicy()

	for _, p := range seedPolicies {
		if _, err := s.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	for _, g := range roleInheritance {
		if _, err := s.enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enforcer.Enforce(req.Role, req.Resource, req.Action)
}

func (s *service) Policies() []domain.PolicyResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.enforcer.GetPolicy()
	policies := make([]domain.PolicyResponse, 0, len(raw))
	for _, p := range raw {
		if len(p) < 3 {
			continue
		}
		policies = append(policies, domain.PolicyResponse{
			Role:     p[0],
			Resource: p[1],
			Action:   p[2],
		})
	}
	return policies
}
