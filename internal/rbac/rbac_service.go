package rbac

import (
	"context"
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	ReloadPolicy(ctx context.Context) error
	Enforce(req EnforceRequest) (bool, error)
	// EnforceRoles satisfies the middleware's local interface.
	EnforceRoles(roles []string, resource, action string) (bool, error)
	ListGrants(ctx context.Context) ([]GrantResponse, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

func (s *service) ReloadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadPolicyUnlocked(ctx)
}

func (s *service) reloadPolicyUnlocked(ctx context.Context) error {
	s.enforcer.ClearPolicy()

	grants, err := s.repo.GetRoleGrants(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("rbac policy reload", zap.Int("grants", len(grants)))

	for _, g := range grants {
		if _, err := s.enforcer.AddPolicy(g.Role, g.Resource, g.Action); err != nil {
			return err
		}
	}
	return nil
}

// Enforce allows the request when any of the actor's roles carries a grant
// for the resource and action. Policy is re-read per check so grant edits
// take effect without a restart.
func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadPolicyUnlocked(context.Background()); err != nil {
		return false, err
	}

	for _, role := range req.Roles {
		allowed, err := s.enforcer.Enforce(role, req.Resource, req.Action)
		if err != nil {
			s.logger.Warn("rbac enforce failed",
				zap.String("role", role),
				zap.String("resource", req.Resource),
				zap.String("action", req.Action),
				zap.Error(err),
			)
			return false, err
		}
		if allowed {
			return true, nil
		}
	}

	s.logger.Debug("rbac enforce denied",
		zap.Strings("roles", req.Roles),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
	)
	return false, nil
}

func (s *service) EnforceRoles(roles []string, resource, action string) (bool, error) {
	return s.Enforce(EnforceRequest{Roles: roles, Resource: resource, Action: action})
}

func (s *service) ListGrants(ctx context.Context) ([]GrantResponse, error) {
	grants, err := s.repo.GetRoleGrants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, GrantResponse{Role: g.Role, Resource: g.Resource, Action: g.Action})
	}
	return out, nil
}
