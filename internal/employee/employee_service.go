package employee

import (
	"context"
	"database/sql"
	"errors"

	employeeerrors "concord-desk/internal/employee/errors"
	"concord-desk/internal/shared/apperror"
	"concord-desk/internal/shared/storequeue"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BalanceStore is implemented by the leave module. Provisioning an employee
// seeds a zeroed balance row; revoking removes it.
type BalanceStore interface {
	EnsureBalance(ctx context.Context, tx *sql.Tx, employeeID string) error
	RemoveBalance(ctx context.Context, tx *sql.Tx, employeeID string) error
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Provision(ctx context.Context, req ProvisionRequest) (*EmployeeResponse, error)
	Revoke(ctx context.Context, memberID string) error
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByMemberID(ctx context.Context, memberID string) (*EmployeeResponse, error)
	UpdateRoles(ctx context.Context, memberID string, req UpdateRolesRequest) (*EmployeeResponse, error)
	SetRelayChannel(ctx context.Context, memberID string, channelID string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	balances BalanceStore
	queue    *storequeue.Queue
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, balances BalanceStore, queue *storequeue.Queue, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, balances: balances, queue: queue, logger: l}
}

// Provision registers a member, or refreshes the existing record when the
// member is already known. Re-provisioning a revoked member restores the old
// record so balances and history survive a rejoin.
func (s *service) Provision(ctx context.Context, req ProvisionRequest) (*EmployeeResponse, error) {
	if req.MemberID == "" {
		return nil, employeeerrors.ErrInvalidMemberID
	}

	return storequeue.Do(ctx, s.queue, func(ctx context.Context) (*EmployeeResponse, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		existing, err := qtx.FindByMemberIDIncludingRevoked(ctx, req.MemberID)
		switch {
		case err == nil:
			existing.DisplayName = req.DisplayName
			existing.Department = req.Department
			existing.Roles = RoleList(req.Roles)
			if existing.DeletedAt.Valid {
				if err := qtx.Restore(ctx, existing.ID.String()); err != nil {
					return nil, apperror.StorageFault(err)
				}
				existing.DeletedAt = gorm.DeletedAt{}
			}
			if err := qtx.Update(ctx, existing); err != nil {
				return nil, apperror.StorageFault(err)
			}
			if err := s.balances.EnsureBalance(ctx, tx, existing.ID.String()); err != nil {
				return nil, err
			}
			if err := tx.Commit(); err != nil {
				return nil, apperror.StorageFault(err)
			}
			s.logger.Info("employee re-provisioned",
				zap.String("member_id", req.MemberID),
				zap.String("employee_id", existing.ID.String()),
			)
			return toResponse(existing), nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			created := &Employee{
				ID:          uuid.New(),
				MemberID:    req.MemberID,
				DisplayName: req.DisplayName,
				Department:  req.Department,
				Roles:       RoleList(req.Roles),
			}
			if err := qtx.Create(ctx, created); err != nil {
				return nil, apperror.StorageFault(err)
			}
			if err := s.balances.EnsureBalance(ctx, tx, created.ID.String()); err != nil {
				return nil, err
			}
			if err := tx.Commit(); err != nil {
				return nil, apperror.StorageFault(err)
			}
			s.logger.Info("employee provisioned",
				zap.String("member_id", req.MemberID),
				zap.String("employee_id", created.ID.String()),
			)
			return toResponse(created), nil

		default:
			return nil, apperror.StorageFault(err)
		}
	})
}

// Revoke soft-deletes the member's record. Revoking an unknown member is a
// no-op so membership events can be replayed safely.
func (s *service) Revoke(ctx context.Context, memberID string) error {
	return storequeue.DoErr(ctx, s.queue, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return apperror.StorageFault(err)
		}
		defer tx.Rollback()
		qtx := s.repo.WithTx(tx)

		existing, err := qtx.FindByMemberID(ctx, memberID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apperror.StorageFault(err)
		}

		if err := qtx.Delete(ctx, memberID); err != nil {
			return apperror.StorageFault(err)
		}
		if err := s.balances.RemoveBalance(ctx, tx, existing.ID.String()); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return apperror.StorageFault(err)
		}

		s.logger.Info("employee revoked",
			zap.String("member_id", memberID),
			zap.String("employee_id", existing.ID.String()),
		)
		return nil
	})
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		out = append(out, *toResponse(&employees[i]))
	}
	return out, nil
}

func (s *service) GetByMemberID(ctx context.Context, memberID string) (*EmployeeResponse, error) {
	e, err := s.repo.FindByMemberID(ctx, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toResponse(e), nil
}

func (s *service) UpdateRoles(ctx context.Context, memberID string, req UpdateRolesRequest) (*EmployeeResponse, error) {
	e, err := s.repo.FindByMemberID(ctx, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, employeeerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, apperror.StorageFault(err)
	}

	e.Roles = RoleList(req.Roles)
	if req.Department != "" {
		e.Department = req.Department
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, apperror.StorageFault(err)
	}
	return toResponse(e), nil
}

func (s *service) SetRelayChannel(ctx context.Context, memberID string, channelID string) error {
	e, err := s.repo.FindByMemberID(ctx, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	if err != nil {
		return apperror.StorageFault(err)
	}

	e.RelayChannelID = channelID
	if err := s.repo.Update(ctx, e); err != nil {
		return apperror.StorageFault(err)
	}
	return nil
}

func toResponse(e *Employee) *EmployeeResponse {
	return &EmployeeResponse{
		ID:             e.ID.String(),
		MemberID:       e.MemberID,
		DisplayName:    e.DisplayName,
		Department:     e.Department,
		Roles:          e.Roles,
		RelayChannelID: e.RelayChannelID,
	}
}
