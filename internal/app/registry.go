package app

import (
	"context"
	"database/sql"

	"concord-desk/internal/dar"
	"concord-desk/internal/employee"
	"concord-desk/internal/leave"
	"concord-desk/internal/messaging/kafka"
	"concord-desk/internal/middleware"
	"concord-desk/internal/notify"
	"concord-desk/internal/rbac"
	"concord-desk/internal/rbac/infra"
	"concord-desk/internal/shared/storequeue"
	"concord-desk/internal/task"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// actorResolver adapts the employee service to the middleware's local
// interface, keeping middleware free of module imports.
type actorResolver struct {
	employees employee.Service
}

func (r *actorResolver) ResolveActor(ctx context.Context, memberID string) (*middleware.Actor, error) {
	e, err := r.employees.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &middleware.Actor{
		EmployeeID:  e.ID,
		MemberID:    e.MemberID,
		DisplayName: e.DisplayName,
		Roles:       e.Roles,
	}, nil
}

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	queue *storequeue.Queue,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)
	darRepo := dar.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)
	if err := rbacRepo.EnsureDefaultGrants(context.Background()); err != nil {
		return err
	}

	// --- Services ---
	notifier := notify.NewOutboxNotifier(outboxRepo)
	// Leave first: employee provisioning seeds balances through it.
	leaveService := leave.NewService(db, leaveRepo, employeeRepo, queue, notifier, leaveConfigFromEnv())
	employeeService := employee.NewService(db, employeeRepo, leaveService, queue)
	taskService := task.NewService(db, taskRepo, employeeRepo, queue, notifier)
	darService := dar.NewService(db, darRepo, employeeRepo, queue, notifier, darConfigFromEnv())

	actor := middleware.ActorMiddleware(&actorResolver{employees: employeeService})

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)
	leaveHandler := leave.NewHandler(leaveService)
	taskHandler := task.NewHandler(taskService)
	darHandler := dar.NewHandler(darService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler, rbacService, actor)
		leave.RegisterRoutes(api, leaveHandler, rbacService, actor)
		task.RegisterRoutes(api, taskHandler, rbacService, actor)
		dar.RegisterRoutes(api, darHandler, rbacService, actor)
		rbac.RegisterRoutes(api, rbacHandler, rbacService, actor)
	}

	return nil
}
