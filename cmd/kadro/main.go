package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	hrmpersistence "github.com/kadrohq/kadro/modules/hrm/infrastructure/persistence"
	hrmcontrollers "github.com/kadrohq/kadro/modules/hrm/presentation/controllers"
	hrmservices "github.com/kadrohq/kadro/modules/hrm/services"
	numberingpersistence "github.com/kadrohq/kadro/modules/numbering/infrastructure/persistence"
	numberingcontrollers "github.com/kadrohq/kadro/modules/numbering/presentation/controllers"
	numberingservices "github.com/kadrohq/kadro/modules/numbering/services"
	orgpersistence "github.com/kadrohq/kadro/modules/org/infrastructure/persistence"
	orgcontrollers "github.com/kadrohq/kadro/modules/org/presentation/controllers"
	orgservices "github.com/kadrohq/kadro/modules/org/services"

	"github.com/kadrohq/kadro/internal/server"
	"github.com/kadrohq/kadro/migrations"
	"github.com/kadrohq/kadro/pkg/configuration"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/metrics"
	"github.com/kadrohq/kadro/pkg/types"
)

func main() {
	root := &cobra.Command{
		Use:          "kadro",
		Short:        "Multi-tenant organizational scoping and resource allocation engine",
		SilenceUsage: true,
	}
	root.AddCommand(serveCommand(), migrateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configuration.Use()
			log := cfg.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer pool.Close()

			bus := eventbus.NewEventPublisher(log)

			orgRepo := orgpersistence.NewOrgRepository()
			orgService := orgservices.NewOrgService(orgRepo, bus)

			gateOpts := []orgservices.TenantGateOption{
				orgservices.WithCacheTTL(time.Duration(cfg.TenantScope.CacheTTLSeconds) * time.Second),
			}
			if cfg.Redis.Enabled {
				redisOpts, err := redis.ParseURL(cfg.Redis.URL)
				if err != nil {
					return err
				}
				gateOpts = append(gateOpts, orgservices.WithRedisCache(redis.NewClient(redisOpts)))
			}
			gate := orgservices.NewTenantGate(orgService, log, gateOpts...)
			gate.Register(bus)

			categoryRepo := numberingpersistence.NewCategoryRepository()
			recordRepo := numberingpersistence.NewAllocationRepository()
			rangeRepo := numberingpersistence.NewRangeRepository()
			assignmentRepo := numberingpersistence.NewAssignmentRepository()

			categoryService := numberingservices.NewCategoryService(categoryRepo)
			sequenceService := numberingservices.NewSequenceService(categoryRepo, cfg.Allocation.MaxRetries)
			ledgerService := numberingservices.NewLedgerService(recordRepo, categoryRepo, gate, bus, numberingservices.LedgerOptions{
				Separator:  cfg.Allocation.Separator,
				Digits:     cfg.Allocation.Digits,
				MaxRetries: cfg.Allocation.MaxRetries,
			})
			ipamService := numberingservices.NewIPAMService(rangeRepo, assignmentRepo, bus, cfg.Allocation.MaxRetries)

			employeeRepo := hrmpersistence.NewEmployeeRepository()
			employeeService := hrmservices.NewEmployeeService(employeeRepo, gate, ledgerService, bus, log)

			controllers := []types.Controller{
				orgcontrollers.NewOrgAPIController(orgService, gate, log),
				numberingcontrollers.NewNumberingAPIController(categoryService, sequenceService, ledgerService, ipamService, log),
				hrmcontrollers.NewHRMAPIController(employeeService, log),
			}
			if cfg.Prometheus.Enabled {
				controllers = append(controllers, metrics.NewPrometheusController(cfg.Prometheus.Path))
			}

			return server.New(cfg.SocketAddress, log, pool, controllers...).Start(ctx)
		},
	}
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply database migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configuration.Use()

			db, err := sql.Open("pgx", cfg.Database.ConnectionString())
			if err != nil {
				return err
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			ctx := context.Background()
			switch args[0] {
			case "up":
				return goose.UpContext(ctx, db, ".")
			case "down":
				return goose.DownContext(ctx, db, ".")
			case "status":
				return goose.StatusContext(ctx, db, ".")
			default:
				return cmd.Usage()
			}
		},
	}
	return cmd
}
