package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/bootstrap"
	orderRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-storefront-service/internal/order/usecase"
	prodRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-storefront-service/internal/product/usecase"
	userRepoPkg "github.com/fekuna/omnipos-storefront-service/internal/user/repository"
	userUCPkg "github.com/fekuna/omnipos-storefront-service/internal/user/usecase"
	"github.com/fekuna/omnipos-storefront-service/migrations"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/search"
	"github.com/fekuna/omnipos-storefront-service/pkg/worker"
)

// operatorID is recorded as the actor for CLI-initiated admin actions.
const operatorID = "00000000-0000-0000-0000-000000000000"

type env struct {
	cfg *config.Config
	log logger.ZapLogger
	db  *sqlx.DB
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.log.Sync()
}

// openEnv is swapped out in tests.
var openEnv = func() (*env, error) {
	cfg := config.LoadEnv()
	log := bootstrap.Logger(cfg)
	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Storefront operator tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "deadline for the whole command")

	withEnv := func(run func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			return run(ctx, cmd, e, args)
		}
	}

	root.AddCommand(
		newMigrateCmd(withEnv),
		newReindexCmd(withEnv),
		newOrdersCmd(withEnv),
		newAdminCmd(withEnv),
	)
	return root
}

type envRunner func(run func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error

func newMigrateCmd(withEnv envRunner) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	cmd.RunE = withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
		var (
			versions []string
			err      error
		)
		if dryRun {
			versions, err = postgres.PendingMigrations(ctx, e.db, migrations.FS)
		} else {
			versions, err = postgres.Migrate(ctx, e.db, migrations.FS)
		}
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		}
		for _, v := range versions {
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "pending", v)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", v)
			}
		}
		return nil
	})
	return cmd
}

func newReindexCmd(withEnv envRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the product search index from the database",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
			es, err := search.NewClient(&search.Config{
				Addresses: e.cfg.Elastic.Addresses,
				Username:  e.cfg.Elastic.Username,
				Password:  e.cfg.Elastic.Password,
			})
			if err != nil {
				return fmt.Errorf("connect elasticsearch: %w", err)
			}
			uc := prodUCPkg.NewProductUseCase(prodUCPkg.Deps{
				Repo:   prodRepoPkg.NewPGRepository(e.db),
				Tx:     postgres.NewTxManager(e.db),
				Index:  es,
				Pool:   worker.Inline{},
				Logger: e.log,
			})
			n, err := uc.Reindex(ctx)
			if err != nil {
				return err
			}
			e.log.Info("reindex finished", zap.Int("products", n))
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products\n", n)
			return nil
		}),
	}
}

func newOrdersCmd(withEnv envRunner) *cobra.Command {
	orders := &cobra.Command{Use: "orders", Short: "Order maintenance"}
	orders.AddCommand(&cobra.Command{
		Use:   "purge <order-id>",
		Short: "Permanently delete an order and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			uc := orderUCPkg.NewOrderUseCase(orderUCPkg.Deps{
				Repo:     orderRepoPkg.NewPGRepository(e.db),
				Tx:       postgres.NewTxManager(e.db),
				Pool:     worker.Inline{},
				Checkout: e.cfg.Checkout,
				Logger:   e.log,
			})
			sess := &auth.Session{UserID: operatorID, IsAdmin: true}
			if err := uc.PurgeOrder(ctx, sess, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s purged\n", args[0])
			return nil
		}),
	})
	return orders
}

func newAdminCmd(withEnv envRunner) *cobra.Command {
	admin := &cobra.Command{Use: "admin", Short: "Manage administrator accounts"}
	set := func(use, short string, isAdmin bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <email>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
				uc := userUCPkg.NewUserUseCase(userUCPkg.Deps{
					Repo:   userRepoPkg.NewPGRepository(e.db),
					Logger: e.log,
				})
				if err := uc.SetAdmin(ctx, args[0], isAdmin); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: admin=%t\n", args[0], isAdmin)
				return nil
			}),
		}
	}
	admin.AddCommand(
		set("grant", "Give a user administrator rights", true),
		set("revoke", "Remove administrator rights from a user", false),
	)
	return admin
}
