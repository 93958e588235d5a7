// Command admin is the operator CLI: user accounts, sessions including
// soft-deleted ones, the application log and the NATS event stream.
package main

import (
	"fmt"
	"os"

	"bitbraniac-be/internal/config"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/internal/service"
	"bitbraniac-be/pkg/database"
	"bitbraniac-be/pkg/events"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app is opened lazily so commands that do not touch the database (logs,
// events) work without one.
type app struct {
	cfg    *config.Config
	log    logger.ILogger
	db     *gorm.DB
	admin  service.IAdminService
	closed bool
}

func (a *app) adminService() (service.IAdminService, error) {
	if a.admin != nil {
		return a.admin, nil
	}
	db, err := database.NewGormDB(database.Options{
		Driver: a.cfg.Database.Driver,
		DSN:    a.cfg.Database.Connection,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	// Events from the CLI are logged only; the API process owns the bus.
	a.admin = service.NewAdminService(unitofwork.NewRepositoryFactory(db), events.NopPublisher{}, a.log, a.cfg.App.LogFilePath)
	return a.admin, nil
}

func (a *app) close() {
	if a.db != nil && !a.closed {
		_ = database.Close(a.db)
		a.closed = true
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "BitBraniac operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newUsersCmd(a))
	rootCmd.AddCommand(newSessionsCmd(a))
	rootCmd.AddCommand(newLogsCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))
	return rootCmd
}

func main() {
	cfg := config.Load()
	a := &app{
		cfg: cfg,
		log: logger.NewIsolatedLogger(cfg.App.LogFilePath),
	}
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		a.close()
		os.Exit(1)
	}
}
