// Package admincli is the operator command line: migrations, account
// seeding, purchase grants, progress exports and backups.
package admincli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nextgenschool/internal/config"
	"nextgenschool/internal/database"
	"nextgenschool/internal/logger"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	DatabaseType string
	DatabasePath string
	DatabaseURL  string
	Verbose      bool

	db  *database.DB
	log *logger.Logger
}

// NewRootCommand creates the root command. Configuration defaults come from
// the environment; flags override them.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{
		DatabaseType: cfg.DatabaseType,
		DatabasePath: cfg.DatabasePath,
		DatabaseURL:  cfg.DatabaseURL,
	}

	cmd := &cobra.Command{
		Use:           "nextgen-admin",
		Short:         "NextGen School administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseType, "db-type", opts.DatabaseType, "database type (sqlite|postgres|mysql)")
	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db-path", opts.DatabasePath, "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", opts.DatabaseURL, "PostgreSQL or MySQL connection URL")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewParentCommand(opts))
	cmd.AddCommand(NewLearnerCommand(opts))
	cmd.AddCommand(NewPurchaseCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewProgressCommand(opts))

	return cmd
}

func (o *RootOptions) open(cmd *cobra.Command) error {
	o.log = logger.Nop()
	if o.Verbose {
		log, err := logger.New("dev", "")
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		o.log = log
	}

	db, err := database.InitializeWithConfig(&config.Config{
		DatabaseType: o.DatabaseType,
		DatabasePath: o.DatabasePath,
		DatabaseURL:  o.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	o.db = db

	// Every command needs the schema to be current
	if _, err := db.RunMigrations(cmd.Context(), o.log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (o *RootOptions) close() error {
	if o.db == nil {
		return nil
	}
	err := o.db.Close()
	o.db = nil
	return err
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
