package admincli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nextgenschool/internal/catalog"
	"nextgenschool/internal/models"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/service"
)

// NewMigrateCommand applies pending migrations, which the root command
// already does before every command
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printf(cmd.OutOrStdout(), "schema is up to date (%s)\n", opts.db.Dialect.DriverName())
			return nil
		},
	}
}

// NewParentCommand manages parent accounts
func NewParentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "parent", Short: "Manage parent accounts"}

	var email, name, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a parent account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := service.NewAuthService(repository.NewParentRepository(opts.db))
			parent, err := auth.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "created parent %s <%s>\n", parent.ID, parent.Email)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "parent email (required)")
	add.Flags().StringVar(&name, "name", "", "parent display name (required)")
	add.Flags().StringVar(&password, "password", "", "initial password (required)")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List parent accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parents, err := repository.NewParentRepository(opts.db).ListParents(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range parents {
				printf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.ID, p.Email, p.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

// NewLearnerCommand manages learner profiles
func NewLearnerCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "learner", Short: "Manage learner profiles"}

	var parentEmail, name string
	var age int
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a learner and print their PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := repository.NewStore(opts.db)
			parent, err := lookupParent(cmd, store, parentEmail)
			if err != nil {
				return err
			}
			learner, err := service.NewLearnerService(store.Learners).CreateLearner(cmd.Context(), parent.ID, name, age)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "created learner %s (%s) pin %s\n", learner.ID, learner.Name, learner.PIN)
			return nil
		},
	}
	add.Flags().StringVar(&parentEmail, "parent-email", "", "owning parent's email (required)")
	add.Flags().StringVar(&name, "name", "", "learner name (required)")
	add.Flags().IntVar(&age, "age", 0, "learner age (required)")
	_ = add.MarkFlagRequired("parent-email")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("age")

	cmd.AddCommand(add)
	return cmd
}

// NewPurchaseCommand records purchases made outside the app
func NewPurchaseCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "purchase", Short: "Manage purchases"}

	var parentEmail, plan, course string
	var amount int64
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Record a completed purchase for a parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := models.Plan(plan)
			var courseID *string
			switch p {
			case models.PlanFullAccess, models.PlanFamilyPlan:
			case models.PlanSingleCourse:
				if _, ok := catalog.Default().Course(course); !ok {
					return fmt.Errorf("unknown course %q", course)
				}
				courseID = &course
			default:
				return fmt.Errorf("unknown plan %q", plan)
			}

			store := repository.NewStore(opts.db)
			parent, err := lookupParent(cmd, store, parentEmail)
			if err != nil {
				return err
			}
			purchase, err := store.Purchases.CreatePurchase(cmd.Context(), parent.ID, p, courseID, amount, models.PurchaseCompleted)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "granted %s to %s (purchase %s)\n", purchase.Plan, parent.Email, purchase.ID)
			return nil
		},
	}
	grant.Flags().StringVar(&parentEmail, "parent-email", "", "parent email (required)")
	grant.Flags().StringVar(&plan, "plan", string(models.PlanFullAccess), "fullAccess|familyPlan|singleCourse")
	grant.Flags().StringVar(&course, "course", "", "course id for singleCourse")
	grant.Flags().Int64Var(&amount, "amount", 0, "amount in minor currency units")
	_ = grant.MarkFlagRequired("parent-email")

	cmd.AddCommand(grant)
	return cmd
}

// NewBackupCommand exports and imports the progress database
func NewBackupCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "backup", Short: "Export or import the database as JSON"}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			w := bufio.NewWriter(f)
			data, err := service.NewBackupService(opts.db).Export(cmd.Context(), w)
			if err == nil {
				err = w.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "exported %d parents and %d learners to %s\n", len(data.Parents), len(data.Learners), output)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default backup_YYYYMMDD_HHMMSS.json)")

	var input string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup, keeping existing rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open backup: %w", err)
			}
			defer f.Close()

			data, err := service.NewBackupService(opts.db).Import(cmd.Context(), bufio.NewReader(f))
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "imported %d parents and %d learners from %s\n", len(data.Parents), len(data.Learners), input)
			return nil
		},
	}
	imp.Flags().StringVarP(&input, "input", "i", "", "backup file (required)")
	_ = imp.MarkFlagRequired("input")

	cmd.AddCommand(export, imp)
	return cmd
}

// NewProgressCommand exposes per-learner progress records
func NewProgressCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "progress", Short: "Inspect learner progress"}

	var learnerID, output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export one learner's completions and awards as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return service.NewBackupService(opts.db).ExportLearner(cmd.Context(), learnerID, w)
		},
	}
	export.Flags().StringVar(&learnerID, "learner", "", "learner id (required)")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = export.MarkFlagRequired("learner")

	cmd.AddCommand(export)
	return cmd
}

func lookupParent(cmd *cobra.Command, store *repository.Store, email string) (*models.Parent, error) {
	parent, err := store.Parents.GetParentByEmail(cmd.Context(), strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("no parent with email %q", email)
	}
	return parent, nil
}
