// Command cli is an operator tool for the review workflow store: it manages
// users, documents, and approval rules, and can run an assignment sweep,
// directly against the SQLite database.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docflow/internal/config"
	"docflow/internal/db"
	"docflow/internal/db/repository"
	"docflow/internal/domain"
	"docflow/internal/notify"
	"docflow/internal/service"
)

var dbPath string

func main() {
	root := &cobra.Command{
		Use:           "docflow",
		Short:         "Operator tool for the documentation review workflow store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath, "path to the SQLite database")

	root.AddCommand(usersCmd(), documentsCmd(), rulesCmd(), queueCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliEnv bundles the store handles and services the subcommands need.
type cliEnv struct {
	writeDB *sql.DB
	readDB  *sql.DB

	reviews   *service.ReviewService
	documents *service.DocumentService
	rules     *service.RuleService
	users     *service.UserService
}

func openEnv() (*cliEnv, func(), error) {
	writeDB, readDB, err := db.OpenSQLitePair(dbPath, 0)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(writeDB); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	documentRepo := repository.NewDocumentRepo(writeDB)
	reviewRepo := repository.NewReviewRepo(writeDB)
	ruleRepo := repository.NewRuleRepo(writeDB)
	userRepo := repository.NewUserRepo(writeDB)
	auditRepo := repository.NewAuditRepo(writeDB)
	metricRepo := repository.NewMetricRepo(writeDB)

	env := &cliEnv{
		writeDB: writeDB,
		readDB:  readDB,
		reviews: service.NewReviewService(
			writeDB, reviewRepo, repository.NewReviewRepo(readDB),
			documentRepo, ruleRepo, userRepo, auditRepo, metricRepo,
			notify.NopNotifier{}, service.Options{}, logger,
		),
		documents: service.NewDocumentService(documentRepo, auditRepo),
		rules:     service.NewRuleService(ruleRepo, auditRepo),
		users:     service.NewUserService(userRepo, auditRepo),
	}
	cleanup := func() {
		writeDB.Close()
		readDB.Close()
	}
	return env, cleanup, nil
}

// cliContext returns a context carrying a synthetic admin actor so that
// admin-gated service operations work from the operator tool.
func cliContext() context.Context {
	return domain.WithActor(context.Background(), domain.Actor{
		UserID: "cli",
		Name:   "cli",
		Role:   domain.RoleAdmin,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage users"}

	var email, role string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			user, err := env.users.Create(cliContext(), domain.CreateUserRequest{
				Name:  args[0],
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
	create.Flags().StringVar(&email, "email", "", "user email")
	create.Flags().StringVar(&role, "role", string(domain.RoleReviewer), "role: viewer, reviewer, lead_reviewer, admin")

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			users, _, err := env.users.List(cliContext(), domain.PageRequest{})
			if err != nil {
				return err
			}
			return printJSON(users)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "documents", Short: "Manage documents"}

	var docType, sourceRef string
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Register a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			doc, err := env.documents.Create(cliContext(), domain.CreateDocumentRequest{
				Title:     args[0],
				DocType:   docType,
				SourceRef: sourceRef,
			})
			if err != nil {
				return err
			}
			return printJSON(doc)
		},
	}
	create.Flags().StringVar(&docType, "type", "", "document type (required)")
	create.Flags().StringVar(&sourceRef, "source-ref", "", "external source reference")
	_ = create.MarkFlagRequired("type")

	list := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			docs, _, err := env.documents.List(cliContext(), domain.PageRequest{})
			if err != nil {
				return err
			}
			return printJSON(docs)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rules", Short: "Manage approval rules"}

	seed := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load approval rules from a YAML file (skips existing names)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			n, err := env.rules.SeedFromFile(cliContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created %d rule(s)\n", n)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List approval rules",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			rules, _, err := env.rules.List(cliContext(), domain.PageRequest{})
			if err != nil {
				return err
			}
			return printJSON(rules)
		},
	}

	cmd.AddCommand(seed, list)
	return cmd
}

func queueCmd() *cobra.Command {
	var reviewer string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the review queue (priority desc, oldest first)",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			filter := domain.ReviewQueueFilter{}
			if reviewer != "" {
				filter.ReviewerID = &reviewer
			}
			reviews, _, err := env.reviews.GetReviewQueue(cliContext(), filter)
			if err != nil {
				return err
			}
			return printJSON(reviews)
		},
	}
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "filter by reviewer ID")
	return cmd
}

func sweepCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Assign unowned pending reviews to the least-loaded reviewers",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()
			n, err := env.reviews.AssignPending(cliContext(), batch)
			if err != nil {
				return err
			}
			fmt.Printf("assigned %d review(s)\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "maximum reviews to assign")
	return cmd
}
