package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskhub/internal/app"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/models"
)

// @title                       TaskHub API
// @version                     1.0
// @description                 Multi-user task tracking with role-based access.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

var rootCmd = &cobra.Command{
	Use:           "taskhub",
	Short:         "TaskHub API server and maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "path to the yaml config")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(statsCmd())
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(cmd.Context(), db)
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator account if the email is free",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				user, created, err := a.Users.EnsureAdmin(ctx, email, password)
				if err != nil {
					return err
				}
				if !created {
					fmt.Printf("account %s already exists (id=%d)\n", user.Email, user.ID)
					return nil
				}
				return printJSONOrTable(user)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func usersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Manage accounts"}
	users.AddCommand(usersListCmd())
	users.AddCommand(usersPurgeCmd())
	return users
}

func usersListCmd() *cobra.Command {
	var f models.UserFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				page, err := a.Users.List(ctx, app.Operator, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(page)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Email", "Name", "Role", "Active", "Created"})
				for _, u := range page.Users {
					tw.AppendRow(table.Row{u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02")})
				}
				tw.AppendFooter(table.Row{"", "", "", "", "total", page.Pagination.Total})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Search, "search", "", "match on name or email")
	cmd.Flags().IntVar(&f.Page, "page", 1, "page")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "page size")
	return cmd
}

func usersPurgeCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete an account and everything it owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return fmt.Errorf("--id required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Users.HardDelete(ctx, id); err != nil {
					return err
				}
				fmt.Printf("account %d purged\n", id)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "account id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func statsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print task statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				var scope *int64
				if userID > 0 {
					scope = &userID
				}
				stats, err := a.Tasks.Statistics(ctx, scope)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Group", "Value", "Count"})
				for _, s := range stats.Status {
					tw.AppendRow(table.Row{"status", s.Status, s.Count})
				}
				for _, p := range stats.Priority {
					tw.AppendRow(table.Row{"priority", p.Priority, p.Count})
				}
				tw.AppendRow(table.Row{"overdue", "", stats.Overdue})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "limit to tasks created by or assigned to this account")
	return cmd
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
