package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/motelhub/directory/internal/adapters/imagehost"
	"github.com/motelhub/directory/internal/adapters/repository"
	"github.com/motelhub/directory/internal/adapters/sanitize"
	"github.com/motelhub/directory/internal/application/services"
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/database"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/infrastructure/server"
	"github.com/motelhub/directory/internal/ports"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MotelHub API server",
		Long:  "Start the MotelHub API server with the configured store, image host, routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewUserCommand creates the user management command. It works on the
// configured store directly, so the server does not need to be running.
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create, list and recover administrator accounts in the configured store",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			if username == "" {
				return errors.New("--username is required")
			}
			if name == "" {
				name = username
			}
			if password == "" {
				var err error
				if password, err = readPassword("Password: "); err != nil {
					return err
				}
			}
			return withUserService(cmd.Context(), func(users *services.UserService) error {
				user, err := users.CreateUser(cmd.Context(), ports.CreateUserRequest{Username: username, Password: password, Name: name})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User created successfully:\n  ID: %d\n  Username: %s\n  Name: %s\n", user.ID, user.Username, user.Name)
				return nil
			})
		},
	}
	createUserCmd.Flags().String("username", "", "Login name (required)")
	createUserCmd.Flags().String("name", "", "Display name, defaults to the username")
	createUserCmd.Flags().String("password", "", "Password, prompted for when omitted")

	listUsersCmd := &cobra.Command{
		Use:   "list",
		Short: "List administrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd.Context(), func(users *services.UserService) error {
				list, err := users.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tNAME")
				for _, u := range list {
					fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.Name)
				}
				return w.Flush()
			})
		},
	}

	resetAdminCmd := &cobra.Command{
		Use:   "reset-admin",
		Short: "Restore the default administrator credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd.Context(), func(users *services.UserService) error {
				user, err := users.ResetAdmin(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default administrator %q restored\n", user.Username)
				return nil
			})
		},
	}

	userCmd.AddCommand(createUserCmd, listUsersCmd, resetAdminCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print MotelHub version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MotelHub %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", Commit)
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.App.Version == "" || cfg.App.Version == "1.0.0" {
		cfg.App.Version = Version
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ids := idgen.New()
	db, err := database.New(ctx, cfg.Storage, appLogger, repository.WithIDGenerator(ids), repository.WithMetrics(registry))
	if err != nil {
		return err
	}
	defer db.Close(context.Background())
	if err := db.HealthCheck(ctx); err != nil {
		return err
	}

	host, err := newImageHost(ctx, cfg, appLogger)
	if err != nil {
		return err
	}

	svc := newServices(cfg, db, ids, host, appLogger)
	if _, err := svc.Auth.Check(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap administrator: %w", err)
	}

	srv, err := server.New(cfg, db, svc, registry, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting MotelHub API server",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"storage", db.Driver(),
		"auth_enforced", cfg.Auth.Enforce,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLogger.Infow("Server stopped")
	return nil
}

func newImageHost(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.ImageHost, error) {
	if !cfg.Images.Configured() {
		log.Warnw("Image host credentials missing, uploads are disabled")
		return imagehost.Unconfigured{}, nil
	}
	host, err := imagehost.NewS3Host(ctx, cfg.Images, log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure image host: %w", err)
	}
	return host, nil
}

func newServices(cfg *config.Config, store ports.Store, ids *idgen.Generator, host ports.ImageHost, log *logger.Logger) server.Services {
	admin := defaultAdmin(cfg)
	return server.Services{
		Venues:   services.NewVenueService(store.Venues(), ids, sanitize.NewRichText(), log),
		Settings: services.NewSettingsService(store.Settings(), log),
		Users:    services.NewUserService(store.Users(), admin, log),
		Auth:     services.NewAuthService(store.Users(), cfg.JWT, admin, log),
		Images: services.NewImageService(host, services.ImageLimits{
			MaxSingleSize: cfg.Images.MaxSingleSize,
			MaxBatchSize:  cfg.Images.MaxBatchSize,
			MaxFiles:      cfg.Images.MaxFiles,
			MaxWidth:      cfg.Images.MaxWidth,
		}, log),
		Transfer: services.NewTransferService(store.Venues(), log),
	}
}

func defaultAdmin(cfg *config.Config) services.DefaultAdmin {
	return services.DefaultAdmin{
		Username: cfg.Auth.DefaultUsername,
		Password: cfg.Auth.DefaultPassword,
		Name:     cfg.Auth.DefaultName,
	}
}

func withUserService(ctx context.Context, fn func(users *services.UserService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(config.LoggerConfig{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := database.New(ctx, cfg.Storage, appLogger)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	return fn(services.NewUserService(db.Users(), defaultAdmin(cfg), appLogger))
}

// readPassword prompts on the terminal without echo. Piped input is read as
// a single line.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
