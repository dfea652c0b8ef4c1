package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/taskmanager/internal/auth"
	"github.com/ayush/taskmanager/internal/config"
	"github.com/ayush/taskmanager/internal/logging"
	"github.com/ayush/taskmanager/internal/middleware"
	"github.com/ayush/taskmanager/internal/server"
	"github.com/ayush/taskmanager/internal/store"
	"github.com/ayush/taskmanager/internal/tasks"
	"github.com/ayush/taskmanager/internal/timetable"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()
	root := &cobra.Command{
		Use:          "taskmanager",
		Short:        "Task manager and class timetable web server",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newUserCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.MongoURI == "" && cfg.PostgresDSN == "" {
				return errors.New("user create needs MONGO_URI or POSTGRES_DSN")
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			svc := auth.NewService(b.users, auth.NewMemorySessionStore(auth.SessionTTL), cfg.SessionSecret, log)
			user, err := svc.Register(ctx, username, password)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "account username")
	create.Flags().StringVar(&password, "password", "", "account password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	userCmd.AddCommand(create)
	return userCmd
}

// backends are the stores selected by the configuration.
type backends struct {
	tasks    tasks.Store
	classes  timetable.Store
	users    auth.UserStore
	sessions auth.SessionStore
	files    auth.FileStore
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	b := &backends{}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	// ── MongoDB ──────────────────────────────────────────────
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fail(fmt.Errorf("mongo connect: %w", err))
		}
		b.closers = append(b.closers, func() { mongoClient.Disconnect(context.Background()) })
		if err := mongoClient.Ping(ctx, nil); err != nil {
			return fail(fmt.Errorf("mongo ping: %w", err))
		}
		db := mongoClient.Database(cfg.MongoDB)
		if err := store.EnsureIndexes(ctx, db); err != nil {
			return fail(fmt.Errorf("mongo indexes: %w", err))
		}
		b.tasks = store.NewMongoTaskStore(db)
		b.classes = store.NewMongoClassStore(db)
		b.users = store.NewMongoUserStore(db)
		log.Info("using mongodb", zap.String("database", cfg.MongoDB))
	} else {
		b.tasks = store.NewMemoryTaskStore()
		b.classes = store.NewMemoryClassStore()
		b.users = store.NewMemoryUserStore()
		log.Warn("MONGO_URI not set, data is kept in memory")
	}

	// ── PostgreSQL ───────────────────────────────────────────
	if cfg.PostgresDSN != "" {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("postgres connect: %w", err))
		}
		b.closers = append(b.closers, pgPool.Close)
		pgStore := store.NewPostgresUserStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			return fail(fmt.Errorf("postgres migrate: %w", err))
		}
		b.users = pgStore
		log.Info("using postgres for accounts")
	}

	// ── Redis ────────────────────────────────────────────────
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, func() { rdb.Close() })
		b.sessions = auth.NewRedisSessionStore(rdb)
	} else {
		b.sessions = auth.NewMemorySessionStore(auth.SessionTTL)
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	// ── MinIO ────────────────────────────────────────────────
	if cfg.MinioEndpoint != "" {
		pictures, err := store.NewMinioPictureStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			return fail(err)
		}
		b.files = pictures
	}

	return b, nil
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	var authOpts []auth.Option
	if b.files != nil {
		authOpts = append(authOpts, auth.WithFileStore(b.files))
	}

	handler, err := server.NewRouter(server.Deps{
		Log:          log,
		Auth:         auth.NewService(b.users, b.sessions, cfg.SessionSecret, log, authOpts...),
		Tasks:        tasks.NewService(b.tasks),
		Timetable:    timetable.NewService(b.classes),
		Metrics:      middleware.NewMetrics(),
		CORSOrigins:  cfg.CORSOrigins,
		SecureCookie: cfg.CookieSecure,
	})
	if err != nil {
		return err
	}

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
