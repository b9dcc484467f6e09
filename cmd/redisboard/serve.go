package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/faciam-dev/redisboard/internal/api/handler"
	"github.com/faciam-dev/redisboard/internal/audit"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/config"
	"github.com/faciam-dev/redisboard/internal/inspect"
	"github.com/faciam-dev/redisboard/internal/logger"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/poller"
	"github.com/faciam-dev/redisboard/internal/redisconn"
	"github.com/faciam-dev/redisboard/internal/server"
	"github.com/faciam-dev/redisboard/internal/servers"
	"github.com/faciam-dev/redisboard/internal/web"
	"github.com/faciam-dev/redisboard/pkg/crypto"
	"github.com/faciam-dev/redisboard/pkg/util"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web panel and JSON API",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.String("db-driver", "", "registry database driver (detected from the DSN when empty)")
	f.String("db-dsn", "file:redisboard.db?_busy_timeout=5000", "registry database DSN")
	f.String("table-prefix", "rb_", "registry table prefix")
	f.Int64("scan-threshold", inspect.DefaultThreshold, "total key count from which databases are only summarized")
	f.Int64("value-page-size", inspect.DefaultValuePageSize, "list elements per page when no count is given")
	f.Int64("slowlog-size", inspect.DefaultSlowlogSize, "slow log entries shown per server (0 disables)")
	f.String("jwt-secret", "", "HS256 secret used to validate bearer tokens")
	f.String("anonymous-user", "", "user assumed for requests without a token")
	f.String("policy-file", "", "YAML or JSON permission policy, reloaded on change")
	f.String("allowed-origins", "http://localhost:5173", "comma separated CORS origins")
	f.String("enc-key", "", "AES key (16, 24 or 32 bytes) sealing stored passwords")
	f.Duration("poll-interval", 0, "interval of the background stats poller (0 disables)")
	f.Duration("dial-timeout", 3*time.Second, "store dial timeout")
	f.Duration("read-timeout", 5*time.Second, "store read and write timeout")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger.Set(logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel))

	zl, err := newZap(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	driver, err := resolveDriver(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, util.DriverDSN(driver, cfg.DBDSN))
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()

	cipher, err := crypto.New(cfg.EncKey)
	if errors.Is(err, crypto.ErrNoKey) {
		logger.L.Warn("enc-key not set; servers with a password cannot be stored")
	} else if err != nil {
		return fmt.Errorf("enc-key: %w", err)
	}

	repo := &servers.Repo{DB: db, Driver: driver, TablePrefix: cfg.TablePrefix, Cipher: cipher}
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate servers: %w", err)
	}
	rec := &audit.Recorder{DB: db, Driver: driver, TablePrefix: cfg.TablePrefix}
	if err := rec.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate audit log: %w", err)
	}

	gate, err := openGate(ctx, cfg.PolicyFile)
	if err != nil {
		return err
	}

	provider := &redisconn.Provider{DialTimeout: cfg.DialTimeout, ReadTimeout: cfg.ReadTimeout}
	svc := &inspect.Service{
		Threshold:     cfg.ScanThreshold,
		ValuePageSize: cfg.ValuePageSize,
		SlowlogSize:   slowlogSize(cfg.SlowlogSize),
		Logger:        zl.Sugar(),
	}

	var jwtv *auth.JWT
	if cfg.JWTSecret != "" {
		jwtv = auth.NewJWT(cfg.JWTSecret, 0)
	}

	rd, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}

	h, _ := server.New(server.Deps{
		Servers:        repo,
		Recorder:       rec,
		Gate:           gate,
		Open:           handler.Dial(provider),
		Inspect:        svc,
		JWT:            jwtv,
		AnonymousUser:  cfg.AnonymousUser,
		AllowedOrigins: cfg.AllowedOrigins,
		Renderer:       rd,
	})

	if cfg.PollInterval > 0 {
		p := &poller.Poller{Servers: repo, Provider: provider, Inspect: svc, Logger: logger.L}
		s, err := p.Start(cfg.PollInterval)
		if err != nil {
			return fmt.Errorf("schedule poller: %w", err)
		}
		defer s.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.L.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.L.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// resolveDriver returns the configured driver, or the one implied by the
// DSN. An explicit driver that disagrees with the DSN scheme is an error.
func resolveDriver(driver, dsn string) (string, error) {
	detected, err := util.DetectDriver(dsn)
	switch {
	case driver == "" && err != nil:
		return "", fmt.Errorf("detect driver: %w", err)
	case driver == "":
		return detected, nil
	case err == nil && detected != driver:
		return "", fmt.Errorf("driver mismatch: %s given, dsn is %s", driver, detected)
	}
	return driver, nil
}

func openGate(ctx context.Context, path string) (*permission.Gate, error) {
	if path == "" {
		logger.L.Warn("policy-file not set; every identified user may manage and inspect all servers")
		return permission.Open(), nil
	}
	gate, err := permission.LoadFile(path, logger.L)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if err := gate.Watch(ctx); err != nil {
		return nil, fmt.Errorf("policy watch: %w", err)
	}
	return gate, nil
}

// slowlogSize maps the configured size to the service's convention where a
// negative size turns the slow log off.
func slowlogSize(n int64) int64 {
	if n == 0 {
		return -1
	}
	return n
}

func newZap(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
