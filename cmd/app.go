package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/resonman/ai-102-prep/internal/config"
	"github.com/resonman/ai-102-prep/internal/evaluate"
	"github.com/resonman/ai-102-prep/internal/events"
	"github.com/resonman/ai-102-prep/internal/logging"
	"github.com/resonman/ai-102-prep/internal/progress"
	"github.com/resonman/ai-102-prep/internal/question"
	"github.com/resonman/ai-102-prep/internal/redisstore"
	"github.com/resonman/ai-102-prep/internal/selector"
	"github.com/resonman/ai-102-prep/internal/session"
	"github.com/resonman/ai-102-prep/internal/store"
)

// closeTimeout bounds how long shutdown waits for queued progress writes.
const closeTimeout = 15 * time.Second

// app bundles what the study commands share: configuration, the question
// pool, the progress store and the event bus.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	pool     *question.Pool
	db       *store.Store
	redis    *redis.Client
	progress *progress.Store
	bus      *events.Bus

	out io.Writer
	in  *bufio.Scanner
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("pool"); v != "" {
		cfg.PoolPath = v
	}
	if v, _ := cmd.Flags().GetString("learner"); v != "" {
		cfg.LearnerID = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openApp wires the backends selected by configuration. The caller must
// call close.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Production()),
		out:    cmd.OutOrStdout(),
		in:     bufio.NewScanner(cmd.InOrStdin()),
	}

	pool, rejected, err := question.LoadFile(cfg.PoolPath)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	if len(rejected) > 0 {
		a.logger.Warn("skipped invalid questions", "count", len(rejected), "hint", "run `ai102 validate` for details")
	}
	a.pool = pool

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	a.db, err = store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	durable, err := a.durable(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.progress = progress.NewStore(durable, cfg.LearnerID, progress.Options{
		Logger: a.logger,
		Write:  cfg.Write(),
	})
	if err := a.progress.Load(ctx); err != nil {
		// The store keeps working from defaults; later writes still go out.
		a.logger.Warn("progress unavailable, starting fresh", "error", err)
	}

	a.bus, err = events.Open(ctx, cfg.Events.Bus(), a.db.EventRepo(), a.logger)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("open event bus: %w", err)
	}

	a.logger.Debug("app ready", "learner_id", cfg.LearnerID, "store", cfg.Store, "questions", pool.Len())
	return a, nil
}

func (a *app) durable(ctx context.Context) (progress.Durable, error) {
	switch a.cfg.Store {
	case config.StoreRedis:
		client, err := redisstore.NewClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisstore.New(client, redisstore.DefaultPrefix), nil
	case config.StoreMemory:
		return progress.NewMemoryDurable(), nil
	default:
		return a.db.ProgressRepo(), nil
	}
}

// sessionOptions builds controller options from configuration.
func (a *app) sessionOptions(sel *selector.Selector) (session.Options, error) {
	policy, err := a.cfg.Simulation()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Progress:         a.progress,
		Evaluator:        evaluate.New(policy),
		Selector:         sel,
		Events:           a.bus,
		Logger:           a.logger,
		RandomizeOptions: a.cfg.RandomizeOptions,
	}, nil
}

// close flushes queued progress writes and releases every backend.
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	var errs []error
	if a.progress != nil {
		if err := a.progress.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush progress: %w", err))
		}
	}
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// readLine prints label and reads one line. ok is false once input ends.
func (a *app) readLine(label string) (line string, ok bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		fmt.Fprintln(a.out)
		return "", false
	}
	return a.in.Text(), true
}
