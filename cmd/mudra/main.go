package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/display"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/input/robot"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fail(err)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Tray {
		if err := run(ctx, cfg, logger, nil); err != nil {
			stop()
			fail(err)
		}
		return
	}

	// The tray owns the main thread, so the loop runs beside it and the
	// preview window, which needs the main thread too, is not available.
	if cfg.Display == config.DisplayWindow {
		logger.Warn("preview window is not available with the tray, running headless")
		cfg.Display = config.DisplayHeadless
	}

	ctx, cancel := context.WithCancel(ctx)
	t := tray.New()
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logger, t)
		t.Quit()
	}()
	t.Run()

	cancel()
	if err := <-errCh; err != nil {
		stop()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
	os.Exit(1)
}

// run wires the components from cfg and blocks in the detection loop.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, t *tray.Tray) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	templates, err := loadTemplates(repo, logger)
	if err != nil {
		return err
	}
	mappingRec, err := loadMapping(repo, logger)
	if err != nil {
		return err
	}
	mapping := action.NewMapping(mappingRec.Mapping, mappingRec.Types)
	if invalid := mapping.InvalidModes(); len(invalid) > 0 {
		logger.Warn("unknown key modes, using tap", "gestures", invalid)
	}

	dispatcher, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}

	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", app.ErrAcquisition, err)
	}
	source := capture.NewSource(capture.NewCamera(cfg.CameraID), det, cfg.Mirror)

	var disp display.Display = display.Headless{}
	if cfg.Display == config.DisplayWindow {
		disp = display.NewWindow("Mudra", cfg.PointerHand)
	}

	var hub *server.EventHub
	if cfg.StatusAddr != "" {
		hub = server.NewEventHub(logger)
	}

	a, err := app.New(app.Config{
		Source:           source,
		Display:          disp,
		Dispatcher:       dispatcher,
		Templates:        templates,
		Mapping:          mapping,
		MatchThreshold:   cfg.MatchThreshold,
		HistorySize:      cfg.HistorySize,
		ConfirmThreshold: cfg.ConfirmThreshold,
		TapCooldown:      cfg.TapCooldown,
		SwipeThreshold:   cfg.SwipeThreshold,
		GestureHand:      cfg.GestureHand,
		PointerHand:      cfg.PointerHand,
		Logger:           logger,
		OnAction: func(ev action.Event) {
			if hub != nil {
				hub.Publish("action", ev)
			}
		},
		OnGesture: func(name string) {
			if t != nil && name != gesture.NoMatch {
				t.SetLastGesture(name)
			}
			if hub != nil {
				hub.Publish("gesture", map[string]string{"name": name, "hand": cfg.GestureHand})
			}
		},
	})
	if err != nil {
		return err
	}

	if t != nil {
		t.OnToggle(a.SetEnabled)
	}

	if hub != nil {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		srv := server.New(server.Config{
			Templates:       templates,
			Mappings:        repo,
			Mapping:         mappingRec,
			OnMappingChange: a.ReloadMapping,
			Events:          hub,
			Logger:          logger,
		})
		go func() {
			if err := srv.Run(srvCtx, cfg.StatusAddr); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
	}

	return a.Run(ctx)
}

// openRepository opens the configured storage. A new SQLite database is
// seeded from the JSON files if they exist.
func openRepository(cfg *config.Config, logger *slog.Logger) (store.Repository, func(), error) {
	files := store.NewFiles(cfg.GesturesFile, cfg.MappingFile)
	if cfg.Storage == config.StorageJSON {
		return files, func() {}, nil
	}

	s, err := store.New(cfg.DBFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	closeStore := func() {
		if err := s.Close(); err != nil {
			logger.Warn("close database failed", "error", err)
		}
	}

	empty, err := s.IsEmpty()
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	if empty {
		if err := importFiles(s, files, logger); err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	return s, closeStore, nil
}

func importFiles(s *store.Store, files *store.Files, logger *slog.Logger) error {
	records, err := files.LoadGestures()
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		n, err := s.ImportGestures(records)
		if err != nil {
			return fmt.Errorf("import gestures: %w", err)
		}
		logger.Info("imported gestures", "count", n, "from", files.GesturesPath)
	}

	rec, err := files.LoadMapping()
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := s.SaveMapping(rec); err != nil {
			return fmt.Errorf("import mapping: %w", err)
		}
		logger.Info("imported mapping", "bindings", len(rec.Mapping), "from", files.MappingPath)
	}
	return nil
}

func loadTemplates(repo store.Repository, logger *slog.Logger) ([]gesture.Template, error) {
	records, err := repo.LoadGestures()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load gestures: %w", err)
	}
	if len(records) == 0 {
		logger.Warn("no gesture templates found, nothing will be matched")
	}

	templates := make([]gesture.Template, 0, len(records))
	for _, r := range records {
		templates = append(templates, gesture.Template{Name: r.Name, Pose: r.Pose()})
	}
	logger.Info("loaded gestures", "count", len(templates))
	return templates, nil
}

func loadMapping(repo store.Repository, logger *slog.Logger) (store.MappingRecord, error) {
	rec, err := repo.LoadMapping()
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("no key mapping found, gestures will not press keys")
		return store.NewMappingRecord(), nil
	}
	if err != nil {
		return store.MappingRecord{}, fmt.Errorf("load mapping: %w", err)
	}
	return rec, nil
}

func newDispatcher(cfg *config.Config, logger *slog.Logger) (input.Dispatcher, error) {
	switch cfg.Dispatch {
	case config.DispatchPlugin:
		mgr := plugin.NewManager(cfg.PluginDir, logger)
		if err := mgr.Discover(); err != nil {
			return nil, fmt.Errorf("discover plugins: %w", err)
		}
		p, err := mgr.Get(cfg.PluginName)
		if err != nil {
			return nil, err
		}
		return plugin.NewDispatcher(plugin.NewExecutor(cfg.PluginTimeout), p, logger), nil
	case config.DispatchLog:
		return input.NewLogDispatcher(logger), nil
	default:
		return robot.New(), nil
	}
}
