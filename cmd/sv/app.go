package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/matsen/surveyor/internal/bibliography"
	"github.com/matsen/surveyor/internal/clipboard"
	"github.com/matsen/surveyor/internal/config"
	"github.com/matsen/surveyor/internal/console"
	"github.com/matsen/surveyor/internal/logging"
	"github.com/matsen/surveyor/internal/pdf"
	"github.com/matsen/surveyor/internal/session"
	"github.com/matsen/surveyor/internal/storage"
	"github.com/matsen/surveyor/internal/style"
	"github.com/matsen/surveyor/internal/watch"
)

// app holds everything a console needs, built from the resolved config.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	sess    *session.Session
	index   *storage.DB
	locator *pdf.Locator
	watcher *watch.Watcher
	console *console.Console
	cancel  context.CancelFunc
}

// resolveConfig merges the config file, SURVEYOR_* variables and flags,
// in increasing precedence.
func resolveConfig() (*config.Config, error) {
	loaded, err := config.Load()
	if err != nil {
		return nil, err
	}

	cfg := *loaded
	cfg.ApplyEnv()
	if flagBib != "" {
		cfg.BibPath = config.ExpandPath(flagBib)
	}
	if flagTopics != "" {
		cfg.TopicsPath = config.ExpandPath(flagTopics)
	}
	if flagPDFRoot != "" {
		cfg.PDFRoot = config.ExpandPath(flagPDFRoot)
	}
	if flagStyle != "" {
		cfg.Style = flagStyle
	}

	resolved := cfg.WithDefaults()
	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// mustOpenApp loads the session and its collaborators, exiting with
// ExitConfigError when the sources are missing. The file watcher only
// runs for interactive sessions.
func mustOpenApp(interactive bool) *app {
	cfg, err := resolveConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	log, err := logging.New(logging.Options{File: cfg.LogFile, Verbose: verbose})
	if err != nil {
		// Still log to the console
		log, _ = logging.New(logging.Options{Verbose: verbose})
		log.Warn("log file unavailable", zap.String("path", cfg.LogFile), zap.Error(err))
	}

	a := &app{cfg: cfg, log: log}

	markers, _ := bibliography.ParseStyle(cfg.Style) // checked by Validate
	src := session.Sources{BibPath: cfg.BibPath, TopicsDir: cfg.TopicsPath}
	a.sess, err = session.Load(src, style.Unsrt{}, log)
	if err != nil {
		a.fatal(err)
	}

	opts := console.Options{
		Style:  markers,
		Opener: pdf.NewOpener(cfg.PDFReader),
		Logger: log,
		Reload: a.reload,
	}

	if cb := clipboard.New(); cb.Available() {
		opts.Clipboard = cb
	}

	if cfg.PDFRoot != "" {
		a.locator = pdf.NewLocator(cfg.PDFRoot, log)
		opts.Locator = a.locator
	}

	if a.index, err = a.openIndex(); err != nil {
		log.Warn("search index unavailable", zap.Error(err))
	} else {
		opts.Index = a.index
	}

	if interactive && cfg.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		w, err := watch.New(ctx, log, cfg.BibPath, cfg.TopicsPath)
		if err != nil {
			log.Warn("file watcher unavailable", zap.Error(err))
		} else {
			a.watcher = w
			opts.Watcher = w
		}
	}

	a.console = console.New(a.sess, opts)
	return a
}

// openIndex opens the configured search index and fills it from the session.
func (a *app) openIndex() (*storage.DB, error) {
	db, err := storage.OpenDB(a.cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	n, err := db.Rebuild(a.sess.References())
	if err != nil {
		db.Close()
		return nil, err
	}
	a.log.Debug("search index built", zap.String("path", a.cfg.IndexPath), zap.Int("references", n))
	return db, nil
}

// reload re-reads the sources and refreshes the search index and PDF lookup.
func (a *app) reload(s *session.Session) (*session.Session, error) {
	fresh, err := s.Reload(style.Unsrt{}, a.log)
	if err != nil {
		return nil, err
	}
	a.sess = fresh
	if a.index != nil {
		if _, err := a.index.Rebuild(fresh.References()); err != nil {
			a.log.Warn("rebuilding search index", zap.Error(err))
		}
	}
	if a.locator != nil {
		a.locator.Reset()
	}
	return fresh, nil
}

// fatal logs err and exits. Configuration failures use ExitConfigError.
func (a *app) fatal(err error) {
	a.log.Error("fatal", zap.Error(err))
	a.Close()

	code := ExitError
	if console.IsFatal(err) {
		code = ExitConfigError
	}
	exitWithError(code, "%v", err)
}

// Close releases the watcher, index and logger.
func (a *app) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.index != nil {
		a.index.Close()
	}
	_ = a.log.Sync()
}
