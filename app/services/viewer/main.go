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

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledgerview/app/services/viewer/handlers"
	"github.com/ardanlabs/ledgerview/business/core/dashboard"
	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/business/core/search"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/gateway"
	"github.com/ardanlabs/ledgerview/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("VIEWER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			UIHost          string        `conf:"default:0.0.0.0:3000"`
			CORSOrigin      string        `conf:"default:*"`
		}
		Gateway struct {
			URL     string        `conf:"default:http://localhost:8000"`
			Timeout time.Duration `conf:"default:10s"`
		}
		Poll struct {
			Interval time.Duration `conf:"default:5s"`
			Timeout  time.Duration `conf:"default:10s"`
		}
		Search struct {
			CacheSize int `conf:"default:4096"`
		}
		Views struct {
			Max         int           `conf:"default:10000"`
			IdleTimeout time.Duration `conf:"default:30m"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger viewer",
		},
	}

	const prefix = "VIEWER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Ledger Support

	gw := gateway.New(cfg.Gateway.URL, &http.Client{Timeout: cfg.Gateway.Timeout})

	// The business packages accept a function of this signature to allow the
	// application to log.
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
	}

	// The store polls the gateway for the chain and stats and holds the last
	// good snapshot of each for every view.
	store := query.New(query.Config{
		Interval:  cfg.Poll.Interval,
		Timeout:   cfg.Poll.Timeout,
		EvHandler: ev,
	})

	if err := query.RegisterLedger(store, gw); err != nil {
		return err
	}

	index, err := search.NewIndex(cfg.Search.CacheSize)
	if err != nil {
		return fmt.Errorf("constructing search index: %w", err)
	}

	registry := dashboard.NewRegistry(dashboard.Config{
		Store:       store,
		Gateway:     gw,
		Index:       index,
		MaxViews:    cfg.Views.Max,
		IdleTimeout: cfg.Views.IdleTimeout,
		EvHandler:   ev,
	})

	// Views that aren't looked up within the idle timeout are removed.
	registry.Start()
	defer registry.Shutdown()

	// Every applied fetch is sent to any websocket client that is connected
	// into the system through the events package.
	evts := events.New()
	updates := make(chan query.Update, 16)
	sub := store.Subscribe(updates)

	go func() {
		for {
			select {
			case upd := <-updates:
				msg := update{
					Key: string(upd.Key),
					At:  upd.At,
				}
				if upd.Err != nil {
					msg.Error = upd.Err.Error()
				}
				if err := evts.Publish(msg); err != nil {
					log.Errorw("events", "status", "publish", "ERROR", err)
				}

			case <-sub.Err():
				return
			}
		}
	}()

	if err := store.Start(context.Background()); err != nil {
		sub.Unsubscribe()
		return fmt.Errorf("starting store: %w", err)
	}

	// The subscription is dropped first so a poller blocked on sending
	// an update can finish.
	defer func() {
		sub.Unsubscribe()
		store.Shutdown()
	}()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, gw)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start UI Service

	log.Infow("startup", "status", "initializing V1 UI API support")

	uiMux := handlers.UIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Registry: registry,
		Evts:     evts,
		Origin:   cfg.Web.CORSOrigin,
	})

	ui := http.Server{
		Addr:         cfg.Web.UIHost,
		Handler:      uiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "ui api router started", "host", ui.Addr)
		serverErrors <- ui.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown ui API started")
		if err := ui.Shutdown(ctx); err != nil {
			ui.Close()
			return fmt.Errorf("could not stop ui service gracefully: %w", err)
		}
	}

	return nil
}

// update is the message sent to websocket clients when a query changes.
type update struct {
	Key   string    `json:"key"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}
