package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"prop-sound/cmd"
	"prop-sound/internal/decoder"
	"prop-sound/internal/logging"
	"prop-sound/internal/procctl"
	"prop-sound/internal/protocol"
	"prop-sound/internal/server"
	"prop-sound/internal/sound"
	"prop-sound/pkg/deps"
)

// errInputClosed ends the errgroup when the stdin dispatcher returns
// normally, on EXIT or end of input.
var errInputClosed = errors.New("input closed")

func main() {
	// ─── Step 1: Parse configuration ───
	config, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		cmd.PrintUsageAndExit()
	}

	log := logging.New(config.LogLevel, config.LogPretty)
	mainLog := logging.Component(log, "main")

	// ─── Step 2: Decoder backends ───
	registry := decoder.DefaultRegistry()
	if config.Decoder != decoder.Auto {
		existing := registry.GetBackendByName(config.Decoder)
		switch {
		case existing == nil:
			// Unknown names are treated as an executable that takes the file last.
			registry.Register(decoder.NewExecBackend(config.Decoder, config.Decoder, config.DecoderArgs))
		case len(config.DecoderArgs) > 0:
			registry.Register(decoder.NewExecBackend(existing.Name(), existing.Binary(), config.DecoderArgs))
		}
	}

	// ─── Step 3: Check dependencies (non-fatal) ───
	binaries := registry.Binaries()
	if config.Decoder != decoder.Auto {
		binaries = []string{registry.GetBackendByName(config.Decoder).Binary()}
	}
	checker := deps.NewChecker(binaries...)
	available := checker.CheckAndLog(logging.Component(log, "deps")) == nil
	if config.Decoder == decoder.Auto {
		// Auto picks per file, so any installed backend can play something.
		available = len(checker.Available()) > 0
	}

	// ─── Step 4: Service ───
	ctl := procctl.New()
	spawner := decoder.NewSpawner(registry, config.Decoder, ctl)

	svcConfig := sound.DefaultConfig()
	svcConfig.GracePeriod = config.GracePeriod
	svc := sound.NewService(svcConfig, spawner, ctl, log)

	stdout := protocol.NewEmitter(os.Stdout)
	svc.SetDefaultNotifier(server.NewEventNotifier(stdout, logging.Component(log, "events")))

	if err := stdout.Emit(protocol.NewReadyEvent(spawner.Decoder(), available)); err != nil {
		mainLog.Error().Err(err).Msg("write ready event")
		os.Exit(1)
	}

	// ─── Step 5: Run channels ───
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dispatcher := server.NewDispatcher(svc, stdout, server.LegacyMessageID, log)
		if err := dispatcher.Run(gctx, os.Stdin); err != nil {
			return err
		}
		return errInputClosed
	})

	if config.SocketPath != "" {
		socketSrv := server.NewSocketServer(config.SocketPath, svc, log)
		if err := socketSrv.Start(gctx); err != nil {
			mainLog.Error().Err(err).Msg("socket server")
			os.Exit(1)
		}
		g.Go(func() error {
			<-gctx.Done()
			socketSrv.Stop()
			return nil
		})
	}

	if config.HTTPAddr != "" {
		runHTTP(gctx, g, config.HTTPAddr, server.SetupRouter(server.NewAPI(svc, stdout, log)), log)
	}

	mainLog.Info().
		Str("decoder", spawner.Decoder()).
		Dur("grace", config.GracePeriod).
		Msg("ready")

	// ─── Step 6: Wait for EXIT, end of input or a signal ───
	result := make(chan error, 1)
	go func() { result <- g.Wait() }()

	select {
	case <-ctx.Done():
		// In-flight decoders run in their own process groups and keep playing.
		mainLog.Info().Int("active", svc.Registry().Len()).Msg("signal received, exiting")
		os.Exit(0)
	case err := <-result:
		if err != nil && !errors.Is(err, errInputClosed) {
			mainLog.Error().Err(err).Msg("exiting")
			os.Exit(1)
		}
		mainLog.Info().Msg("exiting")
	}
}

// runHTTP serves the HTTP control surface until ctx is done.
func runHTTP(ctx context.Context, g *errgroup.Group, addr string, router *gin.Engine, log zerolog.Logger) {
	httpLog := logging.Component(log, "api")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		httpLog.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
