package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-formcollection/internal/server"
	"github.com/goliatone/go-formcollection/pkg/itemtemplate"
	"github.com/goliatone/go-formcollection/pkg/page"
)

var sampleItinerary = []map[string]string{
	{"title": "Arrivo a Roma", "description": "Check-in e passeggiata serale a Trastevere."},
	{"title": "Roma antica", "description": "Colosseo, Foro Romano e Palatino."},
}

func main() {
	var (
		addrFlag      = flag.String("addr", ":8384", "HTTP listen address")
		templatesFlag = flag.String("templates", "", "Directory of item template overrides")
		themeFlag     = flag.String("theme", "travel", "Theme name")
		variantFlag   = flag.String("variant", "", "Theme variant (e.g. dark)")
		seedFlag      = flag.Bool("seed", true, "Pre-fill the itinerary page with sample days")
		revisionFlag  = flag.Int("revision", 1, "Revision of the seeded itinerary, posted back as a hidden field")
		csrfFlag      = flag.String("csrf-field", "_csrf", "Form field carrying the CSRF token (empty disables the check)")
		trustFlag     = flag.Bool("trust-templates", false, "Render item template overrides without sanitizing them")
		verboseFlag   = flag.Bool("verbose", false, "Log debug output")
		shutdownGrace = flag.Duration("grace", 5*time.Second, "Shutdown grace period")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	templateOptions := []itemtemplate.Option{itemtemplate.WithTemplatesDir(*templatesFlag)}
	if *trustFlag {
		templateOptions = append(templateOptions, itemtemplate.WithSanitize(false))
	}
	items, err := itemtemplate.New(templateOptions...)
	if err != nil {
		logger.Error("item templates", "error", err)
		os.Exit(1)
	}

	selection, err := page.NewStaticSelector("travel", page.DefaultManifest()).Select(*themeFlag, *variantFlag)
	if err != nil {
		logger.Error("theme", "error", err)
		os.Exit(1)
	}

	renderer, err := page.New(
		page.WithLogger(logger),
		page.WithItemTemplates(items),
		page.WithThemeConfig(page.ThemeConfig(selection)),
		page.WithRuntimeURL("/runtime/formcollection.js"),
	)
	if err != nil {
		logger.Error("page renderer", "error", err)
		os.Exit(1)
	}

	options := []server.Option{
		server.WithLogger(logger),
		server.WithCSRFField(*csrfFlag),
	}
	if *seedFlag {
		options = append(options,
			server.WithSeed("itinerary", sampleItinerary),
			server.WithHiddenFields(page.VersionField("revision", *revisionFlag)),
		)
	}

	httpServer := &http.Server{
		Addr:              *addrFlag,
		Handler:           server.New(renderer, options...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("listening", "addr", *addrFlag, "theme", selection.Theme, "variant", selection.Variant)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		logger.Error("listen", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
