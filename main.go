package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sfkaos/zeke-site/config"
	"github.com/sfkaos/zeke-site/controllers"
	"github.com/sfkaos/zeke-site/middleware"
	"github.com/sfkaos/zeke-site/routes"
	"github.com/sfkaos/zeke-site/services"
	"github.com/sfkaos/zeke-site/views"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "zeke-site",
	Short:        "Zeke's activity log and learning journal, served from Notion.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var feedJournal bool

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Write the RSS feed to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, content, err := bootstrap(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer config.Logger.Sync()

		fc := controllers.NewFeedController(content, services.NewRenderer(nil, 0), conf.SiteURL)
		var (
			out      []byte
			complete bool
		)
		if feedJournal {
			out, complete, err = fc.BuildJournalFeed(cmd.Context())
		} else {
			out, complete, err = fc.BuildActivityFeed(cmd.Context())
		}
		if err != nil {
			return err
		}
		if !complete {
			config.Logger.Warnw("feed written without some Notion content", "journal", feedJournal)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding an optional .env file")
	feedCmd.Flags().BoolVar(&feedJournal, "journal", false, "write the journal feed instead of the activity feed")
	rootCmd.AddCommand(serveCmd, feedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, the logger and the content service.
func bootstrap(ctx context.Context, logToStderr bool) (config.Config, *services.ContentService, error) {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return conf, nil, fmt.Errorf("load config: %w", err)
	}

	if err := config.InitLogger(config.LogConfig{
		Dir:        conf.LogDir,
		Production: conf.IsProduction(),
		Stderr:     logToStderr,
	}); err != nil {
		return conf, nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := services.NewNotionClient(services.NotionConfig{
		APIKey:     conf.NotionAPIKey,
		Timeout:    conf.NotionTimeout(),
		MaxRetries: conf.NotionMaxRetries,
	})
	if err != nil {
		return conf, nil, fmt.Errorf("init notion client: %w", err)
	}

	content := services.NewContentService(client, services.ContentConfig{
		ActivityDatabaseID: conf.NotionDatabaseID,
		JournalDatabaseID:  conf.NotionJournalID,
		FetchConcurrency:   conf.JournalFetchConcurrency,
	})
	return conf, content, nil
}

func serve(ctx context.Context) error {
	conf, content, err := bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer config.Logger.Sync()

	shutdownTracing, err := config.InitTracing(ctx, conf)
	if err != nil {
		config.Logger.Warnw("tracing disabled", "error", err)
	}

	redisClient, err := config.InitRedis(ctx, conf)
	if err != nil {
		// The in-process cache takes over
		config.Logger.Warnw("redis unavailable, using in-process cache", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	renderer := services.NewRenderer(services.NewPageCache(redisClient, conf.CacheTTL()), conf.CacheTTL())

	templates, err := views.Load()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	middleware.SetupMiddleware(r, conf.OtelServiceName)
	routes.RegisterRoutes(r, content, renderer, templates, conf.SiteURL, conf.InternalAuthToken)

	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		config.Logger.Infow("server listening", "port", conf.ServerPort, "cacheTTL", conf.CacheTTL().String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for a signal or a listener failure
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	config.Logger.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.Logger.Errorw("server shutdown failed", "error", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			config.Logger.Warnw("tracing shutdown failed", "error", err)
		}
	}

	config.Logger.Infow("server stopped")
	return nil
}
