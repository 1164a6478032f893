package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/config"
	"github.com/pr2ps/levelimporter/internal/database"
	http_controllers "github.com/pr2ps/levelimporter/internal/http"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
	"github.com/pr2ps/levelimporter/internal/services"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// NewImportService wires the remote client, the pipeline and the service from
// configuration. No store is attached yet.
func NewImportService(cfg *config.Config) *services.ImportService {
	client := pr2.NewClient(cfg.Remote.BaseURL,
		pr2.WithTimeout(cfg.Remote.Timeout),
		pr2.WithUserAgent(cfg.Remote.UserAgent),
	)

	resolver := importers.NewSourceResolver(client, cfg.Import.MaxFileSize)
	pipeline := importers.NewPipeline(resolver, importers.NewLevelConverter(),
		importers.WithWorkers(cfg.Import.Workers),
		importers.WithItemTimeout(cfg.Import.ItemTimeout),
	)

	return services.NewImportService(pipeline, pr2.NewSearcher(client), cfg.Import.BatchSize)
}

// AttachConfigured attaches the stores named in the configuration that exist
// on disk. Missing files are left for the operator to attach later.
func AttachConfigured(service *services.ImportService, cfg *config.Config) {
	stores := []struct {
		kind database.Kind
		path string
	}{
		{database.KindMain, cfg.Database.MainPath},
		{database.KindLevels, cfg.Database.LevelsPath},
	}

	for _, st := range stores {
		if st.path == "" {
			continue
		}
		if _, err := os.Stat(st.path); err != nil {
			log.Printf("%s database %s not found, attach it through the API", st.kind, st.path)
			continue
		}
		if err := service.AttachStore(st.kind, st.path); err != nil {
			log.Printf("WARNING: could not attach %s database: %v", st.kind, err)
		}
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, plain kill sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	// Stores are closed after in-flight requests are done
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	service := NewImportService(cfg)
	AttachConfigured(service, cfg)

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		ImportService: service,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		if service.Status().Running {
			log.Printf("Waiting for the import run in progress to finish")
		}
		if err := service.WaitForRun(ctx); err != nil {
			log.Printf("WARNING: import run did not finish before shutdown: %v", err)
		}
		service.Close()
	}

	Serve(router, cfg, onShutdown)
}
