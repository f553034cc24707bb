package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"causelens/adapters/api"
	"causelens/adapters/chart"
	"causelens/adapters/excel"
	"causelens/adapters/postgres"
	"causelens/adapters/stats/rdfit"
	"causelens/app"
	"causelens/internal"
	httpapi "causelens/internal/api"
	"causelens/internal/config"
	"causelens/internal/errors"
	"causelens/internal/migration"
	"causelens/ports"
	"causelens/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB      *sqlx.DB
	Backend *api.BackendClient

	// Repositories (data access layer)
	DatasetRepo  ports.DatasetRepository
	EstimateRepo ports.EstimateRepository

	// Sources the plot service reads from
	Rows      ports.RowSource
	Estimates ports.EstimateSource

	// Plot pipeline
	Engine      *rdfit.Engine
	Tracker     *app.ChartTracker
	PlotService *app.RDPlotService

	// HTTP surfaces
	Events    *httpapi.SSEHub
	APIRouter *gin.Engine
	UIApp     *ui.App
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Init builds every component. A database is opened only when the row source
// or the estimate source needs one.
func (c *Container) Init(ctx context.Context) error {
	if c.needsDatabase() {
		db, err := OpenDatabase(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			return err
		}
	}
	return c.initServices()
}

// InitWithDatabase attaches an already open database and runs migrations
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.ConfigInvalid("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.DatasetRepo = postgres.NewDatasetRepository(db)
	c.EstimateRepo = postgres.NewEstimateRepository(db)
	return nil
}

func (c *Container) needsDatabase() bool {
	if c.DB != nil {
		return false
	}
	if c.Config.Data.Source == config.SourceDatabase {
		return true
	}
	// estimates fall back to the database when there is no backend
	return !c.Config.Backend.Enabled() && c.Config.Database.URL != ""
}

// initServices wires sources, the plot pipeline and both HTTP surfaces
func (c *Container) initServices() error {
	if c.Config.Backend.Enabled() {
		c.Backend = api.NewBackendClient(c.backendClientConfig())
	}

	rows, err := c.rowSource()
	if err != nil {
		return err
	}
	c.Rows = rows

	switch {
	case c.Backend != nil:
		c.Estimates = c.Backend
	case c.EstimateRepo != nil:
		c.Estimates = c.EstimateRepo
	}

	c.Engine = rdfit.NewEngine(nil)
	c.Tracker = app.NewChartTracker()
	c.PlotService = app.NewRDPlotService(c.Rows, c.Estimates, c.Engine, c.Tracker, app.RDPlotServiceConfig{
		RowLimit:     c.Config.Data.RowLimit,
		CurveSamples: c.Config.Data.CurveSamples,
	})

	c.Events = httpapi.NewSSEHub()
	c.PlotService.SetPublisher(c.Events)

	var lister httpapi.DatasetLister
	if c.DatasetRepo != nil {
		lister = c.DatasetRepo
	}
	c.APIRouter = httpapi.NewRouter(c.Config.Server.GinMode, httpapi.NewRDPlotHandler(c.PlotService, lister), c.Events)
	c.UIApp = ui.NewApp(c.PlotService, chart.NewEChartsRenderer(""), chart.NewPNGRenderer())

	internal.DefaultLogger.With("Container").Info("initialized: rows=%s estimates=%t", c.Config.Data.Source, c.Estimates != nil)
	return nil
}

func (c *Container) rowSource() (ports.RowSource, error) {
	switch c.Config.Data.Source {
	case config.SourceBackend:
		if c.Backend == nil {
			return nil, errors.ConfigInvalid("DATA_SOURCE=backend requires BACKEND_URL")
		}
		return c.Backend, nil
	case config.SourceFile:
		return excel.NewFileRowSource(c.Config.Data.Dir), nil
	case config.SourceDatabase:
		if c.DatasetRepo == nil {
			return nil, errors.ConfigInvalid("DATA_SOURCE=database requires a database")
		}
		return c.DatasetRepo, nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown data source %q", c.Config.Data.Source))
}

func (c *Container) backendClientConfig() api.ClientConfig {
	b := c.Config.Backend
	cfg := api.DefaultClientConfig()
	cfg.BaseURL = b.URL
	cfg.AuthMethod = b.AuthMethod
	cfg.AuthToken = b.Token
	cfg.Username = b.Username
	cfg.Password = b.Password
	if b.DataPath != "" {
		cfg.DataPath = b.DataPath
	}
	if b.Timeout > 0 {
		cfg.Timeout = b.Timeout
	}
	if b.RateLimit > 0 {
		cfg.RateLimit = b.RateLimit
	}
	return cfg
}

// APIServer returns the JSON API server bound to the configured port
func (c *Container) APIServer() *http.Server {
	return &http.Server{
		Addr:              ":" + c.Config.Server.Port,
		Handler:           c.APIRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// UIServer returns the chart UI server bound to the configured UI port
func (c *Container) UIServer() *http.Server {
	return &http.Server{
		Addr:              ":" + c.Config.Server.UIPort,
		Handler:           c.UIApp,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Events != nil {
		c.Events.Close()
	}
	if c.Backend != nil {
		c.Backend.Close()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.DatabaseError("failed to close database", err)
		}
	}
	return nil
}

// OpenDatabase connects to postgres or sqlite. An empty sqlite URL opens an
// in-memory database.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	url := cfg.URL
	switch driver {
	case "sqlite":
		if url == "" {
			url = ":memory:"
		}
	case "postgres":
		if url == "" {
			return nil, errors.ConfigInvalid("DATABASE_URL is required")
		}
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported DATABASE_DRIVER %q", driver))
	}

	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if driver == "sqlite" {
		// a single connection keeps an in-memory database alive and serializes writes
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
