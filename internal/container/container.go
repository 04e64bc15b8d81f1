package container

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"featurelab/adapters/excel"
	"featurelab/adapters/sqlstore"
	"featurelab/app"
	"featurelab/internal/config"
	"featurelab/internal/migration"
	"featurelab/internal/pipeline"
	"featurelab/internal/session"
	"featurelab/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.RunRepository

	// Workbench components
	Sessions  *session.Store
	Workbench *app.WorkbenchService

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		stop:   make(chan struct{}),
	}

	return c, nil
}

// Open connects to the configured run history database, migrates it and wires the
// workbench on top of it
func (c *Container) Open(ctx context.Context) error {
	db, err := sqlstore.Open(ctx, c.Config.Database.Driver(), c.Config.Database.DSN())
	if err != nil {
		return err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return err
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.RunRepo = sqlstore.NewRunRepository(c.DB)
	c.initWorkbench()

	log.Printf("Container initialized with %s run history", c.Config.Database.Driver())
	return nil
}

func (c *Container) initWorkbench() {
	ttl := time.Duration(c.Config.Pipeline.SessionTTLMinutes) * time.Minute
	c.Sessions = session.NewStore(ttl)

	reader := excel.DefaultReaderConfig()
	reader.MaxColumns = c.Config.Upload.MaxFeatures

	c.Workbench = app.NewWorkbenchService(c.Sessions, c.RunRepo, app.WorkbenchConfig{
		Options:           pipeline.OptionsFromConfig(c.Config.Pipeline),
		Reader:            reader,
		MaxFeatures:       c.Config.Upload.MaxFeatures,
		MaxConcurrentRuns: c.Config.Server.MaxConcurrentRuns,
	})
}

// StartJanitor expires idle sessions every interval until Shutdown
func (c *Container) StartJanitor(interval time.Duration) {
	if c.Workbench == nil || interval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				if n := c.Workbench.ExpireSessions(); n > 0 {
					log.Printf("Expired %d idle sessions", n)
				}
			}
		}
	}()
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stop) })

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
