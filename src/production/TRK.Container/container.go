package container

import (
	"context"
	"fmt"
	"sync"

	config "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Config"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Container manages dependencies and their lifecycle for the API service
type Container struct {
	config *config.Config
	logger *logger.Logger
	client *mongo.Client

	mu sync.Mutex
}

// IngestorContainer manages dependencies for the MQTT Ingestor service
type IngestorContainer struct {
	config *config.IngestorConfig
	logger *logger.Logger
}

// NewApiContainer creates a new container for the API service
func NewApiContainer() (*Container, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load API configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &Container{
		config: cfg,
		logger: log,
	}, nil
}

// NewIngestorContainer creates a new container for the MQTT Ingestor service
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestor configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &IngestorContainer{
		config: cfg,
		logger: log,
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetConfig returns the ingestor configuration
func (c *IngestorContainer) GetConfig() *config.IngestorConfig {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetLogger returns the logger
func (c *IngestorContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetMongoClient returns the document store client, connecting on
// first use.
func (c *Container) GetMongoClient(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.config.Mongo.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(c.config.Mongo.URI)
	clientOptions.SetServerSelectionTimeout(c.config.Mongo.ConnectTimeout)
	clientOptions.SetConnectTimeout(c.config.Mongo.ConnectTimeout)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	c.client = client
	return client, nil
}

// GetSourceCollection returns the sources collection
func (c *Container) GetSourceCollection(ctx context.Context) (*mongo.Collection, error) {
	client, err := c.GetMongoClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(c.config.Mongo.Database).Collection(c.config.Mongo.SourceCollection), nil
}

// GetLocationCollection returns the locations collection
func (c *Container) GetLocationCollection(ctx context.Context) (*mongo.Collection, error) {
	client, err := c.GetMongoClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(c.config.Mongo.Database).Collection(c.config.Mongo.LocationCollection), nil
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Disconnect(ctx); err != nil {
			c.logger.ErrorWithError(err, "Error disconnecting from MongoDB")
		}
		c.client = nil
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// Shutdown gracefully shuts down the ingestor container
func (c *IngestorContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down ingestor container...")
	return nil
}
