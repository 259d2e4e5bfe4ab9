package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
	interfaces "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Repository/Interfaces"
)

// sourcesLastSeenLimit caps how many valid fixes are attached per
// source on the aggregate listing.
const sourcesLastSeenLimit = 100

// SourceController handles source management requests
type SourceController struct {
	sourceRepo   interfaces.SourceRepository
	locationRepo interfaces.LocationRepository
	logger       *logger.Logger
}

// NewSourceController creates a new source controller
func NewSourceController(sourceRepo interfaces.SourceRepository, locationRepo interfaces.LocationRepository, logger *logger.Logger) *SourceController {
	return &SourceController{
		sourceRepo:   sourceRepo,
		locationRepo: locationRepo,
		logger:       logger,
	}
}

// RegisterRoutes registers the source routes with Gin
func (c *SourceController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/sources", c.ListSources)
		api.GET("/sources/locations/last_seen", c.ListSourcesWithLastSeen)
		api.PUT("/source/:id", c.UpdateSource)
	}
}

func (c *SourceController) ListSources(ctx *gin.Context) {
	sources, err := c.sourceRepo.ListSources(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, sources)
}

// ListSourcesWithLastSeen attaches each source's most recent valid
// fixes under a "locations" property.
func (c *SourceController) ListSourcesWithLastSeen(ctx *gin.Context) {
	sources, err := c.sourceRepo.ListSources(ctx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, source := range sources {
		locations, err := c.locationRepo.LastSeen(ctx, source.ID(), sourcesLastSeenLimit)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		source["locations"] = locations
	}

	ctx.JSON(http.StatusOK, sources)
}

func (c *SourceController) UpdateSource(ctx *gin.Context) {
	id := ctx.Param("id")

	var properties map[string]interface{}
	if err := ctx.ShouldBindJSON(&properties); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	source, err := c.sourceRepo.MergeSourceProperties(ctx, id, properties)
	if err != nil {
		if errors.Is(err, interfaces.ErrSourceNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, source)
}
