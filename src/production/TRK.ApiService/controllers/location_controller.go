package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Logger"
	trkmodels "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Models"
	interfaces "gitlab.com/geotrk1/trk.location_server/src/production/TRK.Repository/Interfaces"
)

// LocationController handles location ingestion and query requests
type LocationController struct {
	sourceRepo   interfaces.SourceRepository
	locationRepo interfaces.LocationRepository
	logger       *logger.Logger
	retention    time.Duration
}

// NewLocationController creates a new location controller
func NewLocationController(sourceRepo interfaces.SourceRepository, locationRepo interfaces.LocationRepository, logger *logger.Logger, retention time.Duration) *LocationController {
	return &LocationController{
		sourceRepo:   sourceRepo,
		locationRepo: locationRepo,
		logger:       logger,
		retention:    retention,
	}
}

// RegisterRoutes registers the location routes with Gin
func (c *LocationController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/source/:id/location", c.PostLocation)
		api.GET("/source/:id/locations/last_seen/:limit", c.LastSeen)
		api.GET("/source/:id/locations/last_ping/:limit", c.LastPing)
		api.GET("/source/:id/location/last_seen", c.LastSeenSingle)
		api.GET("/source/:id/location/last_ping", c.LastPingSingle)
	}
}

// PostLocation stores one fix: source upsert, then location insert.
// The two writes are not transactional; the upsert is idempotent and
// re-attempted on the next post if the insert is lost.
func (c *LocationController) PostLocation(ctx *gin.Context) {
	id := ctx.Param("id")

	var report map[string]interface{}
	if err := ctx.ShouldBindJSON(&report); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	location, err := trkmodels.ParseLocationReport(id, report, time.Now(), c.retention)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.sourceRepo.UpsertSource(ctx, id); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := c.locationRepo.InsertLocation(ctx, *location); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *LocationController) LastSeen(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, err := strconv.ParseInt(ctx.Param("limit"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	locations, err := c.locationRepo.LastSeen(ctx, id, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, locations)
}

func (c *LocationController) LastPing(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, err := strconv.ParseInt(ctx.Param("limit"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	locations, err := c.locationRepo.LastPing(ctx, id, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, locations)
}

// LastSeenSingle returns the most recent valid fix, or an empty object
// when the source has no valid fix yet.
func (c *LocationController) LastSeenSingle(ctx *gin.Context) {
	id := ctx.Param("id")

	locations, err := c.locationRepo.LastSeen(ctx, id, 1)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(locations) == 0 {
		ctx.JSON(http.StatusOK, gin.H{})
		return
	}

	ctx.JSON(http.StatusOK, locations[0])
}

// LastPingSingle returns the most recent fix regardless of validity,
// as a list of at most one element.
func (c *LocationController) LastPingSingle(ctx *gin.Context) {
	id := ctx.Param("id")

	locations, err := c.locationRepo.LastPing(ctx, id, 1)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, locations)
}
