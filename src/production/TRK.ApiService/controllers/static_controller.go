package controllers

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// StaticController serves the bundled web page at the root
type StaticController struct {
	dir string
}

// NewStaticController creates a new static controller
func NewStaticController(dir string) *StaticController {
	return &StaticController{dir: dir}
}

// RegisterRoutes registers the static routes with Gin
func (c *StaticController) RegisterRoutes(router *gin.Engine) {
	router.StaticFile("/", filepath.Join(c.dir, "index.html"))
}
