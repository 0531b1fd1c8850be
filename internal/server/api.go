package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/content"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) profile(c *gin.Context) {
	c.JSON(http.StatusOK, content.GetProfile())
}

func (s *Server) projects(c *gin.Context) {
	projects := content.Projects(c.Query("tag"))
	c.JSON(http.StatusOK, gin.H{
		"count":    len(projects),
		"projects": projects,
	})
}

func (s *Server) project(c *gin.Context) {
	p, ok := content.ProjectBySlug(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}
