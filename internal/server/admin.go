package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminCookie = "admin_token"

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (s *Server) adminRoutes(r *gin.Engine) {
	r.POST("/admin/login", s.adminLogin)
	r.POST("/admin/logout", s.adminLogout)

	admin := r.Group("/admin")
	admin.Use(s.adminAuth())
	{
		admin.GET("/api/stats", s.adminStats)
		admin.GET("/api/visitors", s.adminVisitors)
		admin.GET("/api/submissions", s.adminSubmissions)
		admin.GET("/export/stats", s.adminExport)
		admin.POST("/privacy/cleanup", s.adminCleanup)
	}
}

func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) adminLogin(c *gin.Context) {
	client := s.store.HashIP(c.ClientIP())

	limit, err := s.loginLimiter.Check(c.Request.Context(), c.ClientIP())
	if err == nil && !limit.Allowed {
		retry := limit.RetryAfter(s.loginLimiter.Now())
		c.Header("Retry-After", strconv.Itoa(retry))
		s.log.Warn("admin login rate limited", zap.String("client", client))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts", "retryAfter": retry})
		return
	}

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Admin.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.cfg.Admin.PasswordHash, []byte(req.Password)) == nil
	if !userOK || !passOK {
		s.log.Warn("failed admin login attempt", zap.String("client", client))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", s.cfg.Production, true)
	s.log.Info("admin login successful", zap.String("client", client))
	c.JSON(http.StatusOK, gin.H{"message": "Logged in"})
}

func (s *Server) adminLogout(c *gin.Context) {
	c.SetCookie(adminCookie, "", -1, "/admin", "", s.cfg.Production, true)
	s.log.Info("admin logout", zap.String("client", s.store.HashIP(c.ClientIP())))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) adminStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.log.Error("loading admin stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminVisitors(c *gin.Context) {
	visitors, err := s.store.RecentVisitors(c.Request.Context(), queryLimit(c, 200))
	if err != nil {
		s.log.Error("loading visitors failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load visitors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(visitors), "visitors": visitors})
}

func (s *Server) adminSubmissions(c *gin.Context) {
	subs, err := s.store.RecentSubmissions(c.Request.Context(), queryLimit(c, 100))
	if err != nil {
		s.log.Error("loading submissions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(subs), "submissions": subs})
}

func (s *Server) adminExport(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.log.Error("exporting admin stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
	s.log.Info("admin stats exported", zap.String("client", s.store.HashIP(c.ClientIP())))
	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminCleanup(c *gin.Context) {
	removed, err := s.store.CleanupVisitors(c.Request.Context(), s.cfg.VisitorRetention)
	if err != nil {
		s.log.Error("privacy cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
		return
	}
	s.log.Info("privacy cleanup", zap.Int64("removed", removed))
	c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
}

// queryLimit reads ?limit=, falling back to def and capping at 1000.
func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 1000)
}
