package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dormitory-backend/config"
	"dormitory-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	_ = r.SetTrustedProxies(nil)

	idle := time.Duration(cfg.RateLimitIdleMinutes) * time.Minute
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, idle))

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter, caching)
	{
		api.GET("/students", h.ListStudents)
		api.GET("/students/search", h.SearchStudents)
		api.GET("/students/:id", h.GetStudent)
		api.POST("/students", h.CreateStudent)
		api.PUT("/students/:id", h.UpdateStudent)
		api.DELETE("/students/:id", h.DeleteStudent)

		api.GET("/commandants", h.ListCommandants)
		api.GET("/commandants/:id", h.GetCommandant)
		api.POST("/commandants", h.CreateCommandant)
		api.PUT("/commandants/:id", h.UpdateCommandant)
		api.DELETE("/commandants/:id", h.DeleteCommandant)

		api.GET("/buildings", h.ListBuildings)
		api.GET("/buildings/:id", h.GetBuilding)
		api.POST("/buildings", h.CreateBuilding)
		api.PUT("/buildings/:id", h.UpdateBuilding)
		api.DELETE("/buildings/:id", h.DeleteBuilding)

		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
		api.GET("/rooms/:id/occupancy", h.GetRoomOccupancy)
		api.POST("/rooms", h.CreateRoom)
		api.PUT("/rooms/:id", h.UpdateRoom)
		api.DELETE("/rooms/:id", h.DeleteRoom)

		api.GET("/checkins", h.ListCheckins)
		api.GET("/checkins/active", h.ListActiveCheckins)
		api.POST("/checkins", h.AdmitCheckin)
		api.GET("/checkouts", h.ListCheckouts)
		api.POST("/checkouts", h.AdmitCheckout)

		api.GET("/stats", h.GetStats)
		api.GET("/export/students.csv", h.ExportStudents)
		api.GET("/export/checkins.csv", h.ExportCheckins)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

// corsConfig allows the listed origins, or every origin when none are set.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
