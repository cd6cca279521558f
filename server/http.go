package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qgatssdev/nika/actions"
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/logger"
)

// NewRouter registers every route of the api
func NewRouter(cfg config.Config, a *actions.Actions) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "X-Api-Key", "X-Webhook-Secret", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "OPTIONS"}

	r.Use(cors.New(corsConfig)) // Allow requests from anywhere
	r.Use(gin.Recovery())       // Recovery middleware recovers from any panics and writes a 500 if there was one.

	metricsPath := cfg.Server.Monitoring.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Use(logger.SetLogger(logger.Config{SkipPath: []string{"/ping", metricsPath}}))

	r.GET("/ping", actions.Ping)
	if cfg.Server.Monitoring.Enabled {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")

	// execution layer callbacks
	trade := v1.Group("/trade", a.CheckWebhookSecret())
	{
		trade.POST("/webhook", a.TradeWebhook)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", a.Signup)
	}

	referral := v1.Group("/referral")
	{
		referral.POST("/register", a.RegisterReferral)

		restricted := referral.Group("", a.Restrict())
		restricted.POST("/claim", a.ClaimCommission)
		restricted.GET("/claimable", a.GetClaimable)
		restricted.GET("/earnings", a.GetReferralEarnings)
		restricted.GET("/claims", a.GetClaims)
		restricted.GET("/network", a.GetReferralNetwork)
		restricted.POST("/generate", a.GenerateReferralCode)
	}

	v1.GET("/user", a.Restrict(), a.GetProfile)

	admin := v1.Group("/admin", a.AdminOnly())
	{
		admin.PUT("/users/:id/commission-structure", a.UpdateCommissionStructure)
	}

	return r
}
