package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-queue/internal/handler"
	healthhandler "github.com/jwalitptl/clinic-queue/internal/handler/health"
	queuehandler "github.com/jwalitptl/clinic-queue/internal/handler/queue"
	visithandler "github.com/jwalitptl/clinic-queue/internal/handler/visit"
	"github.com/jwalitptl/clinic-queue/internal/middleware"
	"github.com/jwalitptl/clinic-queue/internal/realtime"
)

type Router struct {
	engine  *gin.Engine
	healthH *healthhandler.Handler
	visitH  *visithandler.Handler
	queueH  *queuehandler.Handler
	hub     *realtime.Hub
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

func NewRouter(
	healthH *healthhandler.Handler,
	visitH *visithandler.Handler,
	queueH *queuehandler.Handler,
	hub *realtime.Hub,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	handler.RegisterValidators()

	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:  engine,
		healthH: healthH,
		visitH:  visitH,
		queueH:  queueH,
		hub:     hub,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.GET("/ws", r.serveWS)

	scoped := api.Group("")
	scoped.Use(middleware.HospitalContext())
	r.setupVisitRoutes(scoped)
	r.setupQueueRoutes(scoped)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.healthH.Live)
		health.GET("/ready", r.healthH.Ready)
	}
}

func (r *Router) setupVisitRoutes(rg *gin.RouterGroup) {
	visits := rg.Group("/visits")
	{
		visits.POST("/check-in", r.visitH.CheckIn)
		visits.POST("/walk-in", r.visitH.WalkIn)
		visits.POST("/:id/complete", r.visitH.Complete)
		visits.POST("/:id/skip", r.visitH.Skip)
		visits.POST("/:id/delay", r.visitH.Delay)
		visits.POST("/:id/reassign", r.visitH.Reassign)
		visits.GET("/:id/position", r.visitH.Position)
	}
}

func (r *Router) setupQueueRoutes(rg *gin.RouterGroup) {
	queue := rg.Group("/queue")
	{
		queue.GET("", r.queueH.Get)
		queue.POST("/:doctorID/call-next", r.queueH.CallNext)
		queue.GET("/:doctorID/history", r.queueH.History)
	}
	rg.POST("/carryover/sweep", r.queueH.SweepCarryover)
}

// serveWS upgrades live-display connections. The initial scope comes
// from query parameters; invalid IDs fall back to the wildcard.
func (r *Router) serveWS(c *gin.Context) {
	scope := realtime.Scope{}
	if id, err := uuid.Parse(c.Query("hospital_id")); err == nil {
		scope.HospitalID = id
	}
	if id, err := uuid.Parse(c.Query("doctor_id")); err == nil {
		scope.DoctorID = id
	}
	if id, err := uuid.Parse(c.Query("department_id")); err == nil {
		scope.DepartmentID = id
	}

	if err := r.hub.ServeWS(c.Writer, c.Request, scope); err != nil {
		c.Status(400)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
