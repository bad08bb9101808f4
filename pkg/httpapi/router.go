package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/control"
)

// Router holds the Gin engine and its handler dependencies.
type Router struct {
	engine *gin.Engine
	br     *bridge.Bridge
}

// NewRouter builds a Router with every route wired against br.
func NewRouter(br *bridge.Bridge, validator *control.Validator) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	setupMiddleware(engine)

	r := &Router{engine: engine, br: br}
	r.setupRoutes(validator)

	return r
}

func (r *Router) setupRoutes(validator *control.Validator) {
	zones := &zonesHandler{br: r.br}
	ctrl := &controlHandler{br: r.br, validator: validator}
	pipeline := &pipelineHandler{br: r.br, validator: validator}
	events := &eventsHandler{br: r.br}

	r.engine.GET("/zones", zones.listZones)
	r.engine.GET("/zones/:zone_id/now_playing", zones.nowPlaying)
	r.engine.GET("/image", zones.getImage)

	r.engine.POST("/control", ctrl.setState)

	r.engine.GET("/hqp/pipeline", pipeline.getPipeline)
	r.engine.POST("/hqp/pipeline", pipeline.setPipeline)

	r.engine.GET("/events", events.subscribeEvents)
}

// Run starts the HTTP server on addr, blocking until it exits.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// Engine exposes the underlying gin.Engine for tests that want to drive
// requests through httptest without a live listener.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
