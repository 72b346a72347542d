// Package httpapi exposes decode job status over HTTP, adapted from
// the teacher's internal/api/router.go. The teacher's single
// controller proxied a Newznab search/download API for Prowlarr/
// Sonarr; this repo has no indexer, so the routes it registers are the
// job-status surface this decoder core actually has: health, job list,
// job detail, and the decoded articles of one job. The request-logging middleware wiring is kept
// unchanged, down to routing echo's logger through the same
// *logger.Logger the rest of the process uses.
package httpapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/usenetkit/nzbdecode/internal/infra/logger"
	"github.com/usenetkit/nzbdecode/internal/jobstore"
)

// New builds an *echo.Echo with every nzbdecode status route registered.
// Each call stamps a fresh process instance ID, reported back from
// /healthz so an operator polling several replicas behind a load
// balancer can tell them apart.
func New(store *jobstore.Store, log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	instanceID := uuid.New()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	ctrl := &jobsController{store: store, instanceID: instanceID}

	e.GET("/healthz", ctrl.healthz)
	e.GET("/jobs", ctrl.listJobs)
	e.GET("/jobs/:id", ctrl.getJob)
	e.GET("/jobs/:id/articles", ctrl.listArticles)

	return e
}
