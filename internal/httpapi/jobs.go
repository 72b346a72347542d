package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/usenetkit/nzbdecode/internal/jobstore"
)

type jobsController struct {
	store      *jobstore.Store
	instanceID uuid.UUID
}

func (ctrl *jobsController) healthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "instance_id": ctrl.instanceID.String()})
}

func (ctrl *jobsController) listJobs(c *echo.Context) error {
	jobs, err := ctrl.store.ListJobs(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, jobs)
}

func (ctrl *jobsController) getJob(c *echo.Context) error {
	id := c.Param("id")

	job, err := ctrl.store.GetJob(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

func (ctrl *jobsController) listArticles(c *echo.Context) error {
	id := c.Param("id")

	job, err := ctrl.store.GetJob(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	articles, err := ctrl.store.ListArticlesForJob(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, articles)
}
