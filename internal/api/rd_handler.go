package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"causelens/app"
	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/domain/rd"
	"causelens/internal/errors"

	"github.com/gin-gonic/gin"
)

// PlotRenderer is the part of the plot service the handlers need
type PlotRenderer interface {
	Render(ctx context.Context, req app.PlotRequest) (*rd.Plot, error)
	Latest(key string) (*rd.Plot, error)
	Forget(key string)
}

// DatasetLister lists stored datasets; it is optional
type DatasetLister interface {
	List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error)
}

// RDPlotHandler serves RD plots as JSON
type RDPlotHandler struct {
	plots    PlotRenderer
	datasets DatasetLister
}

// NewRDPlotHandler creates a new plot handler. datasets may be nil.
func NewRDPlotHandler(plots PlotRenderer, datasets DatasetLister) *RDPlotHandler {
	return &RDPlotHandler{plots: plots, datasets: datasets}
}

// RegisterRoutes mounts the handler under /api/v1
func (h *RDPlotHandler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.GET("/datasets", h.ListDatasets)
	v1.GET("/datasets/:name/rd-plot", h.GetRDPlot)
	v1.GET("/charts/:chart_id/latest", h.GetLatest)
	v1.DELETE("/charts/:chart_id", h.DeleteChart)
}

// GetRDPlot computes the plot for a dataset
func (h *RDPlotHandler) GetRDPlot(c *gin.Context) {
	req, err := ParsePlotRequest(c.Param("name"), c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}

	plot, err := h.plots.Render(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, plot)
}

// GetLatest returns the last plot committed for a chart instance
func (h *RDPlotHandler) GetLatest(c *gin.Context) {
	plot, err := h.plots.Latest(app.ChartKey("", core.ChartID(c.Param("chart_id"))))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plot)
}

// DeleteChart drops a chart instance and cancels its in-flight request
func (h *RDPlotHandler) DeleteChart(c *gin.Context) {
	h.plots.Forget(app.ChartKey("", core.ChartID(c.Param("chart_id"))))
	c.Status(http.StatusNoContent)
}

// ListDatasets returns stored datasets
func (h *RDPlotHandler) ListDatasets(c *gin.Context) {
	if h.datasets == nil {
		c.JSON(http.StatusOK, gin.H{"datasets": []*dataset.Dataset{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	datasets, err := h.datasets.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, errors.DatabaseError("failed to list datasets", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// writeError answers with the status that matches the error code
func writeError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

// queryValues is satisfied by url.Values
type queryValues interface {
	Get(key string) string
}

// ParsePlotRequest reads plot parameters from a query string. Optional
// fields that are absent stay unset so the service can fill them.
func ParsePlotRequest(datasetName string, q queryValues) (app.PlotRequest, error) {
	req := app.PlotRequest{
		Dataset:    strings.TrimSpace(datasetName),
		ChartID:    core.ChartID(strings.TrimSpace(q.Get("chart_id"))),
		Running:    strings.TrimSpace(q.Get("running")),
		Outcome:    strings.TrimSpace(q.Get("outcome")),
		AnalysisID: strings.TrimSpace(q.Get("analysis_id")),
	}

	var err error
	if req.Cutoff, err = optionalFloat(q, "cutoff"); err != nil {
		return req, err
	}
	if req.Bandwidth, err = optionalFloat(q, "bandwidth"); err != nil {
		return req, err
	}

	if v := q.Get("order"); v != "" {
		if req.Order, err = rd.ParsePolynomialOrder(v); err != nil {
			return req, errors.WithCode(errors.CodeValidationError, err)
		}
	}
	if v := q.Get("side"); v != "" {
		if req.Side, err = rd.ParseTreatmentSide(v); err != nil {
			return req, errors.WithCode(errors.CodeValidationError, err)
		}
	}
	if v := q.Get("samples"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 2 {
			return req, errors.WithCode(errors.CodeValidationError, core.NewInvalidRequestError("samples", "must be an integer of at least 2"))
		}
		req.Samples = n
	}

	return req, nil
}

func optionalFloat(q queryValues, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, core.NewInvalidRequestError(key, "must be a number"))
	}
	return &v, nil
}
