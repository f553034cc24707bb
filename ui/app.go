package ui

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"causelens/app"
	"causelens/domain/rd"
	"causelens/internal"
	"causelens/internal/api"
	"causelens/internal/errors"
	"causelens/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PlotRenderer is the part of the plot service the pages need
type PlotRenderer interface {
	Render(ctx context.Context, req app.PlotRequest) (*rd.Plot, error)
}

// App serves the chart pages
type App struct {
	router *chi.Mux
	plots  PlotRenderer
	html   ports.ChartRenderer
	png    ports.ChartRenderer
	logger *internal.Logger
}

// NewApp creates the UI with an HTML and a PNG renderer
func NewApp(plots PlotRenderer, html, png ports.ChartRenderer) *App {
	a := &App{
		router: chi.NewRouter(),
		plots:  plots,
		html:   html,
		png:    png,
		logger: internal.DefaultLogger.With("UI"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/charts/{dataset}/rd", a.handleRDPage)
	a.router.Get("/charts/{dataset}/rd.png", a.handleRDImage)
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) renderPlot(r *http.Request) (*rd.Plot, error) {
	req, err := api.ParsePlotRequest(chi.URLParam(r, "dataset"), r.URL.Query())
	if err != nil {
		return nil, err
	}
	return a.plots.Render(r.Context(), req)
}

func (a *App) handleRDPage(w http.ResponseWriter, r *http.Request) {
	plot, err := a.renderPlot(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.html.Render(&buf, plot); err != nil {
		a.writeError(w, errors.Wrap(err, "failed to render chart"))
		return
	}

	page := insertCaption(buf.String(), CaptionHTML(plot))
	w.Header().Set("Content-Type", a.html.ContentType())
	_, _ = w.Write([]byte(page))
}

func (a *App) handleRDImage(w http.ResponseWriter, r *http.Request) {
	plot, err := a.renderPlot(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.png.Render(&buf, plot); err != nil {
		a.writeError(w, errors.Wrap(err, "failed to render chart"))
		return
	}
	w.Header().Set("Content-Type", a.png.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("chart request failed: %v", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", errors.GetCode(err), err), status)
}

// insertCaption places the caption after the chart, inside the page body
func insertCaption(page, caption string) string {
	block := `<div class="rd-caption" style="max-width:900px;margin:16px auto;font-family:sans-serif">` + caption + `</div>`
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		return page[:i] + block + page[i:]
	}
	return page + block
}
