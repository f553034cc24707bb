package app

import (
	"context"
	"fmt"
	"strings"

	"causelens/adapters/stats/rdfit"
	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/domain/rd"
	"causelens/internal"
	"causelens/internal/errors"
	"causelens/ports"

	"golang.org/x/sync/errgroup"
)

// PlotRequest is a rendering request as it arrives from a caller. Unset
// optional fields are filled from the backend estimate, then from defaults.
type PlotRequest struct {
	Dataset    string
	ChartID    core.ChartID // empty means the dataset's default chart
	Running    string
	Outcome    string
	Cutoff     *float64
	Bandwidth  *float64
	Order      rd.PolynomialOrder // 0 means unset
	Side       rd.TreatmentSide   // empty means unset
	AnalysisID string
	Samples    int
}

// ChartKey names the chart lane a request renders into
func (r PlotRequest) ChartKey() string {
	return ChartKey(r.Dataset, r.ChartID)
}

// ChartKey is the tracker key of a chart: its instance id, or the dataset
// name for the dataset's default chart
func ChartKey(datasetName string, chartID core.ChartID) string {
	if chartID.String() != "" {
		return "chart:" + chartID.String()
	}
	return "dataset:" + datasetName
}

// RDPlotServiceConfig holds tunables for the plot service
type RDPlotServiceConfig struct {
	RowLimit     int
	CurveSamples int
}

// PlotPublisher receives every plot a chart commits, in commit order.
// PublishPlot runs while the chart's lane is locked and must not block.
type PlotPublisher interface {
	PublishPlot(key string, seq int64, plot *rd.Plot)
}

// RDPlotService fetches rows and the backend estimate for a chart, runs the
// engine and publishes the result unless a newer request superseded it.
type RDPlotService struct {
	rows      ports.RowSource
	estimates ports.EstimateSource // optional
	engine    *rdfit.Engine
	tracker   *ChartTracker
	config    RDPlotServiceConfig
	publisher PlotPublisher // optional
	logger    *internal.Logger
}

// NewRDPlotService creates a plot service. estimates may be nil.
func NewRDPlotService(rows ports.RowSource, estimates ports.EstimateSource, engine *rdfit.Engine, tracker *ChartTracker, config RDPlotServiceConfig) *RDPlotService {
	if config.RowLimit <= 0 {
		config.RowLimit = dataset.DefaultRowLimit
	}
	if config.CurveSamples < 2 {
		config.CurveSamples = rd.DefaultSampleCount
	}
	if engine == nil {
		engine = rdfit.NewEngine(nil)
	}
	if tracker == nil {
		tracker = NewChartTracker()
	}
	return &RDPlotService{
		rows:      rows,
		estimates: estimates,
		engine:    engine,
		tracker:   tracker,
		config:    config,
		logger:    internal.DefaultLogger.With("RDPlotService"),
	}
}

// Render runs one rendering cycle for the request's chart
func (s *RDPlotService) Render(ctx context.Context, req PlotRequest) (*rd.Plot, error) {
	if strings.TrimSpace(req.Dataset) == "" {
		return nil, errors.WithCode(errors.CodeValidationError, core.NewInvalidRequestError("dataset", "is required"))
	}

	ticket, cycleCtx := s.tracker.Begin(ctx, req.ChartKey())
	defer s.tracker.Release(ticket)

	rows, est, err := s.fetch(cycleCtx, req)
	if err != nil {
		if !s.tracker.IsCurrent(ticket) {
			return nil, s.superseded(ticket)
		}
		return nil, err
	}

	plotReq, err := s.resolveRequest(req, est)
	if err != nil {
		return nil, err
	}

	plot, err := s.engine.Compute(rows, plotReq)
	if err != nil {
		return nil, err
	}
	plot.Estimate = est

	var publish func(Ticket, *rd.Plot)
	if s.publisher != nil {
		publish = func(t Ticket, p *rd.Plot) { s.publisher.PublishPlot(t.Key, t.Seq, p) }
	}
	if !s.tracker.CommitWith(ticket, plot, publish) {
		return nil, s.superseded(ticket)
	}

	s.logger.Debug("chart %s seq=%d status=%s rows=%d in_window=%d",
		ticket.Key, ticket.Seq, plot.Status, plot.RowsRead, plot.RowsInWindow)
	return plot, nil
}

// SetPublisher connects a subscriber feed for committed plots
func (s *RDPlotService) SetPublisher(p PlotPublisher) {
	s.publisher = p
}

// Latest returns the last plot committed for a chart
func (s *RDPlotService) Latest(key string) (*rd.Plot, error) {
	plot, ok := s.tracker.Latest(key)
	if !ok {
		return nil, errors.NotFound("chart", core.NewNotFoundError("chart", key))
	}
	return plot, nil
}

// Forget drops a chart lane, cancelling any cycle still running
func (s *RDPlotService) Forget(key string) {
	s.tracker.Forget(key)
}

func (s *RDPlotService) superseded(ticket Ticket) error {
	s.logger.Debug("chart %s seq=%d superseded, result discarded", ticket.Key, ticket.Seq)
	return errors.Superseded(core.ErrSuperseded)
}

// fetch loads rows and, when requested, the estimate concurrently
func (s *RDPlotService) fetch(ctx context.Context, req PlotRequest) ([]dataset.Row, *rd.Estimate, error) {
	var (
		rows []dataset.Row
		est  *rd.Estimate
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetched, err := s.rows.FetchRows(gctx, req.Dataset, s.config.RowLimit)
		if err != nil {
			return classify("row source", "dataset "+req.Dataset, err)
		}
		rows = dataset.CapRows(fetched, s.config.RowLimit)
		return nil
	})

	if req.AnalysisID != "" {
		if s.estimates == nil {
			s.logger.Warn("analysis %s requested but no estimate source is configured", req.AnalysisID)
		} else {
			g.Go(func() error {
				fetched, err := s.estimates.GetEstimate(gctx, req.AnalysisID)
				if err != nil {
					return classify("estimate source", "analysis "+req.AnalysisID, err)
				}
				est = fetched
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rows, est, nil
}

// classify maps a collaborator failure onto an error code
func classify(service, resource string, err error) error {
	switch {
	case core.IsNotFoundError(err):
		return errors.NotFound(resource, err)
	case core.IsInvalidRequestError(err):
		return errors.WithCode(errors.CodeValidationError, err)
	default:
		return errors.ExternalServiceError(service, err)
	}
}

// resolveRequest fills the engine request. The estimate's bandwidth always
// wins; cutoff, order, side and variables come from the caller first.
func (s *RDPlotService) resolveRequest(req PlotRequest, est *rd.Estimate) (rd.Request, error) {
	out := rd.Request{
		Running: req.Running,
		Outcome: req.Outcome,
		Order:   req.Order,
		Side:    req.Side,
		Samples: req.Samples,
	}
	if out.Samples == 0 {
		out.Samples = s.config.CurveSamples
	}

	cutoff, bandwidth := req.Cutoff, req.Bandwidth

	if est != nil {
		if bandwidth != nil && *bandwidth != est.Bandwidth {
			s.logger.Warn("bandwidth %g for %s overridden by analysis %s estimate %g",
				*bandwidth, req.ChartKey(), est.AnalysisID, est.Bandwidth)
		}
		b := est.Bandwidth
		bandwidth = &b
		if cutoff == nil {
			c := est.Cutoff
			cutoff = &c
		}
		if out.Order == 0 {
			out.Order = est.Order
		}
		if out.Side == "" {
			out.Side = est.TreatmentSide
		}
		if out.Running == "" {
			out.Running = est.Running
		}
		if out.Outcome == "" {
			out.Outcome = est.Outcome
		}
	}

	if cutoff == nil {
		return rd.Request{}, errors.WithCode(errors.CodeValidationError, core.NewInvalidRequestError("cutoff", "is required"))
	}
	if bandwidth == nil {
		return rd.Request{}, errors.WithCode(errors.CodeValidationError,
			core.NewInvalidRequestError("bandwidth", fmt.Sprintf("is required when no analysis estimate is given for %s", req.Dataset)))
	}
	out.Window = rd.Window{Cutoff: *cutoff, Bandwidth: *bandwidth}

	if out.Order == 0 {
		out.Order = rd.OrderLinear
	}
	if out.Side == "" {
		out.Side = rd.SideAbove
	}
	return out, nil
}
