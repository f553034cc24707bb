package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"causelens/app"
	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/domain/rd"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRows map[string][]dataset.Row

func (s stubRows) FetchRows(ctx context.Context, name string, limit int) ([]dataset.Row, error) {
	rows, ok := s[name]
	if !ok {
		return nil, core.NewNotFoundError("dataset", name)
	}
	return rows, nil
}

func newTestRouter() *gin.Engine {
	rows := stubRows{
		"scholarship": {
			{"score": 60, "earnings": 10},
			{"score": 65, "earnings": 12},
			{"score": 75, "earnings": 30},
			{"score": 80, "earnings": 32},
		},
	}
	svc := app.NewRDPlotService(rows, nil, nil, nil, app.RDPlotServiceConfig{})
	return NewRouter(gin.TestMode, NewRDPlotHandler(svc, nil), nil)
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetRDPlot(t *testing.T) {
	router := newTestRouter()

	w := get(router, "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=15&chart_id=c-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plot rd.Plot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plot))
	assert.Equal(t, rd.StatusComplete, plot.Status)
	assert.Len(t, plot.Curve, 50)
	require.NotNil(t, plot.Discontinuity)
	assert.InDelta(t, 14.0, *plot.Discontinuity, 1e-9)

	latest := get(router, "/api/v1/charts/c-1/latest")
	assert.Equal(t, http.StatusOK, latest.Code)

	missing := get(router, "/api/v1/charts/c-2/latest")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGetRDPlot_StatusCodes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		target string
		want   int
		code   string
	}{
		{"bad bandwidth", "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=abc", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero bandwidth", "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=0", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad order", "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=5&order=3", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad side", "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=5&side=left", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown dataset", "/api/v1/datasets/nope/rd-plot?running=score&outcome=earnings&cutoff=70&bandwidth=5", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.target)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestGetRDPlot_EmptyWindowIsData(t *testing.T) {
	w := get(newTestRouter(), "/api/v1/datasets/scholarship/rd-plot?running=score&outcome=earnings&cutoff=0&bandwidth=1")
	require.Equal(t, http.StatusOK, w.Code)

	var plot rd.Plot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plot))
	assert.Equal(t, rd.StatusEmptyWindow, plot.Status)
	assert.Empty(t, plot.Curve)
}

func TestHealthz(t *testing.T) {
	w := get(newTestRouter(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListDatasets_NoRepository(t *testing.T) {
	w := get(newTestRouter(), "/api/v1/datasets")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"datasets":[]}`, w.Body.String())
}

func TestParsePlotRequest(t *testing.T) {
	q := url.Values{}
	q.Set("running", " score ")
	q.Set("outcome", "earnings")
	q.Set("cutoff", "70")
	q.Set("order", "2")
	q.Set("side", "below")
	q.Set("samples", "25")
	q.Set("analysis_id", "an-1")

	req, err := ParsePlotRequest("scholarship", q)
	require.NoError(t, err)
	assert.Equal(t, "score", req.Running)
	require.NotNil(t, req.Cutoff)
	assert.Equal(t, 70.0, *req.Cutoff)
	assert.Nil(t, req.Bandwidth)
	assert.Equal(t, rd.OrderQuadratic, req.Order)
	assert.Equal(t, rd.SideBelow, req.Side)
	assert.Equal(t, 25, req.Samples)
	assert.Equal(t, "an-1", req.AnalysisID)

	q.Set("samples", "1")
	_, err = ParsePlotRequest("scholarship", q)
	assert.True(t, core.IsInvalidRequestError(err))
}
