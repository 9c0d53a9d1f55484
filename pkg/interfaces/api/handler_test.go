package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/application/services/planning"
	"github.com/vsinha/batchplan/pkg/infrastructure/events"
	testhelpers "github.com/vsinha/batchplan/pkg/infrastructure/testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	catalogRepo, templateRepo := testhelpers.BuildJamScenario()
	options := planning.DefaultOptions()
	options.SalesWindowDays = testhelpers.JamScenarioWindowDays
	store := events.NewInMemoryEventStore(events.DefaultRetention)
	orchestrator := planning.NewOrchestrator(catalogRepo, templateRepo, options).
		WithClock(func() time.Time { return testhelpers.JamScenarioDate }).
		WithEventStore(store)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(NewHandler(orchestrator, logger).WithHistory(store).Router())
	t.Cleanup(server.Close)
	return server
}

func postPlan(t *testing.T, server *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/plans", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestCreatePlan(t *testing.T) {
	server := newTestServer(t)

	resp := postPlan(t, server, `{
		"semiproduct": "JAM_BASE",
		"mode": "total-weight",
		"value": 120,
		"fixed": {"JAM_1000": 5}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.PlanningResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, dto.TotalWeight, result.Summary.Mode)
	assert.Equal(t, 1, result.Summary.FixedCount)
	assert.LessOrEqual(t, result.Summary.TotalWeightUsed, 120.0+1e-9)
}

func TestCreatePlan_InfeasibleIsNotAnError(t *testing.T) {
	server := newTestServer(t)

	resp := postPlan(t, server, `{
		"semiproduct": "JAM_BASE",
		"mode": "total-weight",
		"value": 10,
		"fixed": {"JAM_1000": 15}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result dto.PlanningResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Success)
	require.NotNil(t, result.Issue)
	assert.InDelta(t, 5.0, result.Issue.Params["deficit"], 1e-9)
}

func TestCreatePlan_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"semiproduct":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unknown field",
			body:       `{"semiproduct":"JAM_BASE","mode":"mmq","value":1,"priority":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unknown mode",
			body:       `{"semiproduct":"JAM_BASE","mode":"fastest","value":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported control mode",
		},
		{
			name:       "invalid multiplier",
			body:       `{"semiproduct":"JAM_BASE","mode":"mmq","value":0}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "MMQ multiplier must be positive",
		},
		{
			name:       "bad date",
			body:       `{"semiproduct":"JAM_BASE","mode":"mmq","value":1,"from":"yesterday"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid from date",
		},
		{
			name:       "unknown semiproduct",
			body:       `{"semiproduct":"NOPE","mode":"mmq","value":1}`,
			wantStatus: http.StatusNotFound,
			wantError:  "semiproduct not found",
		},
		{
			name:       "no consumers",
			body:       `{"semiproduct":"HONEY_BASE","mode":"mmq","value":1}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "no products found",
		},
	}

	server := newTestServer(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postPlan(t, server, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantStatus, body.Code)
			assert.Contains(t, body.Error, tc.wantError)
		})
	}
}

func TestListVariants(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/semiproducts/JAM_BASE/variants?from=2025-06-21&to=2025-06-30")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body VariantsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "JAM_BASE", body.Semiproduct)
	require.Len(t, body.Variants, 4)
	assert.InDelta(t, 8.0, body.Variants[0].DailySales, 1e-9)

	missing, err := http.Get(server.URL + "/api/semiproducts/NOPE/variants")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestListPlans(t *testing.T) {
	server := newTestServer(t)

	postPlan(t, server, `{"semiproduct":"JAM_BASE","mode":"total-weight","value":50}`)
	postPlan(t, server, `{"semiproduct":"JAM_BASE","mode":"total-weight","value":10,"fixed":{"JAM_1000":15}}`)

	resp, err := http.Get(server.URL + "/api/semiproducts/JAM_BASE/plans")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, events.PlanCompletedEvent, body.Events[0].Type)
	assert.Equal(t, events.PlanInfeasibleEvent, body.Events[1].Type)
	assert.Equal(t, 2, body.Events[1].Version)

	since, err := http.Get(server.URL + "/api/semiproducts/JAM_BASE/plans?since=2")
	require.NoError(t, err)
	defer since.Body.Close()
	var later HistoryResponse
	require.NoError(t, json.NewDecoder(since.Body).Decode(&later))
	assert.Len(t, later.Events, 1)

	bad, err := http.Get(server.URL + "/api/semiproducts/JAM_BASE/plans?since=zero")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}
