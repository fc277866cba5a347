package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/salarylens/salarylens/internal/cache"
	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/nn"
	"github.com/salarylens/salarylens/internal/pipeline"
)

func testAPIServer(t *testing.T) (*apiServer, *cache.Memory) {
	t.Helper()

	var b strings.Builder
	b.WriteString("work_year,experience_level,employment_type,job_title,salary,salary_currency,salary_in_usd,employee_residence,remote_ratio,company_location,company_size\n")
	levels := []string{"EN", "MI", "SE", "EX"}
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "%d,%s,FT,Data Engineer,0,USD,%d,US,%d,US,M\n",
			2021+i%4, levels[i%4], 70000+i*1500, (i%3)*50)
	}

	mem := cache.NewMemory()
	pl := pipeline.New(mem, nn.TrainConfig{
		Epochs:          2,
		BatchSize:       16,
		ValidationSplit: 0.2,
		LearningRate:    0.001,
	}, 1)

	ctx := context.Background()
	pd, err := pl.LoadAndProcessData(ctx, strings.NewReader(b.String()))
	require.NoError(t, err)
	pred, err := pl.GetOrTrainModel(ctx, pd, nil)
	require.NoError(t, err)

	return &apiServer{pipeline: pl, predictor: pred, stats: pd.Stats}, mem
}

func testRouter(t *testing.T) (http.Handler, *cache.Memory) {
	t.Helper()
	api, mem := testAPIServer(t)
	return api.router(rate.NewLimiter(rate.Inf, 0)), mem
}

func TestServeHealth(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeStats(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var tables model.StatTables
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Len(t, tables.ByExperience, 4)
	assert.NotEmpty(t, tables.ByYear)
}

func TestServeModelInfo(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/model", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var meta model.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, model.Version, meta.Version)
	assert.Equal(t, 40, meta.DataSize)
}

func TestServePredict(t *testing.T) {
	router, _ := testRouter(t)

	body := `{"work_year":2024,"experience_level":"SE","employment_type":"FT","job_title":"Data Engineer","company_size":"M","remote_ratio":50}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/predict", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var pred model.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.GreaterOrEqual(t, pred.Salary, 0)
	assert.LessOrEqual(t, pred.Low, pred.Salary)
	assert.GreaterOrEqual(t, pred.High, pred.Salary)
}

func TestServePredictUnknownTitle(t *testing.T) {
	router, _ := testRouter(t)

	// An unseen title is a valid request, not an error.
	body := `{"work_year":2024,"experience_level":"SE","employment_type":"FT","job_title":"Chief Vibes Officer","company_size":"M","remote_ratio":0}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/predict", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var pred model.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.GreaterOrEqual(t, pred.Salary, 0)
}

func TestServePredictBadBody(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/predict", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServePredictBatch(t *testing.T) {
	router, _ := testRouter(t)

	body := `{"profiles":[
		{"work_year":2024,"experience_level":"EN","employment_type":"FT","job_title":"Data Engineer","company_size":"S","remote_ratio":0},
		{"work_year":2024,"experience_level":"EX","employment_type":"FT","job_title":"Data Engineer","company_size":"L","remote_ratio":100}
	]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/predict/batch", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Predictions []model.Prediction `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 2)
}

func TestServePredictBatchEmpty(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/predict/batch", strings.NewReader(`{"profiles":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeCacheClear(t *testing.T) {
	router, mem := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := mem.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestServeRateLimit(t *testing.T) {
	api, _ := testAPIServer(t)
	router := api.router(rate.NewLimiter(rate.Limit(0), 1))

	// First request consumes the burst; the second is limited.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
