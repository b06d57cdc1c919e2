package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

const sampleCSV = "Type,Value1,Value2\nA,10,20\nB,15,25\nA,12,22"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Processing: config.ProcessingConfig{
			MaxInputBytes: 1 << 20,
			MaxConcurrent: 4,
			MaxWaitTime:   time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, limiter *core.Limiter) *Server {
	t.Helper()
	if limiter == nil {
		limiter = core.NewLimiter(cfg.Processing.MaxConcurrent, cfg.Processing.MaxWaitTime)
	}
	return NewServer(cfg, core.NewService(limiter, cfg.Processing.MaxInputBytes))
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) protocol.Response {
	t.Helper()
	var resp protocol.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func requireData(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	require.True(t, resp.OK())
	require.NotNil(t, resp.Data)
	return *resp.Data
}

func requireErrorType(t *testing.T, rec *httptest.ResponseRecorder, status int, want core.ErrorType) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	require.False(t, resp.OK())
	require.NotNil(t, resp.Error)
	assert.Equal(t, want, resp.Error.Type)
}

func TestClean(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := postJSON(t, s, "/api/clean", map[string]any{
		"csv_data": "a,b\n1,x\n,y\n3,\n",
		"method":   "dropna",
	})

	assert.Equal(t, "a,b\n1,x\n", requireData(t, rec))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestClean_Errors(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name string
		body any
		want core.ErrorType
	}{
		{"empty body", "", core.ErrJSONParse},
		{"malformed json", "{not json", core.ErrJSONParse},
		{"missing csv_data", map[string]any{"method": "dropna"}, core.ErrMissingData},
		{"unknown method", map[string]any{"csv_data": "a\n1\n", "method": "shuffle"}, core.ErrInvalidMethod},
		{"unknown column", map[string]any{"csv_data": "a\n1\n", "column": "z"}, core.ErrInvalidColumn},
		{"replace without pair", map[string]any{"csv_data": "a\n1\n", "method": "replace", "value": map[string]any{}}, core.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireErrorType(t, postJSON(t, s, "/api/clean", tt.body), http.StatusBadRequest, tt.want)
		})
	}
}

func TestClean_ErrorDetailsNull(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := postJSON(t, s, "/api/clean", map[string]any{"csv_data": "a\n1\n", "method": "shuffle"})

	assert.Contains(t, rec.Body.String(), `"Details":null`)
}

func TestAggregate(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := postJSON(t, s, "/api/aggregate", map[string]any{
		"csv_data":      sampleCSV,
		"method":        "sum",
		"target_column": "Type",
		"selected_cols": []string{"Value1", "Value2"},
	})

	assert.Equal(t, "Type,Counts,Value1_Total,Value2_Total\nA,2,22,42\nB,1,15,25\n", requireData(t, rec))
}

func TestAggregate_InvalidMethod(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := postJSON(t, s, "/api/aggregate", map[string]any{
		"csv_data":      sampleCSV,
		"method":        "median",
		"target_column": "Type",
	})

	requireErrorType(t, rec, http.StatusBadRequest, core.ErrInvalidMethod)
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	data := requireData(t, postJSON(t, s, "/api/info", map[string]any{"csv_data": sampleCSV}))

	assert.True(t, strings.HasPrefix(data, ",Type,Value1,Value2\n"), data)
	assert.Contains(t, data, "\ncount,3,3,3\n")
}

func TestPayloadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Processing.MaxInputBytes = 16
	s := newTestServer(t, cfg, nil)

	rec := postJSON(t, s, "/api/clean", map[string]any{"csv_data": sampleCSV})

	requireErrorType(t, rec, http.StatusRequestEntityTooLarge, core.ErrTooLarge)
}

func TestServerBusy(t *testing.T) {
	limiter := core.NewLimiter(1, 10*time.Millisecond)
	s := newTestServer(t, testConfig(), limiter)

	release, err := limiter.Admit(context.Background())
	require.NoError(t, err)
	defer release()

	rec := postJSON(t, s, "/api/clean", map[string]any{"csv_data": sampleCSV})

	requireErrorType(t, rec, http.StatusServiceUnavailable, core.ErrServerBusy)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

type uploadForm struct {
	filename  string
	content   string
	operation string
	options   string
}

func postUpload(t *testing.T, s *Server, f uploadForm) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if f.filename != "" {
		part, err := mw.CreateFormFile("file", f.filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	if f.operation != "" {
		require.NoError(t, mw.WriteField("operation", f.operation))
	}
	if f.options != "" {
		require.NoError(t, mw.WriteField("options", f.options))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name string
		form uploadForm
		want string
	}{
		{
			name: "clean",
			form: uploadForm{
				filename:  "data.csv",
				content:   "a,b\n1,x\n,y\n",
				operation: "clean",
				options:   `{"method":"fillna","column":"a","value":"0"}`,
			},
			want: "a,b\n1,x\n0,y\n",
		},
		{
			name: "vis_data",
			form: uploadForm{
				filename:  "data.CSV",
				content:   sampleCSV,
				operation: "vis_data",
				options:   `{"method":"mean","target_column":"Type","selected_cols":["Value1"]}`,
			},
			want: "Type,Counts,Value1_Mean\nA,2,11\nB,1,15\n",
		},
		{
			name: "clean without options uses dropna",
			form: uploadForm{
				filename:  "data.csv",
				content:   "a,b\n1,x\n,y\n",
				operation: "clean",
			},
			want: "a,b\n1,x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requireData(t, postUpload(t, s, tt.form)))
		})
	}
}

func TestUpload_Info(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	data := requireData(t, postUpload(t, s, uploadForm{
		filename:  "data.csv",
		content:   sampleCSV,
		operation: "info",
	}))

	assert.True(t, strings.HasPrefix(data, ",Type,Value1,Value2\n"), data)
}

func TestUpload_Errors(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	tests := []struct {
		name string
		form uploadForm
		want core.ErrorType
	}{
		{
			name: "missing file",
			form: uploadForm{operation: "clean"},
			want: core.ErrInvalidReq,
		},
		{
			name: "empty file",
			form: uploadForm{filename: "data.csv", operation: "clean"},
			want: core.ErrInvalidReq,
		},
		{
			name: "missing operation",
			form: uploadForm{filename: "data.csv", content: sampleCSV},
			want: core.ErrInvalidReq,
		},
		{
			name: "wrong extension",
			form: uploadForm{filename: "data.txt", content: sampleCSV, operation: "clean"},
			want: core.ErrInvalidFile,
		},
		{
			name: "unknown operation",
			form: uploadForm{filename: "data.csv", content: sampleCSV, operation: "pivot"},
			want: core.ErrInvalidOperation,
		},
		{
			name: "options not json",
			form: uploadForm{filename: "data.csv", content: sampleCSV, operation: "clean", options: "{method"},
			want: core.ErrInvalidOption,
		},
		{
			name: "options not an object",
			form: uploadForm{filename: "data.csv", content: sampleCSV, operation: "vis_data", options: "null"},
			want: core.ErrInvalidOption,
		},
		{
			name: "option field wrong shape",
			form: uploadForm{filename: "data.csv", content: sampleCSV, operation: "clean", options: `{"method":["dropna"]}`},
			want: core.ErrInvalidOption,
		},
		{
			name: "engine error keeps its type",
			form: uploadForm{filename: "data.csv", content: sampleCSV, operation: "vis_data", options: `{"method":"sum","target_column":"Nope"}`},
			want: core.ErrInvalidColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireErrorType(t, postUpload(t, s, tt.form), http.StatusBadRequest, tt.want)
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status  string
		Limiter core.LimiterStatus
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 4, body.Limiter.MaxConcurrent)
	assert.Equal(t, 4, body.Limiter.Available)
}

func TestMethods(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/methods", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["clean"], "fillna_mode")
	assert.Equal(t, []string{"sum", "mean", "both"}, body["aggregate"])
	assert.Equal(t, []string{"info", "clean", "vis_data"}, body["operations"])
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	requireData(t, postJSON(t, s, "/api/clean", map[string]any{"csv_data": "a\n1\n"}))

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "csvclean_operations_total")
	assert.Contains(t, rec.Body.String(), "csvclean_http_requests_total")
}

func TestSecurityHeaders(t *testing.T) {
	cfg := testConfig()
	s := newTestServer(t, cfg, nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, contentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))

	cfg.Security.EnableCSP = false
	s = newTestServer(t, cfg, nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg, nil)

	rec := postJSON(t, s, "/api/clean", map[string]any{"csv_data": "a\n1\n"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/clean", strings.NewReader(`{"csv_data":"a\n1\n"}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is not behind auth")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg, nil)

	body := map[string]any{"csv_data": "a\n1\n"}
	assert.Equal(t, http.StatusOK, postJSON(t, s, "/api/clean", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(t, s, "/api/clean", body).Code)
}

func TestServeAndShutdown(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/api/clean", "application/json",
		strings.NewReader(`{"csv_data":"a,b\n1,\n2,3\n"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"Data":"a,b\n2,3\n"`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
