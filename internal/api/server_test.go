package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/conifer-solver/conifer/internal/logger"
)

func newTestServer() *echo.Echo {
	e := echo.New()
	NewServer(logger.New(slog.DiscardHandler)).Register(e)
	return e
}

const qpBody = `{
	"P": {"rows":2,"cols":2,"colptr":[0,1,3],"rowval":[0,0,1],"nzval":[4,1,2]},
	"q": [1,1],
	"A": {"rows":3,"cols":2,"colptr":[0,2,4],"rowval":[0,1,0,2],"nzval":[1,1,1,1]},
	"b": [1,0.7,0.7],
	"cones": [{"type":"zero","dim":1},{"type":"nonneg","dim":2}]
}`

func TestSolveEndpoint(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewBufferString(qpBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		RequestID string `json:"request_id"`
		Solution  struct {
			Status string    `json:"status"`
			X      []float64 `json:"x"`
		} `json:"solution"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RequestID == "" {
		t.Fatal("missing request id")
	}
	if body.Solution.Status != "SOLVED" {
		t.Fatalf("status = %q", body.Solution.Status)
	}
	if len(body.Solution.X) != 2 {
		t.Fatalf("x = %v", body.Solution.X)
	}
}

func TestSolveEndpointRejectsBadShape(t *testing.T) {
	e := newTestServer()
	// b is too short for the declared cones
	bad := `{
		"q": [1],
		"A": {"rows":2,"cols":1,"colptr":[0,1],"rowval":[0],"nzval":[1]},
		"b": [1],
		"cones": [{"type":"nonneg","dim":2}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewBufferString(bad))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSolveEndpointRejectsMalformedJSON(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewBufferString("{"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
