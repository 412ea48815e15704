package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteProblemKeepsComparisonOperators(t *testing.T) {
	rr := httptest.NewRecorder()
	writeProblem(rr, http.StatusBadRequest, "Invalid parameter", "condition not met: 0 < cooling_factor < 1", "/v1/tsp/euclidean")
	body := rr.Body.String()
	if strings.Contains(body, `\u003c`) {
		t.Fatalf("detail was HTML-escaped: %s", body)
	}
	if !strings.Contains(body, "0 < cooling_factor < 1") {
		t.Fatalf("detail missing: %s", body)
	}

	rr = httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]string{"cond": "a > b"})
	if !strings.Contains(rr.Body.String(), `"a > b"`) {
		t.Fatalf("writeJSON escaped: %s", rr.Body.String())
	}
}
