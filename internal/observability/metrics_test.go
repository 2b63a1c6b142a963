package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

func TestResultCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":           {nil, "ok"},
		"not found":     {record.NotFound(audit.EntityPermit, "p1"), "not_found"},
		"conflict":      {record.Conflict(audit.EntityPermit, "p1", "", "deleted"), "conflict"},
		"transition":    {record.InvalidTransition(audit.EntityCaseFile, "c1", "OPEN", "CLOSED"), "invalid_transition"},
		"inconsistent":  {record.Inconsistent(audit.EntityResolution, "r1", "parent missing"), "inconsistent"},
		"invalid input": {record.Invalid(audit.EntityVehicle, "", "plate required"), "invalid_input"},
		"audit":         {fmt.Errorf("%w: boom", record.ErrAuditIncomplete), "audit_incomplete"},
		"canceled":      {context.Canceled, "canceled"},
		"other":         {errors.New("disk full"), "error"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, ResultCode(tc.err))
		})
	}
}

func TestObserveCountsByResult(t *testing.T) {
	m := New()

	m.Observe(audit.EntityCompany, "create", nil)
	m.Observe(audit.EntityCompany, "create", nil)
	m.Observe(audit.EntityCompany, "update", record.NotFound(audit.EntityCompany, "x"))
	m.Observe(audit.EntityPermit, "delete", fmt.Errorf("%w: down", record.ErrAuditIncomplete))

	require.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("company", "create", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("company", "update", "not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.auditIncomplete))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware("/mcp")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/mcp", "418")))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `padron_http_requests_total{method="POST",route="/mcp",status="418"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}
