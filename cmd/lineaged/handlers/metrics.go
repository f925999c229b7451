package handlers

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	"github.com/opst/pipeline-lineage/pkg/metrics"
	"github.com/prometheus/common/expfmt"
)

// GET /metrics
//
// It responds store call statistics in Prometheus text format.
func MetricsHandler(m *metrics.StoreMetrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		buf := new(bytes.Buffer)
		if err := m.WriteText(buf); err != nil {
			return apierr.InternalServerError(err)
		}
		return c.Blob(http.StatusOK, string(expfmt.NewFormat(expfmt.TypeTextPlain)), buf.Bytes())
	}
}
