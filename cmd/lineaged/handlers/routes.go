package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/metrics"
)

// api returns the path under /api, with trailing slash.
func api(path ...string) string {
	return "/api/" + strings.Join(path, "/") + "/"
}

// Register adds routes of lineaged to e.
//
// Requests should be normalized by middleware.AddTrailingSlash.
//
// Args
//
// - *echo.Echo
//
// - kdb.MetadataInterface: store to be read.
//
// - *metrics.StoreMetrics: statistics served at /metrics. When nil, /metrics is not registered.
//
// - string: Context type of runs, used when requests do not specify it.
func Register(e *echo.Echo, store kdb.MetadataInterface, m *metrics.StoreMetrics, contextType string) {
	{
		contextId := "contextId"
		e.GET(api("metadata", "contexts"), GetContextsHandler(store))
		e.GET(
			api("metadata", "contexts", ":"+contextId, "artifacts"),
			GetContextArtifactsHandler(store, contextId),
		)
		e.GET(
			api("metadata", "contexts", ":"+contextId, "executions"),
			GetContextExecutionsHandler(store, contextId),
		)
		e.GET(api("metadata", "events"), GetEventsHandler(store))
		e.GET(api("metadata", "artifacts"), GetArtifactsHandler(store))
		e.GET(api("metadata", "types", ":kind", ":typeId"), GetTypeHandler(store, "kind", "typeId"))
		e.GET(api("metadata", "executions"), FindExecutionsHandler(store))
	}

	{
		e.GET(api("lineage"), GetLineageHandler(store, contextType))
		e.GET(api("lineage", "runs", ":runId"), GetRunHandler(store, "runId", contextType))
		e.GET(
			api("lineage", "metrics"),
			GetMetricsHandler(store, lineage.ArtifactTypeNames(store), contextType),
		)
	}

	if m != nil {
		e.GET("/metrics/", MetricsHandler(m))
	}
}
