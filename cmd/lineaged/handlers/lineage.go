package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	bindlin "github.com/opst/pipeline-lineage/pkg/api-types-binding/lineage"
	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	apilin "github.com/opst/pipeline-lineage/pkg/api/types/lineage"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/lineage"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

// contextTypeOf returns the Context type in query "type", or defaultType.
func contextTypeOf(c echo.Context, defaultType string) string {
	if t := c.QueryParam("type"); t != "" {
		return t
	}
	return defaultType
}

// GET /api/lineage/runs/:runId?type=T
//
// It responds a run with its Artifacts linked to Events, and its lineage graph.
func GetRunHandler(store kdb.MetadataInterface, param string, defaultType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		run := c.Param(param)

		rc, err := lineage.ResolveContext(ctx, store, run, contextTypeOf(c, defaultType))
		if err != nil {
			return asHTTPError(err)
		}

		bundle, err := lineage.FetchRunRelations(ctx, store, rc)
		if err != nil {
			return asHTTPError(err)
		}
		bundle.Run = run

		linked, err := lineage.LinkArtifacts(bundle.Events, bundle.Artifacts)
		if err != nil {
			return asHTTPError(err)
		}

		graph, err := lineage.BuildGraph(bundle)
		if err != nil {
			return asHTTPError(err)
		}

		return c.JSON(http.StatusOK, bindlin.ComposeDetail(bundle, linked, graph))
	}
}

// queryRuns reads runs and options of lineage queries.
func queryRuns(c echo.Context) ([]string, bool, error) {
	runs := splitRuns(c.QueryParam("run"))
	if len(runs) == 0 {
		return nil, false, apierr.BadRequest(`"run" is required`, nil)
	}

	partial := false
	if p := c.QueryParam("partial"); p != "" {
		b, err := strconv.ParseBool(p)
		if err != nil {
			return nil, false, apierr.BadRequest(`"partial" should be true or false`, err)
		}
		partial = b
	}
	return runs, partial, nil
}

// GET /api/lineage?run=a,b&type=T&partial=true
//
// By default, any failure of runs fails the request.
// With partial=true, failed runs are reported in "errors" of the response.
func GetLineageHandler(store kdb.MetadataInterface, defaultType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		runs, partial, err := queryRuns(c)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		contexts, err := lineage.ResolveContexts(ctx, store, runs, contextTypeOf(c, defaultType))
		if err != nil {
			return asHTTPError(err)
		}

		if partial {
			results := lineage.AggregateRunsSettled(ctx, store, runs, contexts)
			return c.JSON(http.StatusOK, bindlin.ComposeSettled(results))
		}

		bundles, err := lineage.AggregateRuns(ctx, store, runs, contexts)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, apilin.Lineage{
			Runs: utils.Map(bundles, bindlin.ComposeBundle),
		})
	}
}

// GET /api/lineage/metrics?run=a,b&type=T
//
// artifactTypes is shared across requests to cache type names.
func GetMetricsHandler(store kdb.MetadataInterface, artifactTypes *lineage.TypeNameResolver, defaultType string) echo.HandlerFunc {
	return func(c echo.Context) error {
		runs := splitRuns(c.QueryParam("run"))
		if len(runs) == 0 {
			return apierr.BadRequest(`"run" is required`, nil)
		}

		ctx := c.Request().Context()
		contexts, err := lineage.ResolveContexts(ctx, store, runs, contextTypeOf(c, defaultType))
		if err != nil {
			return asHTTPError(err)
		}
		bundles, err := lineage.AggregateRuns(ctx, store, runs, contexts)
		if err != nil {
			return asHTTPError(err)
		}

		metrics, err := lineage.CompareMetrics(ctx, artifactTypes, bundles)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(metrics, bindlin.ComposeRunMetrics))
	}
}
