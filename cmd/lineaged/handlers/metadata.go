package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	bindmeta "github.com/opst/pipeline-lineage/pkg/api-types-binding/metadata"
	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

// GET /api/metadata/contexts?type=T
func GetContextsHandler(store kdb.MetadataInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		typ := c.QueryParam("type")
		if typ == "" {
			return apierr.BadRequest(`"type" is required`, nil)
		}

		contexts, err := store.GetContextsByType(c.Request().Context(), typ)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(contexts, bindmeta.ComposeContext))
	}
}

// GET /api/metadata/contexts/:contextId/artifacts
func GetContextArtifactsHandler(store kdb.MetadataInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		contextId, err := parseId(param, c.Param(param))
		if err != nil {
			return err
		}

		artifacts, err := store.GetArtifactsByContext(c.Request().Context(), contextId)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(artifacts, bindmeta.ComposeArtifact))
	}
}

// GET /api/metadata/contexts/:contextId/executions
func GetContextExecutionsHandler(store kdb.MetadataInterface, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		contextId, err := parseId(param, c.Param(param))
		if err != nil {
			return err
		}

		executions, err := store.GetExecutionsByContext(c.Request().Context(), contextId)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(executions, bindmeta.ComposeExecution))
	}
}

// GET /api/metadata/events?execution=1,2
func GetEventsHandler(store kdb.MetadataInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, err := parseIds("execution", c.QueryParam("execution"))
		if err != nil {
			return err
		}

		events, err := store.GetEventsByExecutionIds(c.Request().Context(), ids)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(events, bindmeta.ComposeEvent))
	}
}

// GET /api/metadata/artifacts?id=1,2
func GetArtifactsHandler(store kdb.MetadataInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ids, err := parseIds("id", c.QueryParam("id"))
		if err != nil {
			return err
		}

		artifacts, err := store.GetArtifactsById(c.Request().Context(), ids)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, utils.Map(artifacts, bindmeta.ComposeArtifact))
	}
}

// GET /api/metadata/types/:kind/:typeId
func GetTypeHandler(store kdb.MetadataInterface, kindParam string, idParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		typeId, err := parseId(idParam, c.Param(idParam))
		if err != nil {
			return err
		}

		kind, err := domain.AsTypeKind(c.Param(kindParam))
		if err != nil {
			return apierr.NotFound(apierr.WithAdvice(`kind should be one of "artifact", "context" or "execution"`))
		}

		ctx := c.Request().Context()
		var typ domain.Type
		switch kind {
		case domain.ArtifactTypeKind:
			typ, err = store.GetArtifactType(ctx, typeId)
		case domain.ContextTypeKind:
			typ, err = store.GetContextType(ctx, typeId)
		case domain.ExecutionTypeKind:
			typ, err = store.GetExecutionType(ctx, typeId)
		}
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, bindmeta.ComposeType(typ))
	}
}

// GET /api/metadata/executions?pageToken=&pageSize=
func FindExecutionsHandler(store kdb.MetadataInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := domain.PageQuery{Token: c.QueryParam("pageToken")}
		if s := c.QueryParam("pageSize"); s != "" {
			size, err := strconv.Atoi(s)
			if err != nil || size <= 0 || kdb.MaxPageSize < size {
				return apierr.BadRequest(
					`"pageSize" should be an integer in 1 to `+strconv.Itoa(kdb.MaxPageSize),
					err,
				)
			}
			query.Size = size
		}

		page, err := store.FindExecutions(c.Request().Context(), query)
		if errors.Is(err, kdb.ErrInvalidPageToken) {
			return apierr.BadRequest(`"pageToken" is invalid, or issued for other "pageSize"`, err)
		} else if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, bindmeta.ComposeExecutionPage(page))
	}
}
