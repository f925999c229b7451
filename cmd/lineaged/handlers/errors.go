package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/lineage"
)

// asHTTPError converts errors from the store or aggregations to HTTP errors.
func asHTTPError(err error) *echo.HTTPError {
	var noContext *lineage.NoContextError
	var missing kerr.Missing
	var toomuch kerr.TooMuch
	var dangling *lineage.DanglingReferenceError

	switch {
	case errors.As(err, &noContext):
		return apierr.NotFound(apierr.WithAdvice(noContext.Error()), apierr.WithError(err))
	case errors.As(err, &missing):
		return apierr.NotFound(apierr.WithAdvice(missing.Error()), apierr.WithError(err))
	case errors.As(err, &toomuch):
		return apierr.Conflict(
			"ambiguous records",
			apierr.WithAdvice(toomuch.Error()), apierr.WithError(err),
		)
	case errors.As(err, &dangling):
		return apierr.Conflict(
			"metadata store has a dangling reference",
			apierr.WithAdvice(dangling.Error()), apierr.WithError(err),
		)
	case errors.Is(err, kdb.ErrNoSchema):
		return apierr.ServiceUnavailable("metadata store is not initialized yet.", err)
	}
	return apierr.InternalServerError(err)
}

// parseIds parses comma separated ids. Empty elements are ignored.
func parseIds(param, value string) ([]int64, error) {
	ids := []int64{}
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, apierr.BadRequest(`"`+param+`" should be comma separated integers`, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseId(param, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, apierr.BadRequest(`"`+param+`" should be an integer`, err)
	}
	return id, nil
}

// splitRuns parses comma separated run ids. Empty elements are ignored.
func splitRuns(value string) []string {
	runs := []string{}
	for _, r := range strings.Split(value, ",") {
		if r = strings.TrimSpace(r); r != "" {
			runs = append(runs, r)
		}
	}
	return runs
}
