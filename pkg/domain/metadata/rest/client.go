// Package rest reads ML metadata through the HTTP API of another lineaged.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apierr "github.com/opst/pipeline-lineage/pkg/api/types/errors"
	apimeta "github.com/opst/pipeline-lineage/pkg/api/types/metadata"
	bindmeta "github.com/opst/pipeline-lineage/pkg/api-types-binding/metadata"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	"github.com/opst/pipeline-lineage/pkg/utils"
)

// ResponseError is an error response from the server.
type ResponseError struct {
	StatusCode int

	// message sent from the server. Reason is empty when the body is not ErrorResponse.
	Message apierr.ErrorMessage
	Body    string
}

func (e *ResponseError) Error() string {
	if e.Message.Reason != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message.String())
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

type client struct {
	httpclient *http.Client
	api        string
}

var _ kdb.MetadataInterface = &client{}

// New creates a metadata store client.
//
// # Args
//
// - apiRoot: URL where the metadata API is served. For example, "http://lineaged:8080/api/metadata".
//
// - httpclient: client to be used. If nil, http.DefaultClient is used.
func New(apiRoot string, httpclient *http.Client) (kdb.MetadataInterface, error) {
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api root should be http(s) URL: %s", apiRoot)
	}
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	return &client{httpclient: httpclient, api: strings.TrimSuffix(apiRoot, "/")}, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = utils.Map(path, func(p string) string {
		return url.PathEscape(strings.Trim(p, "/"))
	})
	return strings.Join(append([]string{c.api}, path...), "/")
}

func ids(ids []int64) string {
	return strings.Join(utils.Map(ids, func(i int64) string { return strconv.FormatInt(i, 10) }), ",")
}

// getJson sends GET request and decodes its json response into T.
//
// 404 response is reported as errors.Missing of the resource.
func getJson[T any](ctx context.Context, c *client, resource string, query url.Values, path ...string) (T, error) {
	var ret T

	u := c.apipath(path...)
	if len(query) != 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ret, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return ret, err
	}
	defer resp.Body.Close()

	if 200 <= resp.StatusCode && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
			return ret, fmt.Errorf("%w: unexpected response (status code = %d): %w", kerr.ErrInvalidRecord, resp.StatusCode, err)
		}
		return ret, nil
	}

	rerr := &ResponseError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		rerr.Body = fmt.Sprintf("(cannot read server message: %s)", err)
	} else {
		rerr.Body = string(body)
		eresp := apierr.ErrorResponse{}
		if err := json.Unmarshal(body, &eresp); err == nil {
			rerr.Message = eresp.Message
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return ret, fmt.Errorf("%w (%w)", kerr.Missing{Table: resource, Identity: strings.Join(path, "/")}, rerr)
	}
	return ret, rerr
}

func (c *client) GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error) {
	resp, err := getJson[[]apimeta.Context](
		ctx, c, "Context", url.Values{"type": []string{typeName}}, "contexts",
	)
	if err != nil {
		return nil, err
	}
	return utils.MapUntilError(resp, bindmeta.ParseContext)
}

func (c *client) GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
	resp, err := getJson[[]apimeta.Artifact](
		ctx, c, "Context", nil, "contexts", strconv.FormatInt(contextId, 10), "artifacts",
	)
	if err != nil {
		return nil, err
	}
	return utils.MapUntilError(resp, bindmeta.ParseArtifact)
}

func (c *client) GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error) {
	resp, err := getJson[[]apimeta.Execution](
		ctx, c, "Context", nil, "contexts", strconv.FormatInt(contextId, 10), "executions",
	)
	if err != nil {
		return nil, err
	}
	return utils.MapUntilError(resp, bindmeta.ParseExecution)
}

func (c *client) GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
	if len(executionIds) == 0 {
		return []domain.Event{}, nil
	}
	resp, err := getJson[[]apimeta.Event](
		ctx, c, "Event", url.Values{"execution": []string{ids(executionIds)}}, "events",
	)
	if err != nil {
		return nil, err
	}
	return utils.MapUntilError(resp, bindmeta.ParseEvent)
}

func (c *client) GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
	if len(artifactIds) == 0 {
		return []domain.Artifact{}, nil
	}
	resp, err := getJson[[]apimeta.Artifact](
		ctx, c, "Artifact", url.Values{"id": []string{ids(artifactIds)}}, "artifacts",
	)
	if err != nil {
		return nil, err
	}
	return utils.MapUntilError(resp, bindmeta.ParseArtifact)
}

func (c *client) getType(ctx context.Context, typeId int64, kind domain.TypeKind) (domain.Type, error) {
	resp, err := getJson[apimeta.Type](
		ctx, c, "Type", nil, "types", kind.String(), strconv.FormatInt(typeId, 10),
	)
	if err != nil {
		return domain.Type{}, err
	}
	t, err := bindmeta.ParseType(resp)
	if err != nil {
		return domain.Type{}, err
	}
	if t.Kind != kind || t.Id != typeId {
		return domain.Type{}, kerr.InvalidRecord{
			Kind: "type", Id: t.Id, Reason: fmt.Sprintf("%s type (id: %d) is requested", kind, typeId),
		}
	}
	return t, nil
}

func (c *client) GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error) {
	return c.getType(ctx, typeId, domain.ArtifactTypeKind)
}

func (c *client) GetContextType(ctx context.Context, typeId int64) (domain.Type, error) {
	return c.getType(ctx, typeId, domain.ContextTypeKind)
}

func (c *client) GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error) {
	return c.getType(ctx, typeId, domain.ExecutionTypeKind)
}

func (c *client) FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
	q := url.Values{}
	if query.Token != "" {
		q.Set("pageToken", query.Token)
	}
	if 0 < query.Size {
		q.Set("pageSize", strconv.Itoa(query.Size))
	}

	resp, err := getJson[apimeta.ExecutionPage](ctx, c, "Execution", q, "executions")
	if err != nil {
		var rerr *ResponseError
		if query.Token != "" && errors.As(err, &rerr) && rerr.StatusCode == http.StatusBadRequest {
			return domain.Page[domain.Execution]{}, fmt.Errorf("%w: %w", kdb.ErrInvalidPageToken, err)
		}
		return domain.Page[domain.Execution]{}, err
	}
	return bindmeta.ParseExecutionPage(resp)
}
