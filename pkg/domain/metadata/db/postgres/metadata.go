package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	kpool "github.com/opst/pipeline-lineage/pkg/conn/db/postgres/pool"
	"github.com/opst/pipeline-lineage/pkg/conn/db/postgres/scanner"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	xe "github.com/opst/pipeline-lineage/pkg/errors"
)

// metadataPG reads ML metadata recorded in PostgreSQL.
type metadataPG struct {
	pool kpool.Pool
}

var _ kdb.MetadataInterface = &metadataPG{}

// args:
//   - pool: connection pool used to query SQL
func New(pool kpool.Pool) kdb.MetadataInterface {
	return &metadataPG{pool: pool}
}

type contextRow struct {
	Id     int64
	Name   string
	TypeId int64
}

type executionRow struct {
	Id             int64
	TypeId         int64
	LastKnownState pgtype.Int4
}

type artifactRow struct {
	Id     int64
	TypeId int64
	Uri    pgtype.Text
	Name   pgtype.Text
	State  pgtype.Int4
}

type propertyRow struct {
	ArtifactId  int64
	Name        string
	IntValue    pgtype.Int8
	DoubleValue pgtype.Float8
	StringValue pgtype.Text
}

type eventRow struct {
	Id          int64
	ArtifactId  int64
	ExecutionId int64
	Type        int32
}

type eventPathRow struct {
	EventId     int64
	IsIndexStep bool
	StepIndex   pgtype.Int8
	StepKey     pgtype.Text
}

type typeRow struct {
	Id       int64
	Name     string
	TypeKind int32
}

// translate annotates errors from the database.
func translate(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == pgerrcode.UndefinedTable {
		return xe.WrapAsOuter(fmt.Errorf("%w: %w", kdb.ErrNoSchema, err), 1)
	}
	return xe.WrapAsOuter(err, 1)
}

func (m *metadataPG) GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer conn.Release()

	rows, err := scanner.New[contextRow]().QueryAll(
		ctx, conn,
		`
		select "c"."id", "c"."name", "c"."type_id"
		from "Context" as "c"
		inner join "Type" as "t" on "t"."id" = "c"."type_id"
		where "t"."name" = $1 and "t"."type_kind" = $2
		order by "c"."id"
		`,
		typeName, int32(domain.ContextTypeKind),
	)
	if err != nil {
		return nil, translate(err)
	}

	ret := make([]domain.Context, 0, len(rows))
	for _, r := range rows {
		c := domain.Context{Id: r.Id, Name: r.Name, TypeId: r.TypeId}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func (m *metadataPG) GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer conn.Release()

	rows, err := scanner.New[executionRow]().QueryAll(
		ctx, conn,
		`
		select "e"."id", "e"."type_id", "e"."last_known_state"
		from "Execution" as "e"
		inner join "Association" as "assoc" on "assoc"."execution_id" = "e"."id"
		where "assoc"."context_id" = $1
		order by "e"."id"
		`,
		contextId,
	)
	if err != nil {
		return nil, translate(err)
	}
	return toExecutions(rows)
}

func toExecutions(rows []executionRow) ([]domain.Execution, error) {
	ret := make([]domain.Execution, 0, len(rows))
	for _, r := range rows {
		e := domain.Execution{Id: r.Id, TypeId: r.TypeId, State: domain.ExecutionUnknown}
		if r.LastKnownState.Status == pgtype.Present {
			e.State = domain.AsExecutionState(strconv.FormatInt(int64(r.LastKnownState.Int), 10))
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

const selectArtifacts = `
select "a"."id", "a"."type_id", "a"."uri", "a"."name", "a"."state"
from "Artifact" as "a"
`

func (m *metadataPG) GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer conn.Release()

	return m.getArtifacts(
		ctx, conn,
		selectArtifacts+`
		inner join "Attribution" as "at" on "at"."artifact_id" = "a"."id"
		where "at"."context_id" = $1
		order by "a"."id"
		`,
		contextId,
	)
}

func (m *metadataPG) GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
	if len(artifactIds) == 0 {
		return []domain.Artifact{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer conn.Release()

	return m.getArtifacts(
		ctx, conn,
		selectArtifacts+`
		where "a"."id" = any($1)
		order by "a"."id"
		`,
		artifactIds,
	)
}

func (m *metadataPG) getArtifacts(ctx context.Context, conn kpool.Conn, query string, params ...interface{}) ([]domain.Artifact, error) {
	rows, err := scanner.New[artifactRow]().QueryAll(ctx, conn, query, params...)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return []domain.Artifact{}, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.Id
	}
	props, err := scanner.New[propertyRow]().QueryAll(
		ctx, conn,
		`
		select "artifact_id", "name", "int_value", "double_value", "string_value"
		from "ArtifactProperty"
		where "artifact_id" = any($1) and "is_custom_property"
		`,
		ids,
	)
	if err != nil {
		return nil, translate(err)
	}

	propsOf := map[int64]map[string]domain.Value{}
	for _, p := range props {
		v, ok := toValue(p)
		if !ok {
			continue
		}
		if _, ok := propsOf[p.ArtifactId]; !ok {
			propsOf[p.ArtifactId] = map[string]domain.Value{}
		}
		propsOf[p.ArtifactId][p.Name] = v
	}

	ret := make([]domain.Artifact, 0, len(rows))
	for _, r := range rows {
		a := domain.Artifact{
			Id: r.Id, TypeId: r.TypeId,
			Uri: textOrEmpty(r.Uri), Name: textOrEmpty(r.Name),
			State:      domain.ArtifactUnknown,
			Properties: propsOf[r.Id],
		}
		if r.State.Status == pgtype.Present {
			a.State = domain.AsArtifactState(strconv.FormatInt(int64(r.State.Int), 10))
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, a)
	}
	return ret, nil
}

func textOrEmpty(t pgtype.Text) string {
	if t.Status != pgtype.Present {
		return ""
	}
	return t.String
}

func toValue(p propertyRow) (domain.Value, bool) {
	switch {
	case p.IntValue.Status == pgtype.Present:
		return domain.Value{Kind: domain.IntValue, Int: p.IntValue.Int}, true
	case p.DoubleValue.Status == pgtype.Present:
		return domain.Value{Kind: domain.DoubleValue, Double: p.DoubleValue.Float}, true
	case p.StringValue.Status == pgtype.Present:
		return domain.Value{Kind: domain.StringValue, String: p.StringValue.String}, true
	}
	return domain.Value{}, false
}

func (m *metadataPG) GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
	if len(executionIds) == 0 {
		return []domain.Event{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer conn.Release()

	rows, err := scanner.New[eventRow]().QueryAll(
		ctx, conn,
		`
		select "id", "artifact_id", "execution_id", "type"
		from "Event"
		where "execution_id" = any($1)
		order by "execution_id", "artifact_id", "id"
		`,
		executionIds,
	)
	if err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return []domain.Event{}, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.Id
	}
	paths, err := scanner.New[eventPathRow]().QueryAll(
		ctx, conn,
		`
		select "event_id", "is_index_step", "step_index", "step_key"
		from "EventPath"
		where "event_id" = any($1)
		`,
		ids,
	)
	if err != nil {
		return nil, translate(err)
	}

	return toEvents(rows, paths)
}

func toEvents(rows []eventRow, paths []eventPathRow) ([]domain.Event, error) {
	stepsOf := map[int64][]domain.EventStep{}
	for _, p := range paths {
		if p.IsIndexStep {
			stepsOf[p.EventId] = append(stepsOf[p.EventId], domain.IndexStep(p.StepIndex.Int))
		} else {
			stepsOf[p.EventId] = append(stepsOf[p.EventId], domain.KeyStep(textOrEmpty(p.StepKey)))
		}
	}

	ret := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		typ, err := domain.AsEventType(strconv.FormatInt(int64(r.Type), 10))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", r.Id, err)
		}
		ev := domain.Event{
			ArtifactId:  r.ArtifactId,
			ExecutionId: r.ExecutionId,
			Type:        typ,
			Path:        stepsOf[r.Id],
		}
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

func (m *metadataPG) getType(ctx context.Context, typeId int64, kind domain.TypeKind) (domain.Type, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Type{}, translate(err)
	}
	defer conn.Release()

	rows, err := scanner.New[typeRow]().QueryAll(
		ctx, conn,
		`select "id", "name", "type_kind" from "Type" where "id" = $1 and "type_kind" = $2`,
		typeId, int32(kind),
	)
	if err != nil {
		return domain.Type{}, translate(err)
	}
	switch len(rows) {
	case 0:
		return domain.Type{}, kerr.Missing{
			Table: "Type", Identity: fmt.Sprintf("%s type (id: %d)", kind, typeId),
		}
	case 1:
		r := rows[0]
		return domain.Type{Id: r.Id, Name: r.Name, Kind: domain.TypeKind(r.TypeKind)}, nil
	default:
		return domain.Type{}, kerr.TooMuch{
			Table: "Type", Identity: fmt.Sprintf("%s type (id: %d)", kind, typeId),
			Expected: 1, Actual: len(rows),
		}
	}
}

func (m *metadataPG) GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ArtifactTypeKind)
}

func (m *metadataPG) GetContextType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ContextTypeKind)
}

func (m *metadataPG) GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ExecutionTypeKind)
}

func (m *metadataPG) FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
	size := kdb.NormalizePageSize(query.Size)
	after, err := kdb.DecodePageToken(query.Token, size)
	if err != nil {
		return domain.Page[domain.Execution]{}, err
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Page[domain.Execution]{}, translate(err)
	}
	defer conn.Release()

	// one more row tells there is the next page.
	rows, err := scanner.New[executionRow]().QueryAll(
		ctx, conn,
		`
		select "id", "type_id", "last_known_state"
		from "Execution"
		where "id" > $1
		order by "id"
		limit $2
		`,
		after, size+1,
	)
	if err != nil {
		return domain.Page[domain.Execution]{}, translate(err)
	}

	next := ""
	if size < len(rows) {
		rows = rows[:size]
		next = kdb.EncodePageToken(rows[size-1].Id, size)
	}

	items, err := toExecutions(rows)
	if err != nil {
		return domain.Page[domain.Execution]{}, err
	}
	return domain.Page[domain.Execution]{Items: items, NextToken: next}, nil
}
