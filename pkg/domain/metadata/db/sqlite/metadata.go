// Package sqlite reads ML metadata recorded in a SQLite file.
//
// The schema is same as one in PostgreSQL. See package postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/opst/pipeline-lineage/pkg/domain"
	kerr "github.com/opst/pipeline-lineage/pkg/domain/errors"
	kdb "github.com/opst/pipeline-lineage/pkg/domain/metadata/db"
	xe "github.com/opst/pipeline-lineage/pkg/errors"
)

type metadataSQLite struct {
	db *sql.DB
}

var _ kdb.MetadataInterface = &metadataSQLite{}

// Open opens the metadata store file in read-only mode.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xe.Wrap(err)
	}
	return db, nil
}

func New(db *sql.DB) kdb.MetadataInterface {
	return &metadataSQLite{db: db}
}

func translate(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrError && strings.Contains(serr.Error(), "no such table") {
		return xe.WrapAsOuter(fmt.Errorf("%w: %w", kdb.ErrNoSchema, err), 1)
	}
	return xe.WrapAsOuter(err, 1)
}

// placeholders returns "?, ?, ..." for ids, and ids as query args.
func placeholders(ids []int64) (string, []interface{}) {
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return strings.Join(ph, ", "), args
}

func (m *metadataSQLite) GetContextsByType(ctx context.Context, typeName string) ([]domain.Context, error) {
	rows, err := m.db.QueryContext(
		ctx,
		`
		select "c"."id", "c"."name", "c"."type_id"
		from "Context" as "c"
		inner join "Type" as "t" on "t"."id" = "c"."type_id"
		where "t"."name" = ? and "t"."type_kind" = ?
		order by "c"."id"
		`,
		typeName, int32(domain.ContextTypeKind),
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ret := []domain.Context{}
	for rows.Next() {
		c := domain.Context{}
		if err := rows.Scan(&c.Id, &c.Name, &c.TypeId); err != nil {
			return nil, translate(err)
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return ret, nil
}

func (m *metadataSQLite) queryExecutions(ctx context.Context, query string, args ...interface{}) ([]domain.Execution, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ret := []domain.Execution{}
	for rows.Next() {
		e := domain.Execution{}
		state := sql.NullInt32{}
		if err := rows.Scan(&e.Id, &e.TypeId, &state); err != nil {
			return nil, translate(err)
		}
		e.State = domain.ExecutionUnknown
		if state.Valid {
			e.State = domain.AsExecutionState(strconv.Itoa(int(state.Int32)))
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return ret, nil
}

func (m *metadataSQLite) GetExecutionsByContext(ctx context.Context, contextId int64) ([]domain.Execution, error) {
	return m.queryExecutions(
		ctx,
		`
		select "e"."id", "e"."type_id", "e"."last_known_state"
		from "Execution" as "e"
		inner join "Association" as "assoc" on "assoc"."execution_id" = "e"."id"
		where "assoc"."context_id" = ?
		order by "e"."id"
		`,
		contextId,
	)
}

const selectArtifacts = `
select "a"."id", "a"."type_id", "a"."uri", "a"."name", "a"."state"
from "Artifact" as "a"
`

func (m *metadataSQLite) GetArtifactsByContext(ctx context.Context, contextId int64) ([]domain.Artifact, error) {
	return m.queryArtifacts(
		ctx,
		selectArtifacts+`
		inner join "Attribution" as "at" on "at"."artifact_id" = "a"."id"
		where "at"."context_id" = ?
		order by "a"."id"
		`,
		contextId,
	)
}

func (m *metadataSQLite) GetArtifactsById(ctx context.Context, artifactIds []int64) ([]domain.Artifact, error) {
	if len(artifactIds) == 0 {
		return []domain.Artifact{}, nil
	}
	ph, args := placeholders(artifactIds)
	return m.queryArtifacts(
		ctx,
		selectArtifacts+`where "a"."id" in (`+ph+`) order by "a"."id"`,
		args...,
	)
}

func (m *metadataSQLite) queryArtifacts(ctx context.Context, query string, args ...interface{}) ([]domain.Artifact, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ret := []domain.Artifact{}
	for rows.Next() {
		a := domain.Artifact{}
		uri, name := sql.NullString{}, sql.NullString{}
		state := sql.NullInt32{}
		if err := rows.Scan(&a.Id, &a.TypeId, &uri, &name, &state); err != nil {
			return nil, translate(err)
		}
		a.Uri, a.Name = uri.String, name.String
		a.State = domain.ArtifactUnknown
		if state.Valid {
			a.State = domain.AsArtifactState(strconv.Itoa(int(state.Int32)))
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, a)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	rows.Close()

	if len(ret) == 0 {
		return ret, nil
	}

	ids := make([]int64, len(ret))
	for i := range ret {
		ids[i] = ret[i].Id
	}
	props, err := m.properties(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range ret {
		ret[i].Properties = props[ret[i].Id]
	}
	return ret, nil
}

func (m *metadataSQLite) properties(ctx context.Context, artifactIds []int64) (map[int64]map[string]domain.Value, error) {
	ph, args := placeholders(artifactIds)
	rows, err := m.db.QueryContext(
		ctx,
		`
		select "artifact_id", "name", "int_value", "double_value", "string_value"
		from "ArtifactProperty"
		where "is_custom_property" and "artifact_id" in (`+ph+`)
		`,
		args...,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ret := map[int64]map[string]domain.Value{}
	for rows.Next() {
		var artifactId int64
		var name string
		iv, dv, sv := sql.NullInt64{}, sql.NullFloat64{}, sql.NullString{}
		if err := rows.Scan(&artifactId, &name, &iv, &dv, &sv); err != nil {
			return nil, translate(err)
		}

		var v domain.Value
		switch {
		case iv.Valid:
			v = domain.Value{Kind: domain.IntValue, Int: iv.Int64}
		case dv.Valid:
			v = domain.Value{Kind: domain.DoubleValue, Double: dv.Float64}
		case sv.Valid:
			v = domain.Value{Kind: domain.StringValue, String: sv.String}
		default:
			continue
		}
		if _, ok := ret[artifactId]; !ok {
			ret[artifactId] = map[string]domain.Value{}
		}
		ret[artifactId][name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return ret, nil
}

func (m *metadataSQLite) GetEventsByExecutionIds(ctx context.Context, executionIds []int64) ([]domain.Event, error) {
	if len(executionIds) == 0 {
		return []domain.Event{}, nil
	}

	ph, args := placeholders(executionIds)
	rows, err := m.db.QueryContext(
		ctx,
		`
		select "id", "artifact_id", "execution_id", "type"
		from "Event"
		where "execution_id" in (`+ph+`)
		order by "execution_id", "artifact_id", "id"
		`,
		args...,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	type eventRecord struct {
		id    int64
		event domain.Event
	}
	records := []eventRecord{}
	for rows.Next() {
		r := eventRecord{}
		var typ int32
		if err := rows.Scan(&r.id, &r.event.ArtifactId, &r.event.ExecutionId, &typ); err != nil {
			return nil, translate(err)
		}
		t, err := domain.AsEventType(strconv.Itoa(int(typ)))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", r.id, err)
		}
		r.event.Type = t
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	rows.Close()

	ret := make([]domain.Event, 0, len(records))
	if len(records) == 0 {
		return ret, nil
	}

	eventIds := make([]int64, len(records))
	for i, r := range records {
		eventIds[i] = r.id
	}
	steps, err := m.paths(ctx, eventIds)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		ev := r.event
		ev.Path = steps[r.id]
		if err := ev.Validate(); err != nil {
			return nil, err
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

func (m *metadataSQLite) paths(ctx context.Context, eventIds []int64) (map[int64][]domain.EventStep, error) {
	ph, args := placeholders(eventIds)
	rows, err := m.db.QueryContext(
		ctx,
		`
		select "event_id", "is_index_step", "step_index", "step_key"
		from "EventPath"
		where "event_id" in (`+ph+`)
		`,
		args...,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ret := map[int64][]domain.EventStep{}
	for rows.Next() {
		var eventId int64
		var isIndex bool
		index, key := sql.NullInt64{}, sql.NullString{}
		if err := rows.Scan(&eventId, &isIndex, &index, &key); err != nil {
			return nil, translate(err)
		}
		if isIndex {
			ret[eventId] = append(ret[eventId], domain.IndexStep(index.Int64))
		} else {
			ret[eventId] = append(ret[eventId], domain.KeyStep(key.String))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return ret, nil
}

func (m *metadataSQLite) getType(ctx context.Context, typeId int64, kind domain.TypeKind) (domain.Type, error) {
	identity := fmt.Sprintf("%s type (id: %d)", kind, typeId)

	t := domain.Type{Kind: kind}
	err := m.db.QueryRowContext(
		ctx,
		`select "id", "name" from "Type" where "id" = ? and "type_kind" = ?`,
		typeId, int32(kind),
	).Scan(&t.Id, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Type{}, kerr.Missing{Table: "Type", Identity: identity}
	} else if err != nil {
		return domain.Type{}, translate(err)
	}
	return t, nil
}

func (m *metadataSQLite) GetArtifactType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ArtifactTypeKind)
}

func (m *metadataSQLite) GetContextType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ContextTypeKind)
}

func (m *metadataSQLite) GetExecutionType(ctx context.Context, typeId int64) (domain.Type, error) {
	return m.getType(ctx, typeId, domain.ExecutionTypeKind)
}

func (m *metadataSQLite) FindExecutions(ctx context.Context, query domain.PageQuery) (domain.Page[domain.Execution], error) {
	size := kdb.NormalizePageSize(query.Size)
	after, err := kdb.DecodePageToken(query.Token, size)
	if err != nil {
		return domain.Page[domain.Execution]{}, err
	}

	items, err := m.queryExecutions(
		ctx,
		`
		select "id", "type_id", "last_known_state"
		from "Execution"
		where "id" > ?
		order by "id"
		limit ?
		`,
		after, size+1,
	)
	if err != nil {
		return domain.Page[domain.Execution]{}, err
	}

	next := ""
	if size < len(items) {
		items = items[:size]
		next = kdb.EncodePageToken(items[size-1].Id, size)
	}
	return domain.Page[domain.Execution]{Items: items, NextToken: next}, nil
}
