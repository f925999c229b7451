// Package scanner reads pgx.Rows into structs.
package scanner

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type Queryer interface {
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// Scanner reads rows into T, a struct.
//
// # example
//
//	type contextRow struct {
//		Id     int64
//		Name   string
//		TypeId int64 `sql:"type_id"`
//	}
//
//	rows, err := scanner.New[contextRow]().QueryAll(ctx, conn, `select "id", "name", "type_id" from "Context"`)
//
// # mapping rule
//
// A column is scanned into the first one found in:
//
//  1. a field tagged as `sql:"column_name"`
//  2. a field named as the column
//  3. a field named as the column in CamelCase ("artifact_id" -> "ArtifactId")
//
// Nullable columns should be scanned into pgtype fields (like pgtype.Text).
type Scanner[T any] interface {
	ScanAll(pgx.Rows) ([]T, error)

	// QueryAll sends query and scans all of its rows.
	QueryAll(context.Context, Queryer, string, ...interface{}) ([]T, error)
}

type scanner[T any] struct {
	fields map[string][]int
}

// New builds Scanner for T.
//
// It panics if T is not a struct.
func New[T any]() Scanner[T] {
	typ := reflect.TypeOf(*new(T))
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("scanner: %s is not a struct", typ))
	}

	fields := map[string][]int{}
	tagged := map[string][]int{}
	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		fields[f.Name] = f.Index
		if tag, ok := f.Tag.Lookup("sql"); ok {
			tagged[tag] = f.Index
		}
	}
	for col, index := range tagged {
		fields[col] = index
	}
	return &scanner[T]{fields: fields}
}

func camel(column string) string {
	b := &strings.Builder{}
	for _, word := range strings.Split(column, "_") {
		if word == "" {
			b.WriteByte('_')
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	return b.String()
}

func (s *scanner[T]) indexOf(column string) ([]int, bool) {
	if index, ok := s.fields[column]; ok {
		return index, true
	}
	index, ok := s.fields[camel(column)]
	return index, ok
}

func (s *scanner[T]) ScanAll(rows pgx.Rows) ([]T, error) {
	columns := rows.FieldDescriptions()
	plan := make([][]int, len(columns))
	for nth, fd := range columns {
		index, ok := s.indexOf(string(fd.Name))
		if !ok {
			return nil, fmt.Errorf(
				`scanner: no field for column "%s" (%s) in %T`,
				fd.Name, typeName(fd.DataTypeOID), *new(T),
			)
		}
		plan[nth] = index
	}

	ret := []T{}
	dest := make([]interface{}, len(plan))
	for rows.Next() {
		var row T
		rv := reflect.ValueOf(&row).Elem()
		for nth, index := range plan {
			dest[nth] = rv.FieldByIndex(index).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		ret = append(ret, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *scanner[T]) QueryAll(ctx context.Context, conn Queryer, query string, params ...interface{}) ([]T, error) {
	rows, err := conn.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.ScanAll(rows)
}

var connInfo = pgtype.NewConnInfo()

// name of postgres data type, for error messages.
func typeName(oid uint32) string {
	if dt, ok := connInfo.DataTypeForOID(oid); ok {
		return dt.Name
	}
	return fmt.Sprintf("oid %d", oid)
}
