package scanner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgtype"
	"github.com/opst/pipeline-lineage/pkg/conn/db/postgres/pgfake"
	"github.com/opst/pipeline-lineage/pkg/conn/db/postgres/scanner"
)

type artifactRow struct {
	Id     int64
	TypeId int64
	Uri    pgtype.Text `sql:"artifact_uri"`
}

func TestScanner_QueryAll(t *testing.T) {
	t.Run("it maps columns by tag, name and camel case name", func(t *testing.T) {
		conn := pgfake.NewConn(pgfake.Route{
			Contains: `from "Artifact"`,
			Rows: pgfake.Rows(
				[]string{"id", "type_id", "artifact_uri"},
				[]interface{}{int64(1), int64(10), pgtype.Text{String: "s3://a", Status: pgtype.Present}},
				[]interface{}{int64(2), int64(11), pgtype.Text{Status: pgtype.Null}},
			),
		})

		actual, err := scanner.New[artifactRow]().QueryAll(
			context.Background(), conn, `select "id", "type_id", "uri" as "artifact_uri" from "Artifact"`,
		)
		if err != nil {
			t.Fatal(err)
		}

		expected := []artifactRow{
			{Id: 1, TypeId: 10, Uri: pgtype.Text{String: "s3://a", Status: pgtype.Present}},
			{Id: 2, TypeId: 11, Uri: pgtype.Text{Status: pgtype.Null}},
		}
		if len(actual) != len(expected) {
			t.Fatalf("not match:\n- actual   : %+v\n- expected : %+v", actual, expected)
		}
		for i := range expected {
			if actual[i] != expected[i] {
				t.Errorf("not match:\n- actual   : %+v\n- expected : %+v", actual[i], expected[i])
			}
		}
	})

	t.Run("it fails when a column has no field", func(t *testing.T) {
		conn := pgfake.NewConn(pgfake.Route{
			Contains: `from "Artifact"`,
			Rows:     pgfake.Rows([]string{"id", "unknown_column"}),
		})

		_, err := scanner.New[artifactRow]().QueryAll(
			context.Background(), conn, `select "id", "unknown_column" from "Artifact"`,
		)
		if err == nil || !strings.Contains(err.Error(), "unknown_column") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
