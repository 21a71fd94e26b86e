package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

const upsertState = `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`

func TestStubUpsertReplacesBucketRow(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	for _, payload := range []string{`[]`, `[{"id":1}]`} {
		if _, err := conn.ExecContext(ctx, upsertState, []driver.NamedValue{{Value: "taxonomies"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := conn.ExecContext(ctx, upsertState, []driver.NamedValue{{Value: "counters"}, {Value: []byte(`{}`)}}); err != nil {
		t.Fatalf("upsert counters: %v", err)
	}
	if got := len(conn.Tables["state"]); got != 2 {
		t.Fatalf("expected one row per bucket, got %d: %v", got, conn.Tables["state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer func() { _ = rows.Close() }()
	got := map[string]string{}
	dest := make([]driver.Value, 2)
	for {
		if err := rows.Next(dest); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("next: %v", err)
		}
		got[dest[0].(string)] = string(dest[1].([]byte))
	}
	if got["taxonomies"] != `[{"id":1}]` || got["counters"] != `{}` {
		t.Fatalf("unexpected state rows: %v", got)
	}
}

func TestStubNonInsertStatementsOnlyRecorded(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	res, err := conn.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload JSONB NOT NULL)", nil)
	if err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("expected no rows affected, got %d", n)
	}
	if len(conn.Execs) != 1 || len(conn.Tables) != 0 {
		t.Fatalf("expected statement recorded without rows, execs=%v tables=%v", conn.Execs, conn.Tables)
	}
}

func TestStubFailureSwitches(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}

	conn.FailBegin = true
	if _, err := conn.BeginTx(ctx, driver.TxOptions{}); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailBegin = false

	conn.FailCommit = true
	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatalf("expected commit failure")
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	conn.FailTables = map[string]bool{"state": true}
	if _, err := conn.ExecContext(ctx, upsertState, []driver.NamedValue{{Value: "counters"}, {Value: []byte(`{}`)}}); err == nil {
		t.Fatalf("expected exec failure for state")
	}
	if _, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil); err == nil {
		t.Fatalf("expected query failure for state")
	}

	conn.FailTables = nil
	if _, err := conn.ExecContext(ctx, "INSERT INTO state(bucket) VALUES($1,$2)", []driver.NamedValue{{Value: "a"}, {Value: "b"}}); err == nil {
		t.Fatalf("expected column/arg mismatch")
	}
	if _, err := conn.QueryContext(ctx, "DELETE FROM state", nil); err == nil {
		t.Fatalf("expected unparseable select")
	}
}
