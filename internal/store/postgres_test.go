package store

import (
	"encoding/json"
	"testing"
)

func TestKeysetQueryWithoutCursor(t *testing.T) {
	q, args := keysetQuery(`SELECT id FROM runs WHERE tenant_id=$1`, []any{"t1"}, "", 50)
	want := `SELECT id FROM runs WHERE tenant_id=$1 ORDER BY id::text LIMIT $2`
	if q != want {
		t.Fatalf("query:\n got %s\nwant %s", q, want)
	}
	if len(args) != 2 || args[1] != 50 {
		t.Fatalf("bad args: %v", args)
	}
}

func TestKeysetQueryWithCursor(t *testing.T) {
	q, args := keysetQuery(`SELECT id FROM runs WHERE tenant_id=$1 AND kind=$2`, []any{"t1", "tsp"}, "abc", 10)
	want := `SELECT id FROM runs WHERE tenant_id=$1 AND kind=$2 AND id::text > $3 ORDER BY id::text LIMIT $4`
	if q != want {
		t.Fatalf("query:\n got %s\nwant %s", q, want)
	}
	if len(args) != 4 || args[2] != "abc" || args[3] != 10 {
		t.Fatalf("bad args: %v", args)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: 100, -1: 100, 10: 10, 500: 500, 501: 100} {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNullHelpers(t *testing.T) {
	if v := nullIfEmpty(""); v != nil {
		t.Fatalf("empty string -> nil expected")
	}
	if v := nullIfEmpty("x"); v != "x" {
		t.Fatalf("non-empty passthrough expected")
	}
	if v := jsonOrNil(nil); v != nil {
		t.Fatalf("nil json -> nil expected")
	}
	if v := jsonOrNil(json.RawMessage(`{}`)); v == nil {
		t.Fatalf("non-empty json -> non-nil expected")
	}
}
