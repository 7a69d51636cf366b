package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

func TestValidate(t *testing.T) {
	ok := []string{
		"SELECT * FROM data",
		"  select region, sum(amount) from data group by region;",
		"WITH t AS (SELECT 1 AS x) SELECT x FROM t",
		"SELECT updated_at, created_by FROM data",
		"SELECT a FROM data UNION ALL SELECT b FROM data",
	}
	for _, q := range ok {
		if err := Validate(q); err != nil {
			t.Errorf("Validate(%q) = %v, want ok", q, err)
		}
	}
	bad := []string{
		"",
		"DELETE FROM data",
		"SELECT * FROM data; DROP TABLE data",
		"select * from data where 1=1 or drop",
		"SELECT * INTO x FROM data; SELECT 1",
		"SELECT * FROM data WHERE name = 'a' OR 1=1",
		"SELECT * FROM data /* hidden */",
		"SELECT * FROM data UNION SELECT * FROM secrets",
		"SELECT 1; -- done",
		"PRAGMA table_info(data)",
		"SELECT * FROM data WHERE x = 1; GRANT ALL ON data TO bob",
	}
	for _, q := range bad {
		var ve *ValidationError
		if err := Validate(q); !errors.As(err, &ve) {
			t.Errorf("Validate(%q) = %v, want ValidationError", q, err)
		}
	}
}

func sales() *dataset.Dataset {
	return dataset.Parse("id,region,amount,note\n1,North,1500,\n2,South,2300.5,vip\n3,North,890.25,\n4,East,1000,late")
}

func TestSchema(t *testing.T) {
	got := Schema(sales())
	want := `data("id" REAL, "region" TEXT, "amount" REAL, "note" TEXT)`
	if got != want {
		t.Fatalf("schema = %s", got)
	}
	if Schema(dataset.Empty()) != "" {
		t.Fatalf("empty dataset has no schema")
	}
}

func TestSQLiteExecutor(t *testing.T) {
	ctx := context.Background()
	ex, err := Open(ctx, Options{Backend: BackendSQLite}, sales())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ex.Close()

	res, err := Run(ctx, ex, "SELECT region, SUM(amount) AS total, COUNT(*) AS n FROM data GROUP BY region ORDER BY region;")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(res.Columns, []string{"region", "total", "n"}) || res.RowCount != 3 {
		t.Fatalf("result shape: %+v", res)
	}
	north := res.Rows[1]
	if r, _ := north.Get("region"); r.String() != "North" {
		t.Fatalf("order: %v", r)
	}
	if v, _ := north.Get("total"); v.Kind() != dataset.KindNumber || v.String() != "2390.25" {
		t.Fatalf("total: %v", v)
	}
	if v, _ := north.Get("n"); v.String() != "2" {
		t.Fatalf("count: %v", v)
	}
	if res.Dataset().Len() != 3 {
		t.Fatalf("dataset view")
	}

	nulls, err := Run(ctx, ex, "SELECT note FROM data WHERE id = 1")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := nulls.Rows[0].Get("note"); !c.IsEmpty() {
		t.Fatalf("empty cells load as NULL: %v", c)
	}
}

func TestSQLiteExecutorIsReadOnly(t *testing.T) {
	ctx := context.Background()
	ex, err := NewSQLiteExecutor(ctx, sales(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer ex.Close()
	// bypass Validate to reach the engine
	_, err = ex.Execute(ctx, "DELETE FROM data")
	var ee *ExecError
	if !errors.As(err, &ee) || ee.Backend != "sqlite" {
		t.Fatalf("expected ExecError, got %v", err)
	}
	res, err := ex.Execute(ctx, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := res.Rows[0].Get("n"); c.String() != "4" {
		t.Fatalf("rows were deleted: %v", c)
	}
}

func TestSQLiteMaxRows(t *testing.T) {
	ctx := context.Background()
	ex, err := NewSQLiteExecutor(ctx, sales(), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer ex.Close()
	res, err := ex.Execute(ctx, "SELECT * FROM data")
	if err != nil {
		t.Fatal(err)
	}
	if res.RowCount != 2 || !res.Truncated {
		t.Fatalf("limit: %+v", res)
	}
}

func TestHTTPExecutor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["query"] == "SELECT broken" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"syntax error near broken"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"region":"North","total":2390.25},{"region":"East","total":1000,"extra":true}],"rowCount":2}`))
	}))
	defer srv.Close()

	ex, err := Open(context.Background(), Options{Backend: BackendHTTP, URL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), ex, "SELECT region, total FROM data")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(res.Columns, []string{"region", "total", "extra"}) || res.RowCount != 2 {
		t.Fatalf("result: %+v", res)
	}
	if v, _ := res.Rows[0].Get("total"); v.Kind() != dataset.KindNumber {
		t.Fatalf("numbers must stay numeric: %v", v)
	}
	if v, _ := res.Rows[0].Get("extra"); !v.IsEmpty() {
		t.Fatalf("missing keys become empty: %v", v)
	}

	_, err = Run(context.Background(), ex, "SELECT broken")
	var ee *ExecError
	if !errors.As(err, &ee) || ee.Status != http.StatusBadRequest || ee.Message != "syntax error near broken" {
		t.Fatalf("expected ExecError, got %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "oracle"}, nil); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Open(context.Background(), Options{Backend: BackendHTTP}, nil); err == nil {
		t.Fatalf("http backend without url must fail")
	}
}

func TestPostgresExecutor(t *testing.T) {
	dsn := os.Getenv("DATANAV_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DATANAV_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	ex, err := Open(ctx, Options{Backend: BackendPostgres, DSN: dsn}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ex.Close()
	res, err := Run(ctx, ex, "SELECT 1.5::numeric AS x, 'a' AS y")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := res.Rows[0].Get("x"); v.Kind() != dataset.KindNumber {
		t.Fatalf("numeric: %v", v)
	}
}
