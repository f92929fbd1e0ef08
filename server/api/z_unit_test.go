package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/metrics"
	"github.com/zintix-labs/ablab/sdk/core"
	"github.com/zintix-labs/ablab/server/api"
	"github.com/zintix-labs/ablab/server/logger"
	"github.com/zintix-labs/ablab/server/netsvr"
	"github.com/zintix-labs/ablab/server/svrcfg"
	"github.com/zintix-labs/ablab/setting"
	"gonum.org/v1/gonum/stat/distuv"
)

type staticProvider map[string]*dataset.Table

func (p staticProvider) Fetch(_ context.Context, client string) (*dataset.Table, error) {
	if t, ok := p[client]; ok {
		return t, nil
	}
	return nil, errs.Kindf(errs.DataUnavailable, "client not found: %s", client)
}

func experimentTable(n int, seed int64) *dataset.Table {
	c := core.NewWithSeed(seed)
	ln := distuv.LogNormal{Mu: 1, Sigma: 1, Src: c}
	rows := make([]dataset.Row, n)
	for i := range rows {
		group := "C"
		if i%2 == 0 {
			group = "Assetario"
		}
		var spend float64
		if c.IntN(2) == 0 {
			spend = ln.Rand()
		}
		rows[i] = dataset.Row{UserID: fmt.Sprintf("u%d", i), TestGroup: group, TotalSpend: spend, TotalWinsSpend: spend}
	}
	return dataset.New(rows...)
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	doc := fmt.Sprintf("sim_count: 2000\nraw_dir: %s\nprocessed_dir: %s\nwarehouse:\n  dsn: \"\"\nclients:\n  - name: homw\n  - name: ultimex\n",
		filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
	set, err := setting.FromYAML([]byte(doc))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	lab, err := ablab.New(set,
		ablab.WithProvider(staticProvider{"homw": experimentTable(6000, 42)}),
		ablab.WithMetrics(metrics.New()),
	)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	t.Cleanup(func() { _ = lab.Close() })

	svr := netsvr.NewChiServer("")
	sc := &svrcfg.SvrCfg{Lab: lab, Log: logger.NewDefaultLogger(logger.ModeSilence)}
	if err := sc.Vaild(); err != nil {
		t.Fatalf("svrcfg: %v", err)
	}
	if err := api.RegisterRoutes(svr, sc); err != nil {
		t.Fatalf("routes: %v", err)
	}
	return svr.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexAndListings(t *testing.T) {
	h := newServer(t)

	rec := do(t, h, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"service":"ablab"`) {
		t.Fatalf("index: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/clients", nil)
	var clients struct {
		Clients []struct {
			Name string `json:"name"`
		} `json:"clients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &clients); err != nil {
		t.Fatalf("clients body: %v", err)
	}
	if len(clients.Clients) != 2 || clients.Clients[0].Name != "homw" || clients.Clients[1].Name != "ultimex" {
		t.Fatalf("clients got %+v", clients)
	}

	rec = do(t, h, http.MethodGet, "/v1/distributions", nil)
	var dists struct {
		Configured []string `json:"configured"`
		Registered []string `json:"registered"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dists); err != nil {
		t.Fatalf("distributions body: %v", err)
	}
	if len(dists.Configured) != 6 || len(dists.Registered) != 6 {
		t.Fatalf("distributions got %+v", dists)
	}
}

func TestReportCachedAndMetrics(t *testing.T) {
	h := newServer(t)

	rec := do(t, h, http.MethodGet, "/v1/clients/homw/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "miss" {
		t.Fatalf("first call must miss the cache")
	}
	var rep struct {
		Client       string `json:"client"`
		Distribution string `json:"distribution"`
		Summary      []struct {
			Metric string `json:"metric"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("report body: %v", err)
	}
	if rep.Client != "homw" || rep.Distribution != "lognorm" || len(rep.Summary) != 5 {
		t.Fatalf("report got %+v", rep)
	}
	if rep.Summary[0].Metric != "P( P > C)" {
		t.Fatalf("first summary row got %q", rep.Summary[0].Metric)
	}

	rec = do(t, h, http.MethodGet, "/v1/clients/HOMW/report?format=table", nil)
	if rec.Header().Get("X-Cache") != "hit" {
		t.Fatalf("second call must hit the cache")
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") || !strings.Contains(rec.Body.String(), "E( loss | C > P)") {
		t.Fatalf("table render: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), `ablab_runs_total{client="homw",status="ok"} 1`) {
		t.Fatalf("metrics missing run counter:\n%s", rec.Body.String())
	}
}

func TestReportErrors(t *testing.T) {
	h := newServer(t)

	rec := do(t, h, http.MethodGet, "/v1/clients/ultimex/report", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing data: got %d want 404", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/clients/homw/report?format=xml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format: got %d want 400", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/clients/homw/report?refresh=maybe", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad refresh: got %d want 400", rec.Code)
	}
}

func columns(t *testing.T, tb *dataset.Table) []byte {
	t.Helper()
	b, err := json.Marshal(tb.ToColumns())
	if err != nil {
		t.Fatalf("marshal columns: %v", err)
	}
	return b
}

func TestEvaluate(t *testing.T) {
	h := newServer(t)

	rec := do(t, h, http.MethodPost, "/v1/evaluate?name=upload", columns(t, experimentTable(6000, 42)))
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"client":"upload"`) {
		t.Fatalf("evaluate body: %s", rec.Body.String())
	}

	ambiguous := dataset.New(
		dataset.Row{UserID: "u1", TestGroup: "X", TotalWinsSpend: 1},
		dataset.Row{UserID: "u2", TestGroup: "Y", TotalWinsSpend: 2},
	)
	rec = do(t, h, http.MethodPost, "/v1/evaluate?name=upload", columns(t, ambiguous))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("ambiguous cohort: got %d want 422 (%s)", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/evaluate", columns(t, ambiguous))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: got %d want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/evaluate?name=upload", []byte(`{"user_id":["u1"],"test_group":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ragged columns: got %d want 400", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/evaluate?name=upload", []byte(`{"cohort":["P"]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: got %d want 400", rec.Code)
	}
}

func TestSamples(t *testing.T) {
	h := newServer(t)
	scenario := dataset.New(
		dataset.Row{UserID: "u1", TestGroup: "Control", TotalSpend: 0, TotalWinsSpend: 0},
		dataset.Row{UserID: "u2", TestGroup: "Control", TotalSpend: 100, TotalWinsSpend: 95},
		dataset.Row{UserID: "u3", TestGroup: "P", TotalSpend: 50, TotalWinsSpend: 50},
		dataset.Row{UserID: "u4", TestGroup: "P", TotalSpend: 0, TotalWinsSpend: 0},
	)

	rec := do(t, h, http.MethodPost, "/v1/samples?hdi=0.9", columns(t, scenario))
	if rec.Code != http.StatusOK {
		t.Fatalf("samples: %d %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Variants  []string    `json:"variants"`
		Samples   [][]float64 `json:"samples"`
		Intervals []struct {
			Variant string `json:"variant"`
		} `json:"intervals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("samples body: %v", err)
	}
	if len(got.Variants) != 2 || got.Variants[0] != "P" || got.Variants[1] != "C" {
		t.Fatalf("variants got %v", got.Variants)
	}
	if len(got.Samples) != 2 || len(got.Samples[0]) != 2000 {
		t.Fatalf("samples shape got %d", len(got.Samples))
	}
	if len(got.Intervals) == 0 {
		t.Fatalf("expected intervals with hdi set")
	}

	rec = do(t, h, http.MethodPost, "/v1/samples?family=gamma", columns(t, scenario))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unsupported family: got %d want 422", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/samples?hdi=2", columns(t, scenario))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad hdi: got %d want 400", rec.Code)
	}
}
