package v1

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/report"
	"github.com/zintix-labs/ablab/server/httperr"
	"github.com/zintix-labs/ablab/server/netsvr"
	"golang.org/x/sync/singleflight"
)

// reportCache 以 client 為 key 的報表快取。同一 client 的併發請求只跑一次 pipeline。
type reportCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	reports map[string]cachedReport
}

type cachedReport struct {
	rep *report.Report
	at  time.Time
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{ttl: ttl, now: time.Now, reports: map[string]cachedReport{}}
}

func (c *reportCache) get(key string) (*report.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.reports[key]
	if !ok || c.now().Sub(e.at) > c.ttl {
		return nil, false
	}
	return e.rep, true
}

func (c *reportCache) put(key string, rep *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[key] = cachedReport{rep: rep, at: c.now()}
}

// load 命中快取直接回傳；否則以 singleflight 執行 run 並寫回快取。失敗結果不快取。
func (c *reportCache) load(key string, refresh bool, run func() (*report.Report, error)) (*report.Report, bool, error) {
	if !refresh {
		if rep, ok := c.get(key); ok {
			return rep, true, nil
		}
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		rep, err := run()
		if err != nil {
			return nil, err
		}
		c.put(key, rep)
		return rep, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*report.Report), false, nil
}

// Report GET /v1/clients/{client}/report
//
// query：
//   - format  json（預設）| yaml | table
//   - refresh true 時略過快取重新計算
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	client := strings.TrimSpace(netsvr.Param(r, "client"))
	if client == "" {
		httperr.Errs(w, errs.NewWarn("client is required"))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	rd, err := report.RenderFor(format)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	refresh := false
	if s := r.URL.Query().Get("refresh"); s != "" {
		if refresh, err = strconv.ParseBool(s); err != nil {
			httperr.Errs(w, errs.Warnf("refresh must be a boolean: %q", s))
			return
		}
	}

	// 計算不跟著單一請求取消，否則 singleflight 的其他等待者會一起失敗。
	ctx := context.WithoutCancel(r.Context())
	rep, hit, err := h.cache.load(strings.ToLower(client), refresh, func() (*report.Report, error) {
		return h.lab.Run(ctx, client)
	})
	if err != nil {
		httperr.Log(h.log, "report", err)
		httperr.Errs(w, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeReport(w, rd, format, rep)
}

func writeReport(w http.ResponseWriter, rd report.Render, format string, rep *report.Report) {
	var buf bytes.Buffer
	if err := rep.WriteWith(&buf, rd); err != nil {
		httperr.Errs(w, errs.Wrap(err, "render report"))
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func contentType(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case report.FormatJSON:
		return "application/json; charset=utf-8"
	case report.FormatYAML, "yml":
		return "application/yaml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
