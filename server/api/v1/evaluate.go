package v1

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/ablab/bayes"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/report"
	"github.com/zintix-labs/ablab/server/httperr"
)

// decodeTable 讀取欄式 JSON（dataset.Columns），未知欄位視為錯誤。
func decodeTable(w http.ResponseWriter, r *http.Request) (*dataset.Table, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	cols := new(dataset.Columns)
	if err := dec.Decode(cols); err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "invalid JSON body", err.Error())
	}
	t, err := cols.Table()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Evaluate POST /v1/evaluate?name=X
//
// body 為欄式表格，回傳完整報表（不寫入快取與磁碟）。format 同 Report。
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		httperr.Errs(w, errs.NewWarn("name is required"))
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
	t, err := decodeTable(w, r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rep, err := h.lab.EvaluateTable(r.Context(), name, t)
	if err != nil {
		httperr.Log(h.log, "evaluate", err)
		httperr.Errs(w, err)
		return
	}
	writeReport(w, rd, format, rep)
}

// Samples POST /v1/samples?family=lognorm[&hdi=0.9]
//
// 回傳每個 variant 的收入後驗樣本；帶 hdi 時一併回傳最高密度區間與 uplift 區間。
func (h *Handler) Samples(w http.ResponseWriter, r *http.Request) {
	type samplesResponse struct {
		*bayes.PosteriorSamples
		Intervals []bayes.Interval `json:"intervals,omitempty"`
	}

	q := r.URL.Query()
	family := strings.TrimSpace(q.Get("family"))
	if family == "" {
		family = bayes.SupportedRevenueFamily
	}
	prob := 0.0
	if s := q.Get("hdi"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v >= 1 {
			httperr.Errs(w, errs.Warnf("hdi must be in (0, 1): %q", s))
			return
		}
		prob = v
	}
	t, err := decodeTable(w, r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ps, err := h.lab.Samples(r.Context(), family, t)
	if err != nil {
		httperr.Log(h.log, "samples", err)
		httperr.Errs(w, err)
		return
	}
	resp := samplesResponse{PosteriorSamples: ps}
	if prob > 0 {
		iv, err := ps.Intervals(prob)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		resp.Intervals = finite(iv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// finite 去掉無法以 JSON 表示的區間（樣本不足時為 NaN）
func finite(iv []bayes.Interval) []bayes.Interval {
	out := iv[:0]
	for _, v := range iv {
		if !math.IsNaN(v.Low) && !math.IsNaN(v.High) {
			out = append(out, v)
		}
	}
	return out
}
