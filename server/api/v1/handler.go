package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/catalog"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/server/svrcfg"
)

// maxBodyBytes 上傳表格的大小上限
const maxBodyBytes = 64 << 20

// Handler v1 API。持有 Lab 與報表快取，所有方法可併發呼叫。
type Handler struct {
	lab   *ablab.Lab
	log   *slog.Logger
	cache *reportCache
}

func NewHandler(sc *svrcfg.SvrCfg) (*Handler, error) {
	if sc == nil || sc.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	log := sc.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		lab:   sc.Lab,
		log:   log.With(slog.String("api", "v1")),
		cache: newReportCache(sc.ReportTTL),
	}, nil
}

// Index GET / 服務狀態與可用路由
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	type indexResponse struct {
		Service string   `json:"service"`
		Status  string   `json:"status"`
		Clients int      `json:"clients"`
		Target  string   `json:"target"`
		Routes  []string `json:"routes"`
	}
	writeJSON(w, http.StatusOK, indexResponse{
		Service: "ablab",
		Status:  "ok",
		Clients: len(h.lab.Catalog().Names()),
		Target:  h.lab.Setting().Target,
		Routes: []string{
			"GET /metrics",
			"GET /v1/clients",
			"GET /v1/distributions",
			"GET /v1/clients/{client}/report",
			"POST /v1/evaluate?name={name}",
			"POST /v1/samples?family=lognorm",
		},
	})
}

// Clients GET /v1/clients
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	type clientsResponse struct {
		Clients []catalog.Summary `json:"clients"`
	}
	writeJSON(w, http.StatusOK, clientsResponse{Clients: h.lab.Catalog().Summaries()})
}

// Distributions GET /v1/distributions
//
// configured 為本次設定參與排名的分佈；registered 為所有可用的分佈。
func (h *Handler) Distributions(w http.ResponseWriter, r *http.Request) {
	type distributionsResponse struct {
		Configured []string `json:"configured"`
		Registered []string `json:"registered"`
	}
	writeJSON(w, http.StatusOK, distributionsResponse{
		Configured: h.lab.Distributions(),
		Registered: h.lab.Registered(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
