// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"log/slog"

	v1 "github.com/zintix-labs/ablab/server/api/v1"
	"github.com/zintix-labs/ablab/server/netsvr"
	"github.com/zintix-labs/ablab/server/netsvr/middleware"
	"github.com/zintix-labs/ablab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware、主頁、/metrics 與 v1 api。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	registerMiddleware(svr, sCfg.Log)
	svr.Get("/", h.Index)
	svr.Handle("/metrics", sCfg.Lab.Metrics().Handler())
	registerV1API(svr, h)
	return nil
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func registerV1API(svr netsvr.NetRouter, h *v1.Handler) {
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/clients", h.Clients)
		vOne.Get("/distributions", h.Distributions)
		vOne.Get("/clients/{client}/report", h.Report)

		vOne.Post("/evaluate", h.Evaluate)
		vOne.Post("/samples", h.Samples)
	})
}
