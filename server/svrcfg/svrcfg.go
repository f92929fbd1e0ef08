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

package svrcfg

import (
	"log/slog"
	"strings"
	"time"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/server/logger"
	"github.com/zintix-labs/ablab/server/netsvr"
)

// DefaultReportTTL 報表快取的預設存活時間
const DefaultReportTTL = 10 * time.Minute

type SvrCfg struct {
	Log  *slog.Logger
	Lab  *ablab.Lab
	Addr string
	// ReportTTL GET /v1/clients/{client}/report 的記憶體快取時間，<= 0 使用預設值。
	ReportTTL time.Duration
}

// Vaild 檢查並補齊預設值。Log 為 nil 時使用 dev 模式的同步 logger。
func (sc *SvrCfg) Vaild() error {
	if sc == nil {
		return errs.NewFatal("server config is required")
	}
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	sc.Addr = strings.TrimSpace(sc.Addr)
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if !strings.Contains(sc.Addr, ":") {
		return errs.Warnf("invalid listen address %q (want host:port or :port)", sc.Addr)
	}
	if sc.ReportTTL <= 0 {
		sc.ReportTTL = DefaultReportTTL
	}
	return nil
}
