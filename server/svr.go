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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/server/api"
	"github.com/zintix-labs/ablab/server/app"
	"github.com/zintix-labs/ablab/server/netsvr"
	"github.com/zintix-labs/ablab/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（Lab、logger、位址）。
//  2. 以 sCfg.Addr 建立 chi server。
//  3. 註冊 middleware 與路由。
//  4. 執行 app.Run()，收到 SIGINT/SIGTERM 後優雅關閉並關閉 Lab。
//
// 所有依賴都透過 SvrCfg 注入；要把路由掛到既有服務上，直接呼叫 api.RegisterRoutes。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// logger 可能不可用，額外輸出到 stderr
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr（自訂 listener、TLS、timeout 等）。
// 若 svr 是 ChiAdapter，必須由 NewChiServer 建立。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("default server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes", slog.Any("err", err))
		return err
	}

	a := app.NewWith(svr)
	a.OnStop(func() {
		if err := sCfg.Lab.Close(); err != nil {
			sCfg.Log.Error("close lab", slog.Any("err", err))
		}
	})
	sCfg.Log.Info("[ablab] listening", slog.String("addr", svr.Address()),
		slog.Int("clients", len(sCfg.Lab.Catalog().Names())))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
