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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/metrics"
	"github.com/zintix-labs/ablab/server"
	"github.com/zintix-labs/ablab/server/logger"
	"github.com/zintix-labs/ablab/server/netsvr"
	"github.com/zintix-labs/ablab/server/svrcfg"
	"github.com/zintix-labs/ablab/setting"
)

// Report server entrypoint: serves the A/B reports consumed by the dashboard.
func main() {
	sCfg, closeLog, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	var path, addr, mode string
	flag.StringVar(&path, "config", "", "settings file (.yaml/.yml/.json); empty uses the embedded defaults")
	flag.StringVar(&addr, "addr", netsvr.DefaultAddr, "listen address")
	flag.StringVar(&mode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.Parse()

	lm, err := logger.ParseMode(mode)
	if err != nil {
		return nil, nil, err
	}
	set, err := setting.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, lm)
	lab, err := ablab.New(set, ablab.WithLogger(log), ablab.WithMetrics(metrics.New()))
	if err != nil {
		ah.Close()
		return nil, nil, err
	}
	return &svrcfg.SvrCfg{Log: log, Lab: lab, Addr: addr}, ah.Close, nil
}
