package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/sdk/core"
	"github.com/zintix-labs/ablab/setting"
	"github.com/zintix-labs/ablab/source"
	"gonum.org/v1/gonum/stat/distuv"
)

// seedWarehouse 建立本機 sqlite 倉儲，替預設設定的每個 client 寫入一組合成實驗資料，
// 讓 cmd/run 與 cmd/svr 不接正式倉儲也能跑起來。
//
//	go run ./scripts seed-warehouse warehouse.db 20000
func seedWarehouse(args []string) error {
	path, users := "warehouse.db", 20000
	if len(args) > 0 {
		path = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 2 {
			return fmt.Errorf("users must be an integer >= 2, got %q", args[1])
		}
		users = n
	}
	set, err := setting.Default()
	if err != nil {
		return err
	}
	wh, err := source.OpenWarehouse(setting.WarehouseSetting{Driver: setting.DriverSQLite, DSN: "file:" + path})
	if err != nil {
		return err
	}
	defer wh.Close()

	ctx := context.Background()
	if err := wh.Bootstrap(ctx); err != nil {
		return err
	}
	for i, c := range set.Clients {
		t := syntheticExperiment(users, int64(i+1))
		if err := wh.Import(ctx, c.Name, t); err != nil {
			return err
		}
		PrintBlue(fmt.Sprintf("%-14s %d rows", c.Name, t.Len()))
	}
	PrintGreen("warehouse ready: " + path)
	return nil
}

// syntheticExperiment 約 1/20 用戶付費，付費金額為 log-normal；treatment 的金額略高。
func syntheticExperiment(users int, seed int64) *dataset.Table {
	c := core.NewWithSeed(seed)
	spendC := distuv.LogNormal{Mu: 2.0, Sigma: 1.2, Src: c}
	spendP := distuv.LogNormal{Mu: 2.1, Sigma: 1.2, Src: c}
	rows := make([]dataset.Row, users)
	for i := range rows {
		group, ln := "control", spendC
		if i%2 == 0 {
			group, ln = "assetario", spendP
		}
		var total, wins float64
		if c.Float64() < 0.05 {
			total = ln.Rand()
			wins = total * (0.5 + 0.5*c.Float64())
		}
		rows[i] = dataset.Row{
			UserID:         fmt.Sprintf("u%07d", i),
			TestGroup:      group,
			TotalSpend:     total,
			TotalWinsSpend: wins,
		}
	}
	return dataset.New(rows...)
}
