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

package source

import (
	"context"
	"database/sql"

	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/setting"

	_ "modernc.org/sqlite"
)

// outcomesSchema 倉儲中實驗結果表的結構，供本機匯入與測試使用。
const outcomesSchema = `
CREATE TABLE IF NOT EXISTS ab_outcomes (
	client           TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	test_group       TEXT NOT NULL,
	total_spend      REAL,
	total_wins_spend REAL,
	PRIMARY KEY (client, user_id)
);`

// Querier 執行查詢並回傳觀測表
type Querier interface {
	Query(ctx context.Context, query string) (*dataset.Table, error)
}

// Warehouse 以 database/sql 連線的資料倉儲。查詢輸出必須依序包含
// user_id, test_group, total_spend, total_wins_spend 四欄。
type Warehouse struct {
	db *sql.DB
}

// OpenWarehouse 依設定開啟倉儲連線
func OpenWarehouse(ws setting.WarehouseSetting) (*Warehouse, error) {
	if ws.Driver != setting.DriverSQLite {
		return nil, errs.Fatalf("unsupported warehouse driver: %q", ws.Driver)
	}
	db, err := sql.Open("sqlite", ws.DSN)
	if err != nil {
		return nil, errs.Wrap(err, "open warehouse "+ws.DSN)
	}
	return &Warehouse{db: db}, nil
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Query 執行查詢並掃描四個欄位；NULL 消費值視為 0。
func (w *Warehouse) Query(ctx context.Context, query string) (*dataset.Table, error) {
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(err, "warehouse query failed")
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(err, "warehouse columns")
	}
	if len(cols) != 4 {
		return nil, errs.Fatalf("warehouse query must return 4 columns (%s, %s, %s, %s), got %v",
			dataset.ColUserID, dataset.ColTestGroup, dataset.ColTotalSpend, dataset.ColTotalWinsSpend, cols)
	}
	t := &dataset.Table{}
	for rows.Next() {
		var (
			uid, group  string
			spend, wins sql.NullFloat64
		)
		if err := rows.Scan(&uid, &group, &spend, &wins); err != nil {
			return nil, errs.Wrap(err, "warehouse scan")
		}
		t.Rows = append(t.Rows, dataset.Row{
			UserID:         uid,
			TestGroup:      group,
			TotalSpend:     spend.Float64,
			TotalWinsSpend: wins.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "warehouse rows")
	}
	return t, nil
}

// Bootstrap 建立 ab_outcomes 表（已存在則略過）
func (w *Warehouse) Bootstrap(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, outcomesSchema); err != nil {
		return errs.Wrap(err, "warehouse create schema")
	}
	return nil
}

// Import 將觀測表寫入 ab_outcomes（同一客戶同一用戶覆寫）
func (w *Warehouse) Import(ctx context.Context, client string, t *dataset.Table) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "warehouse begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ab_outcomes (client, user_id, test_group, total_spend, total_wins_spend)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(err, "warehouse prepare")
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, client, r.UserID, r.TestGroup, r.TotalSpend, r.TotalWinsSpend); err != nil {
			return errs.Wrap(err, "warehouse insert")
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "warehouse commit")
	}
	return nil
}
