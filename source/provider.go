package source

import (
	"context"
	"log/slog"

	"github.com/zintix-labs/ablab/catalog"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/snapshot"
)

// Provider 取得客戶的觀測表
type Provider interface {
	Fetch(ctx context.Context, client string) (*dataset.Table, error)
}

// Cached 先讀快取；沒有快取時執行客戶設定的倉儲查詢並寫回快取。
type Cached struct {
	Store     *snapshot.Store
	Catalog   *catalog.Catalog
	Warehouse Querier
	Log       *slog.Logger
}

func (c *Cached) Fetch(ctx context.Context, client string) (*dataset.Table, error) {
	entry, known := c.Catalog.Get(client)
	name := entry.Name
	if !known {
		name = client
	}
	t, ok, err := c.Store.LoadTable(name)
	if err != nil {
		return nil, errs.Wrap(err, "read cached table")
	}
	if ok {
		c.logger().Debug("cache hit", slog.String("client", name), slog.Int("rows", t.Len()))
		return t, nil
	}
	if !known || !entry.HasQuery() || c.Warehouse == nil {
		return nil, errs.Kindf(errs.DataUnavailable, "no cached data and no query configured for client %s", client)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.logger().Info("cache miss, querying warehouse", slog.String("client", name))
	t, err = c.Warehouse.Query(ctx, entry.Query)
	if err != nil {
		return nil, errs.Wrap(err, "fetch "+name)
	}
	if err := c.Store.SaveTable(name, t); err != nil {
		return nil, errs.Wrap(err, "write cache for "+name)
	}
	return t, nil
}

func (c *Cached) logger() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}
