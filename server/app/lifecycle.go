package app

import (
	"context"
	"errors"
	"net/http"
)

// Component 任何可啟動、可關閉的長生命週期元件（HTTP server、背景 worker 等）。
//   - Run 為阻塞呼叫，直到元件停止。
//   - Shutdown 要求優雅關閉，實作方應尊重 ctx 的期限。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

func isClosed(err error) bool {
	return err == nil || errors.Is(err, http.ErrServerClosed)
}
