// Package app 管理長期運行元件的啟動與優雅關閉。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout 優雅關閉的時限
const DefaultShutdownTimeout = 5 * time.Second

// App 同時啟動所有 Component，任一元件結束或收到終止信號時，依註冊順序關閉全部元件，
// 最後執行 OnStop 掛上的收尾函數（關閉 warehouse、flush async log 等）。
type App struct {
	comps   []Component
	stops   []func()
	timeout time.Duration
	errOut  io.Writer
}

// New 建立一個新的 App 實例。
func New() *App { return &App{timeout: DefaultShutdownTimeout, errOut: os.Stderr} }

// NewWith 建立 App 並註冊 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

// Register 註冊一個 Component。
func (a *App) Register(c Component) {
	if c != nil {
		a.comps = append(a.comps, c)
	}
}

// OnStop 註冊收尾函數，在所有元件關閉後以反向順序執行。
func (a *App) OnStop(fn func()) {
	if fn != nil {
		a.stops = append(a.stops, fn)
	}
}

// SetShutdownTimeout 調整關閉時限，td <= 0 時沿用預設值。
func (a *App) SetShutdownTimeout(td time.Duration) {
	if td > 0 {
		a.timeout = td
	}
}

// Run 阻塞直到收到 SIGINT/SIGTERM 或任一元件返回。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但以 ctx 取消代替 OS 信號。
//   - ctx 取消：優雅關閉並返回 nil。
//   - 元件返回：優雅關閉並返回該錯誤（http.ErrServerClosed 視為正常結束）。
func (a *App) RunContext(ctx context.Context) error {
	if len(a.comps) == 0 {
		return errors.New("app: no component registered")
	}
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	a.shutdown()
	if isClosed(err) {
		return nil
	}
	return err
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			fmt.Fprintf(a.errOut, "shutdown err: %v\n", err)
		}
	}
	for i := len(a.stops) - 1; i >= 0; i-- {
		a.stops[i]()
	}
}
