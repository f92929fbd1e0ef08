package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"
)

type fakeComp struct {
	runErr   error
	block    chan struct{}
	once     sync.Once
	shutdown int
}

func (f *fakeComp) Run() error {
	if f.block != nil {
		<-f.block
	}
	return f.runErr
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	f.shutdown++
	if f.block != nil {
		f.once.Do(func() { close(f.block) })
	}
	return nil
}

func TestRunContextCancel(t *testing.T) {
	c := &fakeComp{block: make(chan struct{}), runErr: http.ErrServerClosed}
	a := NewWith(c)
	a.errOut = io.Discard
	var order []string
	a.OnStop(func() { order = append(order, "warehouse") })
	a.OnStop(func() { order = append(order, "log") })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := a.RunContext(ctx); err != nil {
		t.Fatalf("RunContext err: %v", err)
	}
	if c.shutdown != 1 {
		t.Fatalf("shutdown calls got %d want 1", c.shutdown)
	}
	if len(order) != 2 || order[0] != "log" || order[1] != "warehouse" {
		t.Fatalf("stop order got %v", order)
	}
}

func TestRunContextComponentError(t *testing.T) {
	boom := errors.New("listen tcp :5808: address already in use")
	c := &fakeComp{runErr: boom}
	a := NewWith(c)
	a.errOut = io.Discard
	if err := a.RunContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v want %v", err, boom)
	}
	if c.shutdown != 1 {
		t.Fatalf("shutdown not called")
	}
}

func TestRunContextEmpty(t *testing.T) {
	if err := New().RunContext(context.Background()); err == nil {
		t.Fatalf("expected error with no component")
	}
}
