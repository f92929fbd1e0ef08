package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// 支援的 profiling 模式
const (
	ModeNone   = ""
	ModeCPU    = "cpu"
	ModeHeap   = "heap"
	ModeAllocs = "allocs"
)

// Valid 檢查 -p 的值
func Valid(mode string) bool {
	switch mode {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return true
	}
	return false
}

// Run 依 mode 包住 exe 做 profiling，輸出到 dir/<mode>.pprof；mode 為空時直接執行。
// exe 的錯誤優先回傳；profiling 本身失敗時回傳 profiling 的錯誤。
//
// Usage like:
//
//	go run ./cmd/run -client homw -p cpu
//	go tool pprof build/profiling/cpu.pprof
func Run(mode, dir string, exe func() error) error {
	if !Valid(mode) {
		return fmt.Errorf("unknown pprof mode %q (want cpu|heap|allocs)", mode)
	}
	if mode == ModeNone {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create pprof dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, mode+".pprof"))
	if err != nil {
		return fmt.Errorf("create %s.pprof: %w", mode, err)
	}
	defer f.Close()

	switch mode {
	case ModeCPU:
		return cpu(f, exe)
	case ModeHeap:
		// 先執行，再拍 in-use 快照；GC 一次讓 live objects 較準確
		exeErr := exe()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil && exeErr == nil {
			return fmt.Errorf("write heap profile: %w", err)
		}
		return exeErr
	default:
		// allocs 為累積配置，看分配熱點需搭配 -sample_index=alloc_space
		exeErr := exe()
		if prof := pprof.Lookup("allocs"); prof != nil {
			if err := prof.WriteTo(f, 0); err != nil && exeErr == nil {
				return fmt.Errorf("write allocs profile: %w", err)
			}
		}
		return exeErr
	}
}

func cpu(f *os.File, exe func() error) error {
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("start cpu profile: %w", err)
	}
	defer pprof.StopCPUProfile()
	return exe()
}
