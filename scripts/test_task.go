package main

import (
	"bufio"
	"errors"
	"os"
	"os/exec"
	"strings"
)

func cleanTestCache() error {
	cmd := exec.Command("go", "clean", "-testcache")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// goTest 執行 go test 並逐行交給 show；show 回傳 false 的行不印。
// stderr 併入同一個 pipe，編譯錯誤也讀得到。
func goTest(show func(line string) bool, args ...string) error {
	if err := cleanTestCache(); err != nil {
		return err
	}
	cmd := exec.Command("go", append([]string{"test", "./..."}, args...)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if !show(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"):
			PrintRed(line)
		default:
			PrintDefault(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return errors.New("tests finished with errors")
	}
	return sc.Err()
}

// runTest 只顯示每個套件的 ok/FAIL 與建置失敗
func runTest() error {
	PrintGreen("running tests")
	return goTest(func(line string) bool {
		return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
			strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
	}, "-cover", "-count=1")
}

// runTestAll 全部輸出並附 coverage
func runTestAll() error {
	PrintGreen("running tests (all with coverage)")
	return goTest(func(string) bool { return true }, "-cover")
}

// runTestDetail verbose 輸出，略過 [no test files]
func runTestDetail() error {
	PrintGreen("running tests (detail)")
	return goTest(func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "-v", "-count=1")
}
