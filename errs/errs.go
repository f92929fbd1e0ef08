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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Code 錯誤種類。零值代表未分類。
//
// 同一個 Code 的錯誤彼此 errors.Is 相等，讓上層不必比對字串即可分辨
// 「資料不存在」「樣本為空」「擬合失敗」等情境。
type Code uint8

const (
	Unclassified Code = iota
	DataUnavailable
	EmptySample
	FitFailure
	UnsupportedDistribution
	AmbiguousCohort
	NumericDegeneracy
)

var codeMap = map[Code]string{
	Unclassified:            "",
	DataUnavailable:         "data_unavailable",
	EmptySample:             "empty_sample",
	FitFailure:              "fit_failure",
	UnsupportedDistribution: "unsupported_distribution",
	AmbiguousCohort:         "ambiguous_cohort",
	NumericDegeneracy:       "numeric_degeneracy",
}

func (c Code) String() string {
	return codeMap[c]
}

// 各錯誤種類的哨兵值，只用於 errors.Is 比對。
var (
	ErrDataUnavailable         = &E{Message: "data unavailable", ErrLv: Fatal, Code: DataUnavailable}
	ErrEmptySample             = &E{Message: "empty sample", ErrLv: Fatal, Code: EmptySample}
	ErrFitFailure              = &E{Message: "fit failure", ErrLv: Fatal, Code: FitFailure}
	ErrUnsupportedDistribution = &E{Message: "unsupported distribution", ErrLv: Fatal, Code: UnsupportedDistribution}
	ErrAmbiguousCohort         = &E{Message: "ambiguous cohort", ErrLv: Fatal, Code: AmbiguousCohort}
	ErrNumericDegeneracy       = &E{Message: "numeric degeneracy", ErrLv: Warn, Code: NumericDegeneracy}
)

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重程度；Code 表示錯誤種類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Code    Code
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Code != Unclassified {
		base = fmt.Sprintf("errlv=%s code=%s %s", ErrLv(e.ErrLv), e.Code, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Code 比對：任何帶有相同 Code 的 *E 都視為同一種錯誤。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	if t.Code == Unclassified {
		return e == t
	}
	return e.Code == t.Code
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// Kindf 建立帶有錯誤種類的錯誤，等級沿用該種類哨兵值的等級。
func Kindf(code Code, format string, a ...any) *E {
	lv := Fatal
	if code == NumericDegeneracy {
		lv = Warn
	}
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: lv, Code: code}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / Code 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Code（保持原本嚴重度與種類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	code := Unclassified
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		code = e.Code
	}
	r := New(errLv, msg)
	r.Code = code
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，但可附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
