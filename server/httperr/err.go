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

package httperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/ablab/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則依序：
//   - ctx timeout/cancel           → 504/408
//   - errs.DataUnavailable         → 404（client 不存在或沒有資料）
//   - 其他資料導致的錯誤種類         → 422（空樣本、cohort 無法辨識、擬合失敗、不支援的分佈）
//   - errs.Warn                    → 400（請求/參數問題）
//   - errs.Fatal 或非本包錯誤        → 500
//
// 這層屬於 HTTP 邊界，核心 errs 包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	e, ok := errs.AsErr(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case errs.DataUnavailable:
		return http.StatusNotFound
	case errs.EmptySample, errs.AmbiguousCohort, errs.FitFailure, errs.UnsupportedDistribution:
		return http.StatusUnprocessableEntity
	}
	if e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 依 StatusCode 寫回純文字錯誤。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	http.Error(w, err.Error(), StatusCode(err))
}

// Log 只記錄值得關注的錯誤：逾時類記 Warn，5xx 記 Error，其餘（呼叫端的問題）不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
