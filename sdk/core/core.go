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

package core

// RAND 定義核心亂數取樣能力。
//
// Uint64 同時讓 RAND 滿足 math/rand/v2.Source，可直接作為 gonum distuv 的 Src。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// PRNGFactory 以 seed 建立 RAND。
//
// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
// 相同的 seed 必須產生相同的輸出序列。後驗抽樣的可重現性完全建立在這個合約上。
type PRNGFactory interface {
	New(int64) RAND
}

// DefaultPRNG 實作預設的 PRNGFactory
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) RAND {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 RAND。
//
// Core 不可跨 goroutine 共用：每次評估呼叫都應以自己的 seed 建立一個新的 Core，
// 這樣併發執行的評估彼此不會干擾對方的亂數序列。
type Core struct {
	RAND
}

// New 允許使用外部自實現的 RAND 建立 Core。
func New(rng RAND) *Core {
	return &Core{RAND: rng}
}

// NewWithSeed 以預設 PCG64 與指定 seed 建立 Core。
func NewWithSeed(seed int64) *Core {
	return New(Default().New(seed))
}
