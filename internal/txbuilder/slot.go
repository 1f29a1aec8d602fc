// Copyright 2023 Blink Labs Software
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

package txbuilder

import (
	"github.com/blinklabs-io/cardano-txbuilder/internal/config"
)

// SlotFromUnixTime converts a Unix timestamp to an absolute slot number
// using the process-wide configured network's genesis origin (§3's
// era-aware `_ex` builder calls). It is a thin wrapper so the facade
// doesn't need to thread a *config.Config through every call site.
func SlotFromUnixTime(unixTime int64) uint64 {
	return config.GetConfig().SlotFromUnixTime(unixTime)
}
