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

import "github.com/blinklabs-io/gouroboros/ledger/common"

// ProtocolParameters is the flattened, era-agnostic subset of protocol
// parameters the builder core needs. Providers (maestro, a static
// fixture) populate one of these from whatever era-specific shape they
// fetch; the builder never depends on babbage.*/conway.* directly so it
// does not need to branch on era.
type ProtocolParameters struct {
	MinFeeA    uint64
	MinFeeB    uint64
	MaxTxSize  uint64
	MaxValSize uint64

	CoinsPerUtxoByte uint64

	// CoinsPerRefScriptByte is the base price for the first 25,600-byte
	// tier of the reference-script fee ramp (§4.1).
	CoinsPerRefScriptByte float64

	ExecutionPrices common.ExUnitPrice
	MaxTxExUnits    common.ExUnits
	MaxBlockExUnits common.ExUnits

	// CostModels maps a PlutusLanguage version to its cost-parameter
	// vector, keyed the same way spec §4.4's language view expects.
	CostModels map[PlutusLanguage][]int64

	CollateralPercentage uint64
	MaxCollateralInputs  int

	KeyDeposit       uint64
	PoolDeposit      uint64
	GovActionDeposit uint64
	DRepDeposit      uint64
}

// CostModel returns the cost model for lang and whether it is present.
func (p ProtocolParameters) CostModel(lang PlutusLanguage) ([]int64, bool) {
	cm, ok := p.CostModels[lang]
	return cm, ok
}
