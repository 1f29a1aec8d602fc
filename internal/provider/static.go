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

package provider

import (
	"context"
	"math/big"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txbuilder"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// StaticProvider is a deterministic, offline txbuilder.Provider used by
// the CLI demonstrator. ExUnits results are
// supplied up front per redeemer key rather than computed by a real
// Plutus evaluator.
type StaticProvider struct {
	Parameters   txbuilder.ProtocolParameters
	ExUnits      map[common.RedeemerKey]common.ExUnits
	NetworkMagic uint32
}

// NewStaticProvider returns a StaticProvider with Mainnet-shaped defaults
// for the fields a balancing run always touches (fee coefficients,
// max tx size, execution prices); callers override fields they care
// about, per the teacher's plain-struct-literal configuration style.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Parameters: txbuilder.ProtocolParameters{
			MinFeeA:              44,
			MinFeeB:              155381,
			MaxTxSize:            16384,
			MaxValSize:           5000,
			CoinsPerUtxoByte:     4310,
			CoinsPerRefScriptByte: 15,
			ExecutionPrices: common.ExUnitPrice{
				MemPrice:  &cbor.Rat{Rat: big.NewRat(577, 10000)},
				StepPrice: &cbor.Rat{Rat: big.NewRat(721, 10000000)},
			},
			MaxTxExUnits:         common.ExUnits{Memory: 14_000_000, Steps: 10_000_000_000},
			MaxBlockExUnits:      common.ExUnits{Memory: 62_000_000, Steps: 20_000_000_000},
			CollateralPercentage: 150,
			MaxCollateralInputs:  3,
			KeyDeposit:           2_000_000,
			PoolDeposit:          500_000_000,
			GovActionDeposit:     100_000_000_000,
			DRepDeposit:          500_000_000,
			CostModels:           map[txbuilder.PlutusLanguage][]int64{},
		},
		ExUnits:      make(map[common.RedeemerKey]common.ExUnits),
		NetworkMagic: 1,
	}
}

func (p *StaticProvider) GetParameters(_ context.Context) (txbuilder.ProtocolParameters, error) {
	return p.Parameters, nil
}

func (p *StaticProvider) EvaluateTx(_ context.Context, _ []byte, _ []txbuilder.UTxO) (map[common.RedeemerKey]common.ExUnits, error) {
	return p.ExUnits, nil
}

func (p *StaticProvider) GetNetworkMagic(_ context.Context) (uint32, error) {
	return p.NetworkMagic, nil
}
