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

// Package provider supplies concrete implementations of txbuilder.Provider:
// a Maestro-API-backed provider for live protocol parameters and redeemer
// evaluation, and a static fixture for offline/test use.
package provider

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txbuilder"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"

	maestroClient "github.com/maestro-org/go-sdk/client"
)

// MaestroProvider implements txbuilder.Provider against the Maestro API.
type MaestroProvider struct {
	client       *maestroClient.Client
	networkMagic uint32
}

// NewMaestroProvider creates a provider for the given network name
// ("mainnet", "preprod", "preview") and project id.
func NewMaestroProvider(network, projectId string, networkMagic uint32) *MaestroProvider {
	return &MaestroProvider{
		client:       maestroClient.NewClient(projectId, network),
		networkMagic: networkMagic,
	}
}

// GetNetworkMagic returns the network magic the provider was configured with.
func (m *MaestroProvider) GetNetworkMagic(_ context.Context) (uint32, error) {
	return m.networkMagic, nil
}

// GetParameters fetches and flattens Maestro's current protocol parameters
// into the builder's era-agnostic shape.
func (m *MaestroProvider) GetParameters(_ context.Context) (txbuilder.ProtocolParameters, error) {
	resp, err := m.client.ProtocolParameters()
	if err != nil {
		return txbuilder.ProtocolParameters{}, fmt.Errorf("fetching protocol parameters: %w", err)
	}
	data := resp.Data

	memPrice, err := parseFraction(data.ScriptExecutionPrices.Memory)
	if err != nil {
		return txbuilder.ProtocolParameters{}, fmt.Errorf("invalid memory price: %w", err)
	}
	stepPrice, err := parseFraction(data.ScriptExecutionPrices.Steps)
	if err != nil {
		return txbuilder.ProtocolParameters{}, fmt.Errorf("invalid step price: %w", err)
	}

	pp := txbuilder.ProtocolParameters{
		MinFeeA:          uint64(data.MinFeeCoefficient),
		MinFeeB:          uint64(data.MinFeeConstant.LovelaceAmount.Lovelace),
		MaxTxSize:        uint64(data.MaxTransactionSize.Bytes),
		MaxValSize:       uint64(data.MaxValueSize.Bytes),
		CoinsPerUtxoByte: uint64(data.MinUtxoDepositCoefficient),
		ExecutionPrices: common.ExUnitPrice{
			MemPrice:  &cbor.Rat{Rat: memPrice},
			StepPrice: &cbor.Rat{Rat: stepPrice},
		},
		MaxTxExUnits: common.ExUnits{
			Memory: uint64(data.MaxExecutionUnitsPerTransaction.Memory),
			Steps:  uint64(data.MaxExecutionUnitsPerTransaction.Steps),
		},
		MaxBlockExUnits: common.ExUnits{
			Memory: uint64(data.MaxExecutionUnitsPerBlock.Memory),
			Steps:  uint64(data.MaxExecutionUnitsPerBlock.Steps),
		},
		CollateralPercentage: uint64(data.CollateralPercentage),
		MaxCollateralInputs:  int(data.MaxCollateralInputs),
		KeyDeposit:           uint64(data.StakeCredentialDeposit.LovelaceAmount.Lovelace),
		PoolDeposit:          uint64(data.StakePoolDeposit.LovelaceAmount.Lovelace),
	}
	// The Maestro response fields for the reference-script fee coefficient
	// and governance deposits (CIP-116 additions) aren't covered by this
	// repo's grounding source; callers running post-Conway override
	// CoinsPerRefScriptByte/GovActionDeposit/DRepDeposit via config until
	// those fields are confirmed against a current go-sdk release.

	if rawModels, ok := data.PlutusCostModels.(map[string]any); ok {
		pp.CostModels = make(map[txbuilder.PlutusLanguage][]int64, len(rawModels))
		for key, val := range rawModels {
			costs, ok := val.([]any)
			if !ok {
				continue
			}
			lang, ok := maestroCostModelLanguage(key)
			if !ok {
				continue
			}
			int64Costs := make([]int64, 0, len(costs))
			for i, c := range costs {
				f, ok := c.(float64)
				if !ok {
					return txbuilder.ProtocolParameters{}, fmt.Errorf("cost model %q element %d: expected float64, got %T", key, i, c)
				}
				int64Costs = append(int64Costs, int64(f))
			}
			pp.CostModels[lang] = int64Costs
		}
	}

	return pp, nil
}

// EvaluateTx submits txCbor to Maestro's /tx/evaluate endpoint and maps the
// result to gouroboros's redeemer-key-indexed ex-units map.
func (m *MaestroProvider) EvaluateTx(_ context.Context, txCbor []byte, _ []txbuilder.UTxO) (map[common.RedeemerKey]common.ExUnits, error) {
	evalResp, err := m.client.EvaluateTx(hex.EncodeToString(txCbor))
	if err != nil {
		return nil, fmt.Errorf("evaluating transaction: %w", err)
	}

	result := make(map[common.RedeemerKey]common.ExUnits, len(evalResp))
	for _, eval := range evalResp {
		if eval.RedeemerIndex < 0 || eval.RedeemerIndex > math.MaxUint32 {
			return nil, fmt.Errorf("redeemer index %d out of range", eval.RedeemerIndex)
		}
		tag, err := parseRedeemerTag(eval.RedeemerTag)
		if err != nil {
			return nil, err
		}
		key := common.RedeemerKey{Tag: tag, Index: uint32(eval.RedeemerIndex)}
		result[key] = common.ExUnits{Memory: eval.ExUnits.Mem, Steps: eval.ExUnits.Steps}
	}
	return result, nil
}

func parseRedeemerTag(tag string) (common.RedeemerTag, error) {
	switch tag {
	case "spend":
		return common.RedeemerTagSpend, nil
	case "mint":
		return common.RedeemerTagMint, nil
	case "cert", "certifying":
		return common.RedeemerTagCert, nil
	case "reward", "withdrawal":
		return common.RedeemerTagReward, nil
	default:
		return 0, fmt.Errorf("unrecognized redeemer tag %q", tag)
	}
}

func maestroCostModelLanguage(key string) (txbuilder.PlutusLanguage, bool) {
	switch key {
	case "plutus:v1":
		return txbuilder.PlutusV1, true
	case "plutus:v2":
		return txbuilder.PlutusV2, true
	case "plutus:v3":
		return txbuilder.PlutusV3, true
	default:
		return 0, false
	}
}

// parseFraction parses a "a/b" fraction string into a *big.Rat, the form
// Maestro reports script execution prices in.
func parseFraction(s string) (*big.Rat, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return nil, fmt.Errorf("invalid fraction %q", s)
	}
	return r, nil
}
