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
	"math"
	"math/big"
)

// minFeeWithoutScripts computes ceil(a*size + b) over the CBOR-encoded
// byte length of the current draft (§4.1).
func minFeeWithoutScripts(sizeBytes int, params ProtocolParameters) uint64 {
	return params.MinFeeA*uint64(sizeBytes) + params.MinFeeB
}

// minScriptFee sums cpuSteps*cpuPrice + memory*memPrice over every
// redeemer in the witness set (§4.1).
func minScriptFee(redeemers []Redeemer, params ProtocolParameters) (uint64, error) {
	if len(redeemers) == 0 {
		return 0, nil
	}
	if params.ExecutionPrices.MemPrice == nil || params.ExecutionPrices.StepPrice == nil {
		return 0, newErr(ErrProtocolParamsIncomplete, "missing execution unit prices")
	}
	memPrice := params.ExecutionPrices.MemPrice.Rat
	stepPrice := params.ExecutionPrices.StepPrice.Rat
	total := new(big.Rat)
	for _, r := range redeemers {
		mem := new(big.Rat).SetInt64(int64(r.ExUnits.Memory))
		steps := new(big.Rat).SetInt64(int64(r.ExUnits.Steps))
		total.Add(total, new(big.Rat).Mul(mem, memPrice))
		total.Add(total, new(big.Rat).Mul(steps, stepPrice))
	}
	return ceilRat(total), nil
}

// referenceScriptFee applies the geometric tier ramp from §4.1: the
// first 25,600 bytes of reference-script size are priced at base,
// each subsequent 25,600-byte tier at 1.2x the previous tier's price.
func referenceScriptFee(totalRefScriptBytes int, coinsPerRefScriptByte float64) uint64 {
	const tierSize = 25600
	if totalRefScriptBytes <= 0 {
		return 0
	}
	s := totalRefScriptBytes
	base := coinsPerRefScriptByte
	var fee float64
	for s > 0 {
		chunk := s
		if chunk > tierSize {
			chunk = tierSize
		}
		fee += math.Ceil(float64(chunk) * base)
		s -= chunk
		base *= 1.2
	}
	return uint64(fee)
}

// totalFee computes the full fee per §4.1: min_fee_without_scripts +
// min_script_fee + reference_script_fee.
func totalFee(
	sizeBytes int,
	redeemers []Redeemer,
	totalRefScriptBytes int,
	params ProtocolParameters,
) (uint64, error) {
	base := minFeeWithoutScripts(sizeBytes, params)
	scriptFee, err := minScriptFee(redeemers, params)
	if err != nil {
		return 0, err
	}
	refFee := referenceScriptFee(totalRefScriptBytes, params.CoinsPerRefScriptByte)
	sum := base + scriptFee
	if sum < base {
		return 0, newErr(ErrIntegerOverflow, "fee computation overflowed")
	}
	sum += refFee
	if sum < refFee {
		return 0, newErr(ErrIntegerOverflow, "fee computation overflowed")
	}
	return sum, nil
}

func ceilRat(r *big.Rat) uint64 {
	num := r.Num()
	den := r.Denom()
	q := new(big.Int)
	rem := new(big.Int)
	q.DivMod(num, den, rem)
	if rem.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Uint64()
}
