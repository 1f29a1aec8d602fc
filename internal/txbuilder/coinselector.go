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
	"sort"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"
)

// CoinSelector selects UTxOs from available to cover target, honoring
// any pre-selected inputs (§4.2). Implementations must not mutate their
// inputs and must return selected/remaining as a disjoint partition of
// pre_selected ∪ available.
type CoinSelector interface {
	Select(preSelected, available []UTxO, target txvalue.Value) (selected, remaining []UTxO, err error)
}

// LargeFirstSelector implements the Large-First coin selection algorithm
// (§4.2): for each required asset (including lovelace), sweep available
// UTxOs in descending order of that asset's quantity until the target is
// met.
type LargeFirstSelector struct{}

func (LargeFirstSelector) Select(
	preSelected, available []UTxO,
	target txvalue.Value,
) ([]UTxO, []UTxO, error) {
	selected := make([]UTxO, len(preSelected))
	copy(selected, preSelected)

	remaining := make([]UTxO, len(available))
	copy(remaining, available)

	selectedSum := sumUtxos(selected)

	// Lovelace first, then each asset named in the target, largest
	// quantity of that unit first.
	if err := sweepForCoin(&selected, &remaining, &selectedSum, target.GetCoin()); err != nil {
		return nil, nil, err
	}
	for _, unit := range txvalue.AssetUnits(target.Assets) {
		if err := sweepForAsset(&selected, &remaining, &selectedSum, unit); err != nil {
			return nil, nil, err
		}
	}

	if len(selected) == 0 {
		// Ensure a non-empty input set even for an empty target.
		idx := largestLovelaceIndex(remaining)
		if idx < 0 {
			return nil, nil, newErr(ErrInsufficientFunds, "no UTxOs available to select from")
		}
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	return selected, remaining, nil
}

func sumUtxos(utxos []UTxO) txvalue.Value {
	sum := txvalue.NewSimpleValue(0)
	for _, u := range utxos {
		sum, _ = sum.Add(u.Output.Value) // lovelace never overflows uint64 for realistic inputs
	}
	return sum
}

func sweepForCoin(selected, remaining *[]UTxO, selectedSum *txvalue.Value, targetCoin uint64) error {
	if selectedSum.GetCoin() >= targetCoin {
		return nil
	}
	sort.SliceStable(*remaining, func(i, j int) bool {
		return (*remaining)[i].Output.Value.GetCoin() > (*remaining)[j].Output.Value.GetCoin()
	})
	for selectedSum.GetCoin() < targetCoin && len(*remaining) > 0 {
		next := (*remaining)[0]
		*remaining = (*remaining)[1:]
		*selected = append(*selected, next)
		sum, err := selectedSum.Add(next.Output.Value)
		if err != nil {
			return wrapErr(ErrIntegerOverflow, err, "coin selection overflow")
		}
		*selectedSum = sum
	}
	if selectedSum.GetCoin() < targetCoin {
		return newErr(ErrInsufficientFunds, "insufficient lovelace: need %d, have %d", targetCoin, selectedSum.GetCoin())
	}
	return nil
}

func sweepForAsset(selected, remaining *[]UTxO, selectedSum *txvalue.Value, unit txvalue.AssetUnit) error {
	have := func() bool {
		if selectedSum.Assets == nil {
			return false
		}
		qty := selectedSum.Assets.Asset(unit.PolicyId, unit.AssetName)
		return qty != nil && qty.Cmp(unit.Quantity) >= 0
	}
	if have() {
		return nil
	}
	sort.SliceStable(*remaining, func(i, j int) bool {
		return assetQty((*remaining)[i], unit) > assetQty((*remaining)[j], unit)
	})
	for !have() {
		idx := -1
		for i, u := range *remaining {
			if assetQty(u, unit) > 0 {
				idx = i
				break
			}
		}
		if idx < 0 {
			return newErr(ErrInsufficientFunds, "insufficient asset for policy %s", unit.PolicyId.String())
		}
		next := (*remaining)[idx]
		*remaining = append((*remaining)[:idx], (*remaining)[idx+1:]...)
		*selected = append(*selected, next)
		sum, err := selectedSum.Add(next.Output.Value)
		if err != nil {
			return wrapErr(ErrIntegerOverflow, err, "coin selection overflow")
		}
		*selectedSum = sum
	}
	return nil
}

func assetQty(u UTxO, unit txvalue.AssetUnit) int64 {
	if u.Output.Value.Assets == nil {
		return 0
	}
	qty := u.Output.Value.Assets.Asset(unit.PolicyId, unit.AssetName)
	if qty == nil {
		return 0
	}
	return qty.Int64()
}

func largestLovelaceIndex(utxos []UTxO) int {
	best := -1
	var bestCoin uint64
	for i, u := range utxos {
		if best < 0 || u.Output.Value.GetCoin() > bestCoin {
			best = i
			bestCoin = u.Output.Value.GetCoin()
		}
	}
	return best
}
