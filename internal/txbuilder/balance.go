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
	"context"
	"math/big"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// MaxIters is the hard cap on balancing-loop outer passes (§4.6).
const MaxIters = 5

// balancer holds the context needed across a single build() call: the
// immutable wiring (protocol params, pools, selector, evaluator) plus a
// reference to the draft being balanced in place.
type balancer struct {
	draft           *TxDraft
	params          ProtocolParameters
	selector        CoinSelector
	evaluator       TxEvaluator
	utxoIndex       map[TxInput]UTxO
	preSelectedSet  map[TxInput]bool
}

func newBalancer(d *TxDraft, params ProtocolParameters, selector CoinSelector, evaluator TxEvaluator) *balancer {
	idx := make(map[TxInput]UTxO)
	for _, u := range d.AvailableUtxos {
		idx[u.Input] = u
	}
	for _, u := range d.CollateralUtxos {
		idx[u.Input] = u
	}
	preSelected := make(map[TxInput]bool, len(d.Inputs))
	for _, in := range d.Inputs {
		preSelected[in] = true
	}
	for _, u := range d.AvailableUtxos {
		if preSelected[u.Input] {
			idx[u.Input] = u
		}
	}
	return &balancer{
		draft:          d,
		params:         params,
		selector:       selector,
		evaluator:      evaluator,
		utxoIndex:      idx,
		preSelectedSet: preSelected,
	}
}

// balance runs the fixed-point procedure of §4.6 and returns the
// finalized draft, or a BuilderError (ErrBalancingDiverged if it does
// not converge within MaxIters).
func (b *balancer) balance(ctx context.Context) (*TxDraft, error) {
	d := b.draft

	if d.ChangeAddress == nil {
		return nil, newErr(ErrNullArgument, "change address not set")
	}
	if len(d.AvailableUtxos) == 0 && len(d.Inputs) == 0 {
		return nil, newErr(ErrNullArgument, "no UTxOs set")
	}

	// Raise every caller-supplied output to its min-ADA requirement so
	// the selection target already covers it.
	for i := range d.Outputs {
		minRequired, err := minAda(d.Outputs[i], b.params.CoinsPerUtxoByte)
		if err != nil {
			return nil, err
		}
		if d.Outputs[i].Value.Coin < minRequired {
			d.Outputs[i].Value.Coin = minRequired
		}
	}

	// Step 1: dummy-fee fill.
	d.Fee = b.params.maxTxFeeCeiling()
	if d.Fee < d.MinimumFee {
		d.Fee = d.MinimumFee
	}
	if len(d.Redeemers) > 0 {
		zero := common.NewBlake2b256(make([]byte, 32))
		d.ScriptDataHash = &zero
	}

	prevFee := d.Fee
	for iter := 0; iter < MaxIters; iter++ {
		// Step 2: ex-units pass.
		if len(d.Redeemers) > 0 {
			if err := b.evaluateExUnits(ctx); err != nil {
				return nil, err
			}
		}

		// Step 3: input selection.
		if err := b.selectInputs(); err != nil {
			return nil, err
		}
		d.reindexRedeemers()

		// Step 4: change split.
		if err := b.buildChange(); err != nil {
			return nil, err
		}

		// Step 5: collateral pass.
		if d.HasPlutusWitness() {
			if err := b.buildCollateral(); err != nil {
				return nil, err
			}
		}

		// Step 6: fee recompute. Any change to the fee — up or down —
		// invalidates the change output step 4 just built against the
		// old fee, so the loop must run again rather than terminate;
		// only an unchanged fee means change is already consistent.
		newFee, err := b.recomputeFee()
		if err != nil {
			return nil, err
		}
		if newFee < d.MinimumFee {
			newFee = d.MinimumFee
		}
		if newFee == prevFee {
			d.Fee = newFee
			break
		}
		d.Fee = newFee
		prevFee = newFee
		if iter == MaxIters-1 {
			return nil, newErr(ErrBalancingDiverged, "balancing did not converge within %d iterations", MaxIters)
		}
	}

	// Step 7: termination — finalize script data hash for real.
	d.reindexRedeemers()
	hash, err := computeScriptDataHash(d.Redeemers, d.Datums, d.usedLanguages, toLangMap(b.params.CostModels))
	if err != nil {
		return nil, err
	}
	d.ScriptDataHash = hash
	return d, nil
}

func toLangMap(in map[PlutusLanguage][]int64) map[PlutusLanguage][]int64 {
	return in
}

func (p ProtocolParameters) maxTxFeeCeiling() uint64 {
	return p.MaxTxSize*p.MinFeeA + p.MinFeeB
}

func (b *balancer) evaluateExUnits(ctx context.Context) error {
	d := b.draft
	for i := range d.Redeemers {
		d.Redeemers[i].ExUnits = b.params.MaxTxExUnits
	}
	wireBytes, err := b.encodeTentative()
	if err != nil {
		return err
	}
	refUtxos := b.resolveReferenceUtxos()
	results, err := b.evaluator.EvaluateTx(ctx, wireBytes, refUtxos)
	if err != nil {
		return wrapErr(ErrGeneric, err, "evaluator failed")
	}
	for i := range d.Redeemers {
		r := &d.Redeemers[i]
		if exUnits, ok := results[r.Key()]; ok {
			r.ExUnits = exUnits
		}
	}
	return nil
}

func (b *balancer) resolveReferenceUtxos() []UTxO {
	var out []UTxO
	for _, in := range b.draft.ReferenceInputs {
		if u, ok := b.utxoIndex[in]; ok {
			out = append(out, u)
		}
	}
	return out
}

// target computes the required coin/asset deficit per §4.6 step 3:
// Σ outputs + fee − Σ(pre-selected inputs) − withdrawals − mint(+) +
// mint(−) + deposits.
func (b *balancer) target() (txvalue.Value, error) {
	d := b.draft
	sum := txvalue.NewSimpleValue(d.Fee)
	for _, o := range d.Outputs {
		var err error
		sum, err = sum.Add(o.Value)
		if err != nil {
			return txvalue.Value{}, wrapErr(ErrIntegerOverflow, err, "summing outputs")
		}
	}

	preSelectedVal := txvalue.NewSimpleValue(0)
	for in := range b.preSelectedSet {
		if u, ok := b.utxoIndex[in]; ok {
			var err error
			preSelectedVal, err = preSelectedVal.Add(u.Output.Value)
			if err != nil {
				return txvalue.Value{}, wrapErr(ErrIntegerOverflow, err, "summing pre-selected inputs")
			}
		}
	}
	var withdrawalTotal uint64
	for _, w := range d.Withdrawals {
		withdrawalTotal += w.Amount
	}

	result, err := sum.Sub(preSelectedVal)
	if err != nil {
		// pre-selected already covers more than outputs+fee; nothing more needed.
		return txvalue.NewSimpleValue(0), nil
	}
	if withdrawalTotal > 0 {
		result, err = result.Sub(txvalue.NewSimpleValue(withdrawalTotal))
		if err != nil {
			result = txvalue.NewSimpleValue(0)
		}
	}
	if d.Mint != nil {
		positive, negative := splitMint(d.Mint)
		result, _ = result.Sub(txvalue.NewValue(0, positive))
		result, _ = result.Add(txvalue.NewValue(0, negative))
	}
	return result, nil
}

func splitMint(m *common.MultiAsset[common.MultiAssetTypeOutput]) (positive, negative *common.MultiAsset[common.MultiAssetTypeOutput]) {
	posData := make(map[common.Blake2b224]map[cbor.ByteString]common.MultiAssetTypeOutput)
	negData := make(map[common.Blake2b224]map[cbor.ByteString]common.MultiAssetTypeOutput)
	for _, p := range m.Policies() {
		for _, name := range m.Assets(p) {
			qty := m.Asset(p, name)
			if qty == nil || qty.Sign() == 0 {
				continue
			}
			if qty.Sign() > 0 {
				if posData[p] == nil {
					posData[p] = make(map[cbor.ByteString]common.MultiAssetTypeOutput)
				}
				posData[p][cbor.NewByteString(name)] = new(big.Int).Set(qty)
			} else {
				if negData[p] == nil {
					negData[p] = make(map[cbor.ByteString]common.MultiAssetTypeOutput)
				}
				negData[p][cbor.NewByteString(name)] = new(big.Int).Neg(qty)
			}
		}
	}
	pos := common.NewMultiAsset[common.MultiAssetTypeOutput](posData)
	neg := common.NewMultiAsset[common.MultiAssetTypeOutput](negData)
	return &pos, &neg
}

func (b *balancer) selectInputs() error {
	d := b.draft
	target, err := b.target()
	if err != nil {
		return err
	}
	if target.GetCoin() == 0 && !target.HasAssets() && len(d.Inputs) > 0 {
		return nil
	}

	var preSelected, available []UTxO
	usedAvailable := make(map[TxInput]bool)
	for _, in := range d.Inputs {
		if u, ok := b.utxoIndex[in]; ok {
			preSelected = append(preSelected, u)
			usedAvailable[in] = true
		}
	}
	for _, u := range d.AvailableUtxos {
		if !usedAvailable[u.Input] {
			available = append(available, u)
		}
	}

	selected, remaining, err := b.selector.Select(preSelected, available, target)
	if err != nil {
		return err
	}
	d.Inputs = d.Inputs[:0]
	for _, u := range selected {
		d.Inputs = append(d.Inputs, u.Input)
		b.utxoIndex[u.Input] = u
	}
	d.AvailableUtxos = remaining
	return nil
}

func (b *balancer) buildChange() error {
	d := b.draft
	inputSum := txvalue.NewSimpleValue(0)
	for _, in := range d.Inputs {
		u, ok := b.utxoIndex[in]
		if !ok {
			continue
		}
		var err error
		inputSum, err = inputSum.Add(u.Output.Value)
		if err != nil {
			return wrapErr(ErrIntegerOverflow, err, "summing inputs")
		}
	}
	outputSum := txvalue.NewSimpleValue(0)
	for _, o := range d.Outputs {
		var err error
		outputSum, err = outputSum.Add(o.Value)
		if err != nil {
			return wrapErr(ErrIntegerOverflow, err, "summing outputs")
		}
	}
	var withdrawalTotal uint64
	for _, w := range d.Withdrawals {
		withdrawalTotal += w.Amount
	}

	spent, err := outputSum.Add(txvalue.NewSimpleValue(d.Fee))
	if err != nil {
		return wrapErr(ErrIntegerOverflow, err, "adding fee")
	}
	available, err := inputSum.Add(txvalue.NewSimpleValue(withdrawalTotal))
	if err != nil {
		return wrapErr(ErrIntegerOverflow, err, "adding withdrawals")
	}
	if d.Mint != nil {
		positive, negative := splitMint(d.Mint)
		available, _ = available.Add(txvalue.NewValue(0, positive))
		spent, _ = spent.Add(txvalue.NewValue(0, negative))
	}

	change, err := available.Sub(spent)
	if err != nil {
		return newErr(ErrInsufficientFunds, "inputs do not cover outputs, fee, and deposits")
	}

	changeOutput := TxOutput{Address: *d.ChangeAddress, Value: change}
	minRequired, err := minAda(changeOutput, b.params.CoinsPerUtxoByte)
	if err != nil {
		return err
	}
	for change.GetCoin() < minRequired {
		idx := largestLovelaceIndex(d.AvailableUtxos)
		if idx < 0 {
			return newErr(ErrInsufficientFundsForChange, "cannot raise change above min-ADA: have %d, need %d", change.GetCoin(), minRequired)
		}
		extra := d.AvailableUtxos[idx]
		d.AvailableUtxos = append(d.AvailableUtxos[:idx], d.AvailableUtxos[idx+1:]...)
		d.Inputs = append(d.Inputs, extra.Input)
		b.utxoIndex[extra.Input] = extra
		change, err = change.Add(extra.Output.Value)
		if err != nil {
			return wrapErr(ErrIntegerOverflow, err, "absorbing extra UTxO into change")
		}
		changeOutput.Value = change
		minRequired, err = minAda(changeOutput, b.params.CoinsPerUtxoByte)
		if err != nil {
			return err
		}
	}

	d.changeOutputIndex = appendOrReplaceChange(d, changeOutput)
	return nil
}

func appendOrReplaceChange(d *TxDraft, change TxOutput) int {
	if d.changeOutputIndex >= 0 && d.changeOutputIndex < len(d.Outputs) {
		d.Outputs[d.changeOutputIndex] = change
		return d.changeOutputIndex
	}
	d.Outputs = append(d.Outputs, change)
	return len(d.Outputs) - 1
}

func (b *balancer) buildCollateral() error {
	d := b.draft
	required := ceilDiv(d.Fee*b.params.CollateralPercentage, 100)

	var collateral []UTxO
	pool := append([]UTxO(nil), d.CollateralUtxos...)
	var sum uint64
	for sum < required {
		idx := largestLovelaceIndex(pool)
		if idx < 0 {
			return newErr(ErrInsufficientFunds, "insufficient pure-ADA collateral: need %d, have %d", required, sum)
		}
		collateral = append(collateral, pool[idx])
		sum += pool[idx].Output.Value.GetCoin()
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	if b.params.MaxCollateralInputs > 0 && len(collateral) > b.params.MaxCollateralInputs {
		return newErr(ErrCollateralLimit, "collateral inputs %d exceed max %d", len(collateral), b.params.MaxCollateralInputs)
	}

	d.Collateral = d.Collateral[:0]
	for _, u := range collateral {
		d.Collateral = append(d.Collateral, u.Input)
		b.utxoIndex[u.Input] = u
	}
	d.CollateralUtxos = pool

	surplus := sum - required
	if d.CollateralChangeAddress == nil {
		if surplus > 0 {
			return newErr(ErrNullArgument, "collateral change address not set but collateral surplus is non-zero")
		}
	} else {
		collReturn := TxOutput{Address: *d.CollateralChangeAddress, Value: txvalue.NewSimpleValue(surplus)}
		minRequired, err := minAda(collReturn, b.params.CoinsPerUtxoByte)
		if err != nil {
			return err
		}
		if surplus > 0 && surplus < minRequired {
			surplus = minRequired
		}
		collReturn.Value = txvalue.NewSimpleValue(surplus)
		d.CollateralReturn = &collReturn
	}
	d.TotalCollateral = &required
	return nil
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (b *balancer) recomputeFee() (uint64, error) {
	d := b.draft
	wireBytes, err := b.encodeTentative()
	if err != nil {
		return 0, err
	}
	size := len(wireBytes) + int(d.SignerPadCount)*100
	refBytes := b.referenceScriptByteTotal()
	fee, err := totalFee(size, d.Redeemers, refBytes, b.params)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

func (b *balancer) referenceScriptByteTotal() int {
	total := 0
	for _, in := range b.draft.ReferenceInputs {
		u, ok := b.utxoIndex[in]
		if !ok || u.Output.ScriptRef == nil {
			continue
		}
		if _, isNative := u.Output.ScriptRef.Script.(common.NativeScript); isNative {
			continue
		}
		scriptBytes, err := cbor.Encode(u.Output.ScriptRef.Script)
		if err == nil {
			total += len(scriptBytes)
		}
	}
	return total
}

// encodeTentative serializes the current draft body for sizing/
// evaluation purposes (§4.1, §4.3).
func (b *balancer) encodeTentative() ([]byte, error) {
	return encodeBody(b.draft)
}
