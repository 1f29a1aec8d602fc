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

package txvalue_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"

	"github.com/blinklabs-io/gouroboros/ledger/common"
)

func mustPolicy(t *testing.T, hexStr string) common.Blake2b224 {
	t.Helper()
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		t.Fatalf("failed to parse policy id: %v", err)
	}
	return common.NewBlake2b224(raw)
}

func TestValueAddSub(t *testing.T) {
	policy := mustPolicy(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	a := txvalue.NewValue(5_000_000, txvalue.SingleAsset(policy, []byte("TOK"), big.NewInt(100)))
	b := txvalue.NewValue(2_000_000, txvalue.SingleAsset(policy, []byte("TOK"), big.NewInt(40)))

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if sum.GetCoin() != 7_000_000 {
		t.Errorf("expected coin 7000000, got %d", sum.GetCoin())
	}

	diff, err := sum.Sub(b)
	if err != nil {
		t.Fatalf("Sub returned error: %v", err)
	}
	if diff.GetCoin() != a.GetCoin() {
		t.Errorf("expected coin %d after sub, got %d", a.GetCoin(), diff.GetCoin())
	}
	qty := diff.Assets.Asset(policy, []byte("TOK"))
	if qty == nil || qty.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected 100 TOK remaining, got %v", qty)
	}
}

func TestValueSubUnderflow(t *testing.T) {
	a := txvalue.NewSimpleValue(1_000_000)
	b := txvalue.NewSimpleValue(2_000_000)
	if _, err := a.Sub(b); err == nil {
		t.Errorf("expected coin underflow error")
	}
}

func TestValueGreaterOrEqual(t *testing.T) {
	policy := mustPolicy(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	have := txvalue.NewValue(3_000_000, txvalue.SingleAsset(policy, []byte("X"), big.NewInt(10)))
	want := txvalue.NewValue(2_000_000, txvalue.SingleAsset(policy, []byte("X"), big.NewInt(10)))
	if !have.GreaterOrEqual(want) {
		t.Errorf("expected have to cover want")
	}
	wantMore := txvalue.NewValue(2_000_000, txvalue.SingleAsset(policy, []byte("X"), big.NewInt(11)))
	if have.GreaterOrEqual(wantMore) {
		t.Errorf("expected have to fall short of wantMore")
	}
}

func TestValueCloneIsIndependent(t *testing.T) {
	policy := mustPolicy(t, "cccccccccccccccccccccccccccccccccccccccccccccccccccccc")
	original := txvalue.NewValue(1_000_000, txvalue.SingleAsset(policy, []byte("Y"), big.NewInt(5)))
	clone := original.Clone()
	clone.Assets.Add(txvalue.SingleAsset(policy, []byte("Y"), big.NewInt(5)))
	originalQty := original.Assets.Asset(policy, []byte("Y"))
	if originalQty.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("mutating the clone affected the original: %v", originalQty)
	}
}
