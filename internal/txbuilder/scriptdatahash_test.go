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
	"testing"

	"github.com/blinklabs-io/gouroboros/ledger/common"
)

func TestComputeScriptDataHashNilWithoutWitnessData(t *testing.T) {
	hash, err := computeScriptDataHash(nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash != nil {
		t.Errorf("expected nil script data hash with no redeemers/datums, got %v", hash)
	}
}

func TestComputeScriptDataHashDeterministic(t *testing.T) {
	redeemers := []Redeemer{
		{Tag: RedeemerTagSpend, Index: 0, ExUnits: common.ExUnits{Memory: 1000, Steps: 500}},
	}
	usedLangs := map[PlutusLanguage]struct{}{PlutusV2: {}}
	costModels := map[PlutusLanguage][]int64{PlutusV2: make([]int64, 175)}

	h1, err := computeScriptDataHash(redeemers, nil, usedLangs, costModels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := computeScriptDataHash(redeemers, nil, usedLangs, costModels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == nil || h2 == nil {
		t.Fatal("expected a non-nil hash when redeemers are present")
	}
	if *h1 != *h2 {
		t.Error("computeScriptDataHash is not deterministic for identical inputs")
	}
}

func TestComputeScriptDataHashMissingCostModel(t *testing.T) {
	redeemers := []Redeemer{{Tag: RedeemerTagSpend, Index: 0}}
	usedLangs := map[PlutusLanguage]struct{}{PlutusV2: {}}
	_, err := computeScriptDataHash(redeemers, nil, usedLangs, map[PlutusLanguage][]int64{})
	if err == nil {
		t.Fatal("expected ErrProtocolParamsIncomplete for a used language with no cost model")
	}
	berr, ok := err.(*BuilderError)
	if !ok || berr.Kind != ErrProtocolParamsIncomplete {
		t.Errorf("expected ErrProtocolParamsIncomplete, got %v", err)
	}
}
