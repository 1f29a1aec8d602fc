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
	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// computeScriptDataHash implements §4.4: a domain-separated BLAKE2b-256
// over the canonically-ordered redeemer list, the deduplicated datum
// set, and the language view of the cost models actually used. Returns
// nil if there are no redeemers and no datums, matching the "absent when
// there is no Plutus witness data" rule in §3's invariants.
func computeScriptDataHash(
	redeemers []Redeemer,
	datums []common.Datum,
	usedLanguages map[PlutusLanguage]struct{},
	costModels map[PlutusLanguage][]int64,
) (*common.Blake2b256, error) {
	if len(redeemers) == 0 && len(datums) == 0 {
		return nil, nil
	}

	redeemerMap := make(map[common.RedeemerKey]common.RedeemerValue, len(redeemers))
	for _, r := range redeemers {
		redeemerMap[r.Key()] = common.RedeemerValue{Data: r.Data, ExUnits: r.ExUnits}
	}
	var redeemerBytes []byte
	var err error
	if len(redeemerMap) > 0 {
		redeemerBytes, err = cbor.Encode(redeemerMap)
	} else {
		redeemerBytes, err = cbor.Encode(map[common.RedeemerKey]common.RedeemerValue{})
	}
	if err != nil {
		return nil, wrapErr(ErrEncoding, err, "failed to encode redeemers")
	}

	var datumBytes []byte
	if len(datums) > 0 {
		datumBytes, err = cbor.Encode(datums)
	} else {
		datumBytes, err = cbor.Encode([]common.Datum{})
	}
	if err != nil {
		return nil, wrapErr(ErrEncoding, err, "failed to encode datums")
	}

	usedVersions := make(map[uint]struct{}, len(usedLanguages))
	numericCostModels := make(map[uint][]int64, len(usedLanguages))
	for lang := range usedLanguages {
		cm, ok := costModels[lang]
		if !ok {
			return nil, newErr(ErrProtocolParamsIncomplete, "missing cost model for language %d", lang)
		}
		usedVersions[uint(lang)] = struct{}{}
		numericCostModels[uint(lang)] = cm
	}
	var costModelBytes []byte
	if len(usedVersions) > 0 {
		costModelBytes, err = common.EncodeLangViews(usedVersions, numericCostModels)
	} else {
		costModelBytes, err = cbor.Encode(map[uint][]int64{})
	}
	if err != nil {
		return nil, wrapErr(ErrEncoding, err, "failed to encode cost model language views")
	}

	combined := make([]byte, 0, len(redeemerBytes)+len(datumBytes)+len(costModelBytes))
	combined = append(combined, redeemerBytes...)
	combined = append(combined, datumBytes...)
	combined = append(combined, costModelBytes...)

	hash := common.Blake2b256Hash(combined)
	return &hash, nil
}
