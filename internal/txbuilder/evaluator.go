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

	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// TxEvaluator prices each redeemer's ex-units for a tentative transaction
// (§4.3). Implementations may reorder redeemers to match their own
// canonical ordering; the core re-indexes afterward (§4.5), so an
// evaluator's RedeemerKey.Index only needs to identify *which* redeemer
// a result belongs to, not its final position.
type TxEvaluator interface {
	EvaluateTx(ctx context.Context, txCbor []byte, referenceUtxos []UTxO) (map[common.RedeemerKey]common.ExUnits, error)
}

// ProviderEvaluator is the default TxEvaluator: a thin passthrough to
// whatever Provider (§6) the builder was wired with.
type ProviderEvaluator struct {
	Provider Provider
}

func (e ProviderEvaluator) EvaluateTx(ctx context.Context, txCbor []byte, referenceUtxos []UTxO) (map[common.RedeemerKey]common.ExUnits, error) {
	return e.Provider.EvaluateTx(ctx, txCbor, referenceUtxos)
}
