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

// Provider is the external collaborator named in spec §6: the source of
// current protocol parameters, redeemer evaluation, and network
// identity. Concrete implementations (Maestro-backed, a static test
// fixture) live in internal/provider.
type Provider interface {
	GetParameters(ctx context.Context) (ProtocolParameters, error)
	EvaluateTx(ctx context.Context, txCbor []byte, referenceUtxos []UTxO) (map[common.RedeemerKey]common.ExUnits, error)
	GetNetworkMagic(ctx context.Context) (uint32, error)
}
