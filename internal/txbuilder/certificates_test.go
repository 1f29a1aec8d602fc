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
	"testing"

	"github.com/blinklabs-io/gouroboros/ledger/common"
)

type fakeProvider struct {
	params ProtocolParameters
}

func (f fakeProvider) GetParameters(ctx context.Context) (ProtocolParameters, error) {
	return f.params, nil
}

func (f fakeProvider) EvaluateTx(ctx context.Context, txCbor []byte, refs []UTxO) (map[common.RedeemerKey]common.ExUnits, error) {
	return nil, nil
}

func (f fakeProvider) GetNetworkMagic(ctx context.Context) (uint32, error) {
	return 1, nil
}

func TestRegisterRewardAddressKeyCredential(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{KeyDeposit: 2_000_000}})
	cred := KeyCredential(mustTestPolicy(t))
	b.RegisterRewardAddress(context.Background(), cred, nil)
	if b.LastError() != nil {
		t.Fatalf("unexpected error: %v", b.LastError())
	}
	if len(b.draft.Certs) != 1 {
		t.Fatalf("expected one certificate, got %d", len(b.draft.Certs))
	}
}

func TestRegisterRewardAddressScriptCredentialRequiresRedeemer(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{KeyDeposit: 2_000_000}})
	cred := ScriptCredential(mustTestPolicy(t))
	b.RegisterRewardAddress(context.Background(), cred, nil)
	if b.LastError() == nil {
		t.Fatal("expected ErrMissingRedeemer for a script-typed credential with no redeemer")
	}
	berr, ok := b.LastError().(*BuilderError)
	if !ok || berr.Kind != ErrMissingRedeemer {
		t.Errorf("expected ErrMissingRedeemer, got %v", b.LastError())
	}
}

func TestRegisterRewardAddressScriptCredentialWithRedeemer(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{KeyDeposit: 2_000_000}})
	cred := ScriptCredential(mustTestPolicy(t))
	b.RegisterRewardAddress(context.Background(), cred, &Redeemer{})
	if b.LastError() != nil {
		t.Fatalf("unexpected error: %v", b.LastError())
	}
	if len(b.draft.Redeemers) != 1 {
		t.Fatalf("expected one CERTIFYING redeemer, got %d", len(b.draft.Redeemers))
	}
	if b.draft.Redeemers[0].Tag != RedeemerTagCertifying {
		t.Errorf("expected RedeemerTagCertifying, got %v", b.draft.Redeemers[0].Tag)
	}
	if b.draft.Redeemers[0].Index != 0 {
		t.Errorf("expected redeemer index 0 for the first certificate, got %d", b.draft.Redeemers[0].Index)
	}
}

func TestDelegateStakeKeyTypedRejectsRedeemer(t *testing.T) {
	b := New(fakeProvider{})
	cred := KeyCredential(mustTestPolicy(t))
	b.DelegateStake(cred, mustTestPolicy(t), &Redeemer{})
	if b.LastError() == nil {
		t.Fatal("expected an error for a key-typed credential carrying a redeemer")
	}
}

func TestDrepLifecycleDeposits(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{DRepDeposit: 500_000_000}})
	drepCred := KeyCredential(mustTestPolicy(t))
	b.RegisterDrep(context.Background(), drepCred, nil, nil)
	b.UpdateDrep(drepCred, nil, nil)
	b.DeregisterDrep(context.Background(), drepCred, nil)
	if b.LastError() != nil {
		t.Fatalf("unexpected error across DRep lifecycle: %v", b.LastError())
	}
	if len(b.draft.Certs) != 3 {
		t.Fatalf("expected 3 certificates (register, update, deregister), got %d", len(b.draft.Certs))
	}
}
