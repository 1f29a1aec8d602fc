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
)

func TestProposeInfoNoRedeemerRequired(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{GovActionDeposit: 100_000_000_000}})
	b.ProposeInfo(context.Background(), testAddress(t), nil, nil)
	if b.LastError() != nil {
		t.Fatalf("unexpected error: %v", b.LastError())
	}
	if len(b.draft.ProposalProcedures) != 1 {
		t.Fatalf("expected one proposal, got %d", len(b.draft.ProposalProcedures))
	}
	if b.draft.ProposalProcedures[0].RequiresRedeemer {
		t.Error("info action should not require a redeemer")
	}
}

func TestProposeParameterChangeWithGuardrailRequiresRedeemer(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{GovActionDeposit: 100_000_000_000}})
	guardrail := mustTestPolicy(t)
	b.ProposeParameterChange(context.Background(), testAddress(t), nil, nil, &guardrail, nil, nil)
	if b.LastError() == nil {
		t.Fatal("expected ErrMissingRedeemer for a guardrail-scoped proposal with no redeemer")
	}
	berr, ok := b.LastError().(*BuilderError)
	if !ok || berr.Kind != ErrMissingRedeemer {
		t.Errorf("expected ErrMissingRedeemer, got %v", b.LastError())
	}
}

func TestProposeParameterChangeWithGuardrailAndRedeemer(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{GovActionDeposit: 100_000_000_000}})
	guardrail := mustTestPolicy(t)
	b.ProposeParameterChange(context.Background(), testAddress(t), nil, nil, &guardrail, nil, &Redeemer{})
	if b.LastError() != nil {
		t.Fatalf("unexpected error: %v", b.LastError())
	}
	if len(b.draft.Redeemers) != 1 {
		t.Fatalf("expected one PROPOSING redeemer, got %d", len(b.draft.Redeemers))
	}
	if b.draft.Redeemers[0].Tag != RedeemerTagProposing {
		t.Errorf("expected RedeemerTagProposing, got %v", b.draft.Redeemers[0].Tag)
	}
}

func TestProposeNoConfidenceNoRedeemer(t *testing.T) {
	b := New(fakeProvider{params: ProtocolParameters{GovActionDeposit: 100_000_000_000}})
	b.ProposeNoConfidence(context.Background(), testAddress(t), nil, nil, nil)
	if b.LastError() != nil {
		t.Fatalf("unexpected error: %v", b.LastError())
	}
}
