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

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// gov_action type tags, Conway CDDL `gov_action`.
const (
	govActionParameterChange     = 0
	govActionHardForkInitiation  = 1
	govActionTreasuryWithdrawals = 2
	govActionNoConfidence        = 3
	govActionUpdateCommittee     = 4
	govActionNewConstitution     = 5
	govActionInfo                = 6
)

// ProtocolVersion is the (major, minor) pair carried by a hard-fork
// proposal.
type ProtocolVersion struct {
	Major uint64
	Minor uint64
}

// newProposal encodes the [deposit, reward_account, gov_action, anchor]
// array shared by every proposal procedure and wraps it as an opaque
// Proposal, flagging whether a guardrail script makes the proposal
// require a PROPOSING redeemer.
func newProposal(deposit uint64, rewardAddr common.Address, govAction []any, anchor *Anchor, requiresRedeemer bool) (Proposal, error) {
	raw, err := cbor.Encode([]any{deposit, rewardAddr, govAction, anchor.cbor()})
	if err != nil {
		return Proposal{}, wrapErr(ErrEncoding, err, "failed to encode proposal procedure")
	}
	return Proposal{RawMessage: raw, RequiresRedeemer: requiresRedeemer}, nil
}

func (b *TxBuilder) proposalDeposit(ctx context.Context) (uint64, bool) {
	if b.failed() {
		return 0, false
	}
	params, err := b.resolveParams(ctx)
	if err != nil {
		b.fail(err)
		return 0, false
	}
	return params.GovActionDeposit, true
}

// ProposeParameterChange proposes a protocol-parameter update. paramUpdate
// is an opaque, already-CBOR-encodable parameter-update map (protocol
// parameter encoding is an external collaborator's concern per §1).
// guardrail, if non-nil, is the constitution script hash authorizing
// the change and makes the proposal require a PROPOSING redeemer.
func (b *TxBuilder) ProposeParameterChange(
	ctx context.Context,
	rewardAddr common.Address,
	prevActionId *GovActionId,
	paramUpdate cbor.RawMessage,
	guardrail *common.Blake2b224,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	var guardrailField any
	if guardrail != nil {
		guardrailField = *guardrail
	}
	govAction := []any{govActionParameterChange, prevActionId.cbor(), paramUpdate, guardrailField}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, guardrail != nil, redeemer)
}

// ProposeHardfork proposes a protocol-version bump.
func (b *TxBuilder) ProposeHardfork(
	ctx context.Context,
	rewardAddr common.Address,
	prevActionId *GovActionId,
	version ProtocolVersion,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	govAction := []any{govActionHardForkInitiation, prevActionId.cbor(), []any{version.Major, version.Minor}}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, false, redeemer)
}

// ProposeTreasuryWithdrawals proposes one-off treasury payouts, keyed by
// bech32 reward address. guardrail behaves as in ProposeParameterChange.
func (b *TxBuilder) ProposeTreasuryWithdrawals(
	ctx context.Context,
	rewardAddr common.Address,
	withdrawals map[string]uint64,
	guardrail *common.Blake2b224,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	withdrawalMap := make(map[cbor.ByteString]uint64, len(withdrawals))
	for bech32Addr, amount := range withdrawals {
		addr, err := common.NewAddress(bech32Addr)
		if err != nil {
			b.fail(wrapErr(ErrInvalidArgument, err, "invalid treasury withdrawal reward address %q", bech32Addr))
			return b
		}
		raw, err := addressRawBytes(addr)
		if err != nil {
			b.fail(wrapErr(ErrEncoding, err, "failed to encode treasury withdrawal reward address"))
			return b
		}
		withdrawalMap[cbor.NewByteString(raw)] = amount
	}
	var guardrailField any
	if guardrail != nil {
		guardrailField = *guardrail
	}
	govAction := []any{govActionTreasuryWithdrawals, withdrawalMap, guardrailField}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, guardrail != nil, redeemer)
}

// ProposeNoConfidence proposes a motion of no confidence in the current
// constitutional committee.
func (b *TxBuilder) ProposeNoConfidence(
	ctx context.Context,
	rewardAddr common.Address,
	prevActionId *GovActionId,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	govAction := []any{govActionNoConfidence, prevActionId.cbor()}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, false, redeemer)
}

// ProposeUpdateCommittee proposes adding/removing constitutional
// committee members and/or changing the quorum threshold.
func (b *TxBuilder) ProposeUpdateCommittee(
	ctx context.Context,
	rewardAddr common.Address,
	prevActionId *GovActionId,
	removed []Credential,
	added map[Credential]uint64, // credential -> expiration epoch
	threshold UnitInterval,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	removedSet := make([]any, 0, len(removed))
	for _, c := range removed {
		removedSet = append(removedSet, c.cbor())
	}
	addedMap := make(map[string]any, len(added))
	for c, epoch := range added {
		addedMap[c.HexKey()] = []any{c.cbor(), epoch}
	}
	govAction := []any{govActionUpdateCommittee, prevActionId.cbor(), removedSet, addedMap, threshold.cbor()}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, false, redeemer)
}

// ProposeNewConstitution proposes replacing the on-chain constitution.
// constitution is opaque (anchor plus optional guardrail script hash),
// matching Certificate/Proposal's already-CBOR-encodable convention.
func (b *TxBuilder) ProposeNewConstitution(
	ctx context.Context,
	rewardAddr common.Address,
	prevActionId *GovActionId,
	constitution cbor.RawMessage,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	govAction := []any{govActionNewConstitution, prevActionId.cbor(), constitution}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, false, redeemer)
}

// ProposeInfo proposes a no-op informational action, used purely to
// gather on-chain sentiment.
func (b *TxBuilder) ProposeInfo(
	ctx context.Context,
	rewardAddr common.Address,
	anchor *Anchor,
	redeemer *Redeemer,
) *TxBuilder {
	if b.failed() {
		return b
	}
	deposit, ok := b.proposalDeposit(ctx)
	if !ok {
		return b
	}
	govAction := []any{govActionInfo}
	return b.addProposalHelper(deposit, rewardAddr, govAction, anchor, false, redeemer)
}

func (b *TxBuilder) addProposalHelper(
	deposit uint64,
	rewardAddr common.Address,
	govAction []any,
	anchor *Anchor,
	requiresRedeemer bool,
	redeemer *Redeemer,
) *TxBuilder {
	proposal, err := newProposal(deposit, rewardAddr, govAction, anchor, requiresRedeemer)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.AddProposal(proposal, redeemer)
}
