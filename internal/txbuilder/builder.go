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

	"github.com/blinklabs-io/cardano-txbuilder/internal/logging"
	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// TxBuilder is the stateful incremental assembler (C7). Every mutating
// method is a no-op once the builder holds a sticky error: callers
// chain calls and check LastError (or the return of Build) once at
// the end, matching the teacher's first-error-wins style.
type TxBuilder struct {
	draft     *TxDraft
	provider  Provider
	selector  CoinSelector
	evaluator TxEvaluator

	lastError error
	built     bool

	cachedParams    ProtocolParameters
	cachedParamsSet bool
}

// New creates an empty builder wired to provider for protocol parameters
// and ex-units evaluation, using LargeFirstSelector for coin selection.
func New(provider Provider) *TxBuilder {
	return &TxBuilder{
		draft:    NewTxDraft(),
		provider: provider,
		selector: LargeFirstSelector{},
	}
}

// WithCoinSelector overrides the default coin selector.
func (b *TxBuilder) WithCoinSelector(s CoinSelector) *TxBuilder {
	if b.failed() {
		return b
	}
	b.selector = s
	return b
}

// WithEvaluator overrides the default provider-backed evaluator.
func (b *TxBuilder) WithEvaluator(e TxEvaluator) *TxBuilder {
	if b.failed() {
		return b
	}
	b.evaluator = e
	return b
}

func (b *TxBuilder) failed() bool {
	if b.built {
		b.fail(newErr(ErrIllegalState, "builder already consumed by a prior Build() call"))
	}
	return b.lastError != nil
}

func (b *TxBuilder) fail(err error) {
	if b.lastError == nil {
		b.lastError = err
	}
}

// LastError returns the builder's sticky error, or nil if none occurred.
func (b *TxBuilder) LastError() error {
	return b.lastError
}

// SetChangeAddress records the address that receives leftover value.
func (b *TxBuilder) SetChangeAddress(addr common.Address) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.ChangeAddress = &addr
	return b
}

// SetCollateralChangeAddress records the address that receives surplus
// collateral.
func (b *TxBuilder) SetCollateralChangeAddress(addr common.Address) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.CollateralChangeAddress = &addr
	return b
}

// SetUtxos records the pool of UTxOs available to the coin selector.
func (b *TxBuilder) SetUtxos(utxos []UTxO) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.AvailableUtxos = utxos
	return b
}

// SetCollateralUtxos records the pool of pure-lovelace UTxOs available
// for collateral.
func (b *TxBuilder) SetCollateralUtxos(utxos []UTxO) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.CollateralUtxos = utxos
	return b
}

// SetNetworkId writes the body's network id field directly.
func (b *TxBuilder) SetNetworkId(id uint8) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.NetworkId = &id
	return b
}

// SetMinimumFee pins the fee to at least minFee; the balancing loop
// still recomputes and may raise it further, clamping its working fee
// to this floor on every pass rather than just once.
func (b *TxBuilder) SetMinimumFee(minFee uint64) *TxBuilder {
	if b.failed() {
		return b
	}
	if minFee > b.draft.MinimumFee {
		b.draft.MinimumFee = minFee
	}
	return b
}

// SetInvalidBefore sets the validity interval start as an absolute slot.
func (b *TxBuilder) SetInvalidBefore(slot uint64) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.ValidityStart = &slot
	return b
}

// SetInvalidBeforeEx converts unixTime to a slot via the configured
// network's era-aware conversion, then behaves like SetInvalidBefore.
func (b *TxBuilder) SetInvalidBeforeEx(unixTime int64) *TxBuilder {
	if b.failed() {
		return b
	}
	return b.SetInvalidBefore(SlotFromUnixTime(unixTime))
}

// SetInvalidAfter sets the validity interval end (TTL) as an absolute slot.
func (b *TxBuilder) SetInvalidAfter(slot uint64) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.TTL = &slot
	return b
}

// SetInvalidAfterEx is the Unix-time counterpart of SetInvalidAfter.
func (b *TxBuilder) SetInvalidAfterEx(unixTime int64) *TxBuilder {
	if b.failed() {
		return b
	}
	return b.SetInvalidAfter(SlotFromUnixTime(unixTime))
}

// SendLovelace adds a plain output carrying only lovelace.
func (b *TxBuilder) SendLovelace(addr common.Address, amount uint64) *TxBuilder {
	return b.SendValue(addr, txvalue.NewSimpleValue(amount))
}

// SendValue adds an output carrying value (lovelace plus any assets).
// Min-ADA is enforced at build time, not here: Build raises the
// output's lovelace to its min-ADA requirement when it carries less.
func (b *TxBuilder) SendValue(addr common.Address, value txvalue.Value) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.Outputs = append(b.draft.Outputs, TxOutput{Address: addr, Value: value})
	return b
}

// LockLovelace adds a lovelace-only output carrying a datum.
func (b *TxBuilder) LockLovelace(addr common.Address, amount uint64, datum *common.Datum, datumHash *common.Blake2b256) *TxBuilder {
	return b.LockValue(addr, txvalue.NewSimpleValue(amount), datum, datumHash)
}

// LockValue adds an output carrying value plus an inline datum or datum
// hash (exactly one of datum/datumHash should be non-nil).
func (b *TxBuilder) LockValue(addr common.Address, value txvalue.Value, datum *common.Datum, datumHash *common.Blake2b256) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.Outputs = append(b.draft.Outputs, TxOutput{
		Address:     addr,
		Value:       value,
		InlineDatum: datum,
		DatumHash:   datumHash,
	})
	return b
}

// AddInput appends utxo to the pre-selected input set. A script-typed
// UTxO requires redeemer; a key-typed one must not carry one.
func (b *TxBuilder) AddInput(utxo UTxO, redeemer *Redeemer, datum *common.Datum) *TxBuilder {
	if b.failed() {
		return b
	}
	isScript := utxo.Output.IsScriptAddress()
	if isScript && redeemer == nil {
		b.fail(newErr(ErrMissingRedeemer, "script input %x#%d requires a redeemer", utxo.Input.TxHash.Bytes(), utxo.Input.Index))
		return b
	}
	if !isScript && redeemer != nil {
		b.fail(newErr(ErrInvalidArgument, "key-typed input %x#%d must not carry a redeemer", utxo.Input.TxHash.Bytes(), utxo.Input.Index))
		return b
	}
	b.draft.Inputs = append(b.draft.Inputs, utxo.Input)
	b.draft.AvailableUtxos = append(b.draft.AvailableUtxos, utxo)
	if redeemer != nil {
		redeemer.Tag = RedeemerTagSpend
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
		b.draft.inputRedeemerIdx[utxo.Input] = len(b.draft.Redeemers) - 1
	}
	if datum != nil {
		// Datums are kept as a set: one already present (by CBOR
		// encoding) is not appended again.
		datumBytes, err := cbor.Encode(datum)
		duplicate := false
		if err == nil {
			for i := range b.draft.Datums {
				existing, encErr := cbor.Encode(&b.draft.Datums[i])
				if encErr == nil && string(existing) == string(datumBytes) {
					duplicate = true
					break
				}
			}
		}
		if !duplicate {
			b.draft.Datums = append(b.draft.Datums, *datum)
		}
	}
	b.draft.reindexRedeemers()
	return b
}

// AddReferenceInput registers utxo as a reference input. If its output
// carries a Plutus script reference, the corresponding language version
// is flagged as used for the script-data hash.
func (b *TxBuilder) AddReferenceInput(utxo UTxO) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.ReferenceInputs = append(b.draft.ReferenceInputs, utxo.Input)
	b.draft.AvailableUtxos = append(b.draft.AvailableUtxos, utxo)
	if utxo.Output.ScriptRef != nil {
		switch utxo.Output.ScriptRef.Script.(type) {
		case common.PlutusV1Script:
			b.draft.markLanguageUsed(PlutusV1)
		case common.PlutusV2Script:
			b.draft.markLanguageUsed(PlutusV2)
		case common.PlutusV3Script:
			b.draft.markLanguageUsed(PlutusV3)
		}
	}
	return b
}

// MintToken adds signedQty of (policy, name) to the mint multi-asset.
// The first mint_token call for a given policy installs the MINT
// redeemer for that policy.
func (b *TxBuilder) MintToken(policy common.Blake2b224, name []byte, signedQty int64, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	delta := txvalue.SingleAsset(policy, name, big.NewInt(signedQty))
	if b.draft.Mint == nil {
		b.draft.Mint = txvalue.CloneMultiAsset(delta)
	} else {
		b.draft.Mint.Add(delta)
	}
	policyHex := policy.String()
	if _, exists := b.draft.mintRedeemerIdx[policyHex]; !exists && redeemer != nil {
		redeemer.Tag = RedeemerTagMint
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
		b.draft.mintRedeemerIdx[policyHex] = len(b.draft.Redeemers) - 1
		b.draft.reindexRedeemers()
	}
	return b
}

// SetMetadata installs an auxiliary-data item under tag and recomputes
// the body's aux-data hash.
func (b *TxBuilder) SetMetadata(tag uint64, metadatum Metadatum) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.Metadata[tag] = metadatum
	hash, err := hashAuxData(b.draft.Metadata)
	if err != nil {
		b.fail(wrapErr(ErrEncoding, err, "failed to hash auxiliary data"))
		return b
	}
	b.draft.AuxDataHash = hash
	return b
}

func hashAuxData(metadata map[uint64]Metadatum) (*common.Blake2b256, error) {
	encoded := make(map[uint64]cbor.RawMessage, len(metadata))
	for k, v := range metadata {
		encoded[k] = v.RawMessage
	}
	b, err := cbor.Encode(encoded)
	if err != nil {
		return nil, err
	}
	hash := common.Blake2b256Hash(b)
	return &hash, nil
}

// AddSigner records a required-signer key hash.
func (b *TxBuilder) AddSigner(hash common.Blake2b224) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.RequiredSigners = append(b.draft.RequiredSigners, hash)
	return b
}

// PadSignerCount hints that n additional signatures (beyond
// RequiredSigners) will be attached after build(), so the fee
// calculation budgets size for them (§4.6 step 6).
func (b *TxBuilder) PadSignerCount(n int) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.SignerPadCount = n
	return b
}

// AddCertificate appends cert to the certificate list. If redeemer is
// supplied, it is stored as a CERTIFYING redeemer whose index is the
// new certificate's position.
func (b *TxBuilder) AddCertificate(cert Certificate, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.Certs = append(b.draft.Certs, cert)
	if redeemer != nil {
		redeemer.Tag = RedeemerTagCertifying
		redeemer.Index = uint32(len(b.draft.Certs) - 1)
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
	}
	return b
}

// WithdrawRewards adds amount to the withdrawals map for rewardAddr
// (bech32-encoded reward address). A redeemer is required iff the
// reward credential is script-typed.
func (b *TxBuilder) WithdrawRewards(rewardAddr common.Address, amount uint64, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	isScript := credentialIsScript(rewardAddr.StakingPayload())
	if isScript && redeemer == nil {
		b.fail(newErr(ErrMissingRedeemer, "script reward address requires a redeemer"))
		return b
	}
	if !isScript && redeemer != nil {
		b.fail(newErr(ErrInvalidArgument, "key-typed reward address must not carry a redeemer"))
		return b
	}
	raw, err := addressRawBytes(rewardAddr)
	if err != nil {
		b.fail(wrapErr(ErrEncoding, err, "failed to encode reward address"))
		return b
	}
	key := rewardAddr.String()
	entry := b.draft.Withdrawals[key]
	entry.AddressBytes = raw
	entry.Amount += amount
	b.draft.Withdrawals[key] = entry
	if redeemer != nil {
		redeemer.Tag = RedeemerTagReward
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
		b.draft.withdrawalRedeemerIdx[key] = len(b.draft.Redeemers) - 1
		b.draft.reindexRedeemers()
	}
	return b
}

func credentialIsScript(payload any) bool {
	if payload == nil {
		return false
	}
	_, isScript := payload.(common.AddressPayloadScriptHash)
	return isScript
}

// Vote writes voter's procedure for the current governance action into
// the voting procedures map.
func (b *TxBuilder) Vote(voter Voter, procedure VotingProcedure, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	key := voter.HexKey()
	b.draft.VotingProcedures[key] = voteEntry{Voter: voter, Procedure: procedure}
	if redeemer != nil {
		redeemer.Tag = RedeemerTagVoting
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
		b.draft.voteRedeemerIdx[key] = len(b.draft.Redeemers) - 1
		b.draft.reindexRedeemers()
	}
	return b
}

// AddProposal appends a governance proposal procedure, installing a
// PROPOSING redeemer at its insertion index when the proposal requires
// script authorization.
func (b *TxBuilder) AddProposal(proposal Proposal, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	idx := len(b.draft.ProposalProcedures)
	b.draft.ProposalProcedures = append(b.draft.ProposalProcedures, proposal)
	if proposal.RequiresRedeemer {
		if redeemer == nil {
			b.fail(newErr(ErrMissingRedeemer, "proposal %d requires script authorization but no redeemer was supplied", idx))
			return b
		}
		redeemer.Tag = RedeemerTagProposing
		redeemer.Index = uint32(idx)
		b.draft.Redeemers = append(b.draft.Redeemers, *redeemer)
		b.draft.proposalRedeemerIdx[idx] = len(b.draft.Redeemers) - 1
	}
	return b
}

// AddScript adds script to the witness set and flags its language
// version for the script-data hash.
func (b *TxBuilder) AddScript(script common.Script) *TxBuilder {
	if b.failed() {
		return b
	}
	b.draft.Scripts = append(b.draft.Scripts, script)
	switch script.(type) {
	case common.PlutusV1Script:
		b.draft.markLanguageUsed(PlutusV1)
	case common.PlutusV2Script:
		b.draft.markLanguageUsed(PlutusV2)
	case common.PlutusV3Script:
		b.draft.markLanguageUsed(PlutusV3)
	}
	return b
}

// Build runs the balancing loop (§4.6) to reach a protocol-valid,
// script-data-hashed transaction. Preconditions: change address set;
// UTxOs set; if any Plutus redeemer/script exists, collateral address
// and UTxOs must also be set. Once Build succeeds, the builder is
// locked: further mutating calls are no-ops that latch ErrIllegalState
// as the sticky error, and a second Build returns it.
func (b *TxBuilder) Build(ctx context.Context) (*TxDraft, error) {
	if b.built {
		err := newErr(ErrIllegalState, "builder already consumed by a prior Build() call")
		b.fail(err)
		return nil, err
	}
	if b.lastError != nil {
		return nil, b.lastError
	}
	if b.draft.ChangeAddress == nil {
		err := newErr(ErrNullArgument, "change address must be set before Build")
		b.fail(err)
		return nil, err
	}
	if len(b.draft.AvailableUtxos) == 0 && len(b.draft.Inputs) == 0 {
		err := newErr(ErrNullArgument, "UTxOs must be set before Build")
		b.fail(err)
		return nil, err
	}
	if b.draft.HasPlutusWitness() {
		if b.draft.CollateralChangeAddress == nil {
			err := newErr(ErrNullArgument, "collateral change address must be set when Plutus witnesses are present")
			b.fail(err)
			return nil, err
		}
		if len(b.draft.CollateralUtxos) == 0 {
			err := newErr(ErrNullArgument, "collateral UTxOs must be set when Plutus witnesses are present")
			b.fail(err)
			return nil, err
		}
	}

	params, err := b.resolveParams(ctx)
	if err != nil {
		b.fail(err)
		return nil, err
	}
	evaluator := b.evaluator
	if evaluator == nil {
		evaluator = ProviderEvaluator{Provider: b.provider}
	}

	logger := logging.GetLogger()
	logger.Debugf("starting balancing loop: %d inputs, %d outputs, %d redeemers",
		len(b.draft.Inputs), len(b.draft.Outputs), len(b.draft.Redeemers))

	bal := newBalancer(b.draft, params, b.selector, evaluator)
	finalDraft, err := bal.balance(ctx)
	if err != nil {
		b.fail(err)
		return nil, err
	}
	b.built = true
	return finalDraft, nil
}

func (b *TxBuilder) resolveParams(ctx context.Context) (ProtocolParameters, error) {
	if b.cachedParamsSet {
		return b.cachedParams, nil
	}
	if b.provider == nil {
		return ProtocolParameters{}, newErr(ErrNullArgument, "no provider wired for protocol parameters")
	}
	params, err := b.provider.GetParameters(ctx)
	if err != nil {
		return ProtocolParameters{}, wrapErr(ErrProtocolParamsIncomplete, err, "failed to fetch protocol parameters")
	}
	b.cachedParams = params
	b.cachedParamsSet = true
	return params, nil
}
