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

// Package txbuilder assembles, balances, and serializes Cardano
// transactions: fee computation, coin selection, ex-units evaluation,
// script data hashing, redeemer indexing, and the balancing loop that
// ties them together behind a stateful builder facade.
package txbuilder

import (
	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// RedeemerTag identifies which kind of script purpose a redeemer serves.
// Values match the CIP-40/Conway wire ordering so they round-trip through
// cbor.Encode without a translation table.
type RedeemerTag uint8

const (
	RedeemerTagSpend RedeemerTag = iota
	RedeemerTagMint
	RedeemerTagCertifying
	RedeemerTagReward
	RedeemerTagVoting
	RedeemerTagProposing
)

func (t RedeemerTag) String() string {
	switch t {
	case RedeemerTagSpend:
		return "spend"
	case RedeemerTagMint:
		return "mint"
	case RedeemerTagCertifying:
		return "certifying"
	case RedeemerTagReward:
		return "reward"
	case RedeemerTagVoting:
		return "voting"
	case RedeemerTagProposing:
		return "proposing"
	default:
		return "unknown"
	}
}

// PlutusLanguage identifies a Plutus script version, matching the
// language-id numbering used by the language-view encoding (§4.4).
type PlutusLanguage uint

const (
	PlutusV1 PlutusLanguage = 0
	PlutusV2 PlutusLanguage = 1
	PlutusV3 PlutusLanguage = 2
)

// Redeemer is the argument plus ex-units supplied to a Plutus script
// invocation. Index is filled in by the redeemer index maps (§4.5) and
// must not be set by callers of the facade.
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint32
	Data    cbor.RawMessage
	ExUnits common.ExUnits
}

// Key returns the gouroboros key used to address this redeemer in the
// script-data-hash redeemer map.
func (r Redeemer) Key() common.RedeemerKey {
	return common.RedeemerKey{Tag: common.RedeemerTag(r.Tag), Index: r.Index}
}

// TxInput identifies a spendable or referenceable output.
type TxInput struct {
	TxHash common.Blake2b256
	Index  uint32
}

// Less orders inputs lexicographically by (tx-hash, output-index), the
// canonical ordering used throughout §4.5.
func (i TxInput) Less(other TxInput) bool {
	a, b := i.TxHash.Bytes(), other.TxHash.Bytes()
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return i.Index < other.Index
}

// TxOutput is the destination and value of a UTxO.
type TxOutput struct {
	Address     common.Address
	Value       txvalue.Value
	DatumHash   *common.Blake2b256
	InlineDatum *common.Datum
	ScriptRef   *common.ScriptRef
}

// IsScriptAddress reports whether the output's payment credential is a
// script hash, which governs whether a spending redeemer is required.
func (o TxOutput) IsScriptAddress() bool {
	return addressIsScript(o.Address)
}

func addressIsScript(addr common.Address) bool {
	switch v := addr.PaymentPart.(type) {
	case common.AddressPayloadScriptHash:
		_ = v
		return true
	default:
		return false
	}
}

// UTxO is an unspent transaction output: the input reference plus its
// output contents.
type UTxO struct {
	Input  TxInput
	Output TxOutput
}

// Certificate is an opaque, already-CBOR-encodable certificate body
// produced by one of the facade's certificate helpers. The builder core
// does not interpret certificate contents beyond ordering and the
// deposit/redeemer bookkeeping named in §4.7; certificate wire encoding
// is an external collaborator's concern per §1.
type Certificate struct {
	cbor.RawMessage
}

// Proposal is an opaque, already-CBOR-encodable governance proposal
// procedure, analogous to Certificate.
type Proposal struct {
	cbor.RawMessage
	// RequiresRedeemer is true for action types requiring script
	// authorization (treasury withdrawal, parameter change under a
	// guardrail script); it controls whether AddProposal demands a
	// PROPOSING redeemer for this proposal's index.
	RequiresRedeemer bool
}

// VotingProcedure is an opaque, already-CBOR-encodable vote payload.
type VotingProcedure struct {
	cbor.RawMessage
}

// Withdrawal pairs a reward account's raw serialized address bytes
// with the cumulative lovelace amount withdrawn for it, so the wire
// encoder can build a proper bytestring-keyed withdrawals map instead
// of one keyed by the account's bech32 string.
type Withdrawal struct {
	AddressBytes []byte
	Amount       uint64
}

// voteEntry pairs a voter's identity with its recorded procedure; the
// wire encoder builds the voting_procedures map from the Voter field,
// while TxDraft.VotingProcedures stays keyed by Voter.HexKey for the
// redeemer index maps (§4.5).
type voteEntry struct {
	Voter     Voter
	Procedure VotingProcedure
}

// Metadatum is an opaque, already-CBOR-encodable auxiliary data item.
type Metadatum struct {
	cbor.RawMessage
}

// TxDraft holds all body and witness-set state accumulated by the
// facade (C7) between new() and a successful build(). Field names
// mirror the Conway transaction body map keys named in spec §6.
type TxDraft struct {
	// Body fields
	Inputs             []TxInput
	ReferenceInputs     []TxInput
	Outputs            []TxOutput
	Fee                uint64
	ValidityStart       *uint64
	TTL                 *uint64
	Certs               []Certificate
	Withdrawals         map[string]Withdrawal // reward address (bech32) -> address bytes + amount
	Mint                *common.MultiAsset[common.MultiAssetTypeOutput]
	NetworkId           *uint8
	AuxDataHash         *common.Blake2b256
	ScriptDataHash      *common.Blake2b256
	Collateral          []TxInput
	RequiredSigners     []common.Blake2b224
	CollateralReturn    *TxOutput
	TotalCollateral     *uint64
	VotingProcedures    map[string]voteEntry // voter hex key -> voter + procedure
	ProposalProcedures  []Proposal

	// Witness set
	Redeemers []Redeemer
	Datums    []common.Datum
	Scripts   []common.Script

	// Auxiliary data
	Metadata map[uint64]Metadatum

	// Builder-only bookkeeping, not part of the wire body
	ChangeAddress           *common.Address
	CollateralChangeAddress *common.Address
	AvailableUtxos          []UTxO
	CollateralUtxos         []UTxO
	SignerPadCount          int
	// MinimumFee is the caller-pinned fee floor set via SetMinimumFee
	// (§4.7); the balancing loop clamps its working Fee to at least
	// this value on every pass instead of letting the dummy-fee fill
	// and later recompute steps overwrite it.
	MinimumFee              uint64
	changeOutputIndex       int

	// redeemer index maps (§3), keyed by the referent's identity
	inputRedeemerIdx      map[TxInput]int  // index into Redeemers
	withdrawalRedeemerIdx map[string]int
	mintRedeemerIdx       map[string]int // policy id hex -> index into Redeemers
	voteRedeemerIdx       map[string]int
	proposalRedeemerIdx   map[int]int // proposal index -> index into Redeemers

	usedLanguages map[PlutusLanguage]struct{}
}

// NewTxDraft returns an empty draft ready for facade mutation.
func NewTxDraft() *TxDraft {
	return &TxDraft{
		changeOutputIndex:     -1,
		Withdrawals:           make(map[string]Withdrawal),
		VotingProcedures:      make(map[string]voteEntry),
		Metadata:              make(map[uint64]Metadatum),
		inputRedeemerIdx:      make(map[TxInput]int),
		withdrawalRedeemerIdx: make(map[string]int),
		mintRedeemerIdx:       make(map[string]int),
		voteRedeemerIdx:       make(map[string]int),
		proposalRedeemerIdx:   make(map[int]int),
		usedLanguages:         make(map[PlutusLanguage]struct{}),
	}
}

// HasPlutusWitness reports whether the draft carries any redeemer or
// Plutus script, which governs the collateral requirement in §4.6 step 5.
func (d *TxDraft) HasPlutusWitness() bool {
	if len(d.Redeemers) > 0 {
		return true
	}
	for _, s := range d.Scripts {
		switch s.(type) {
		case common.PlutusV1Script, common.PlutusV2Script, common.PlutusV3Script:
			return true
		}
	}
	return false
}

func (d *TxDraft) markLanguageUsed(lang PlutusLanguage) {
	d.usedLanguages[lang] = struct{}{}
}
