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
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// CredentialType distinguishes a key-hash credential from a script-hash
// one; the design note in spec §9 asks for a tagged union here rather
// than a base-struct-plus-cast hierarchy.
type CredentialType uint8

const (
	CredentialKey CredentialType = iota
	CredentialScript
)

// Credential is a stake, committee, or DRep credential: either an
// addr_keyhash or a scripthash, per the Conway CDDL `credential` group.
type Credential struct {
	Type CredentialType
	Hash common.Blake2b224
}

// KeyCredential builds a key-hash credential.
func KeyCredential(hash common.Blake2b224) Credential {
	return Credential{Type: CredentialKey, Hash: hash}
}

// ScriptCredential builds a script-hash credential. Certificates that
// reference it require a redeemer.
func ScriptCredential(hash common.Blake2b224) Credential {
	return Credential{Type: CredentialScript, Hash: hash}
}

// IsScript reports whether cred is script-typed, which governs whether
// a redeemer is mandatory at the facade call site.
func (c Credential) IsScript() bool {
	return c.Type == CredentialScript
}

// cbor returns the [tag, hash] pair used to encode cred wherever the
// Conway CDDL embeds a credential group.
func (c Credential) cbor() []any {
	tag := 0
	if c.Type == CredentialScript {
		tag = 1
	}
	return []any{tag, c.Hash}
}

// HexKey identifies cred for the builder's redeemer index maps (§4.5):
// a "k" (key) or "s" (script) prefix followed by the hex-encoded hash.
func (c Credential) HexKey() string {
	prefix := "k"
	if c.Type == CredentialScript {
		prefix = "s"
	}
	return prefix + c.Hash.String()
}

// DRepKind distinguishes the four DRep variants in the Conway CDDL.
type DRepKind uint8

const (
	DRepKeyHash DRepKind = iota
	DRepScriptHash
	DRepAbstain
	DRepNoConfidence
)

// DRep identifies the delegatee of a vote_deleg_cert: a key hash, a
// script hash, or one of the two sentinel choices (abstain / no
// confidence).
type DRep struct {
	Kind DRepKind
	Hash common.Blake2b224
}

func DRepFromKeyHash(hash common.Blake2b224) DRep {
	return DRep{Kind: DRepKeyHash, Hash: hash}
}

func DRepFromScriptHash(hash common.Blake2b224) DRep {
	return DRep{Kind: DRepScriptHash, Hash: hash}
}

func DRepAbstainVote() DRep {
	return DRep{Kind: DRepAbstain}
}

func DRepNoConfidenceVote() DRep {
	return DRep{Kind: DRepNoConfidence}
}

func (d DRep) cbor() []any {
	switch d.Kind {
	case DRepKeyHash:
		return []any{0, d.Hash}
	case DRepScriptHash:
		return []any{1, d.Hash}
	case DRepAbstain:
		return []any{2}
	default:
		return []any{3}
	}
}

// Anchor carries the metadata URL/hash pair attached to governance
// actions and DRep registration and update certificates.
type Anchor struct {
	URL      string
	DataHash common.Blake2b256
}

func (a *Anchor) cbor() any {
	if a == nil {
		return nil
	}
	return []any{a.URL, a.DataHash}
}

// GovActionId references a prior governance action this proposal
// supersedes or continues a chain from.
type GovActionId struct {
	TxHash common.Blake2b256
	Index  uint32
}

func (g *GovActionId) cbor() any {
	if g == nil {
		return nil
	}
	return []any{g.TxHash, g.Index}
}

// UnitInterval is a CBOR rational (numerator/denominator), used for the
// committee quorum threshold in update_committee proposals.
type UnitInterval struct {
	Numerator   uint64
	Denominator uint64
}

func (u UnitInterval) cbor() []any {
	return []any{u.Numerator, u.Denominator}
}

// VoterKind distinguishes the five voter roles in the Conway CDDL
// `voter` group: a constitutional committee member, a DRep, or a stake
// pool operator, the first two further split by credential type.
type VoterKind uint8

const (
	VoterCommitteeKey VoterKind = iota
	VoterCommitteeScript
	VoterDRepKey
	VoterDRepScript
	VoterStakePool
)

// Voter identifies who cast a vote on a governance action. It is used
// directly as the key type of TxDraft.VotingProcedures' wire encoding
// (see MarshalCBOR), matching the Conway CDDL's `voter = [voter_type,
// addr_keyhash / scripthash]` array form.
type Voter struct {
	Kind VoterKind
	Hash common.Blake2b224
}

func CommitteeKeyVoter(hash common.Blake2b224) Voter {
	return Voter{Kind: VoterCommitteeKey, Hash: hash}
}

func CommitteeScriptVoter(hash common.Blake2b224) Voter {
	return Voter{Kind: VoterCommitteeScript, Hash: hash}
}

func DRepKeyVoter(hash common.Blake2b224) Voter {
	return Voter{Kind: VoterDRepKey, Hash: hash}
}

func DRepScriptVoter(hash common.Blake2b224) Voter {
	return Voter{Kind: VoterDRepScript, Hash: hash}
}

func StakePoolVoter(hash common.Blake2b224) Voter {
	return Voter{Kind: VoterStakePool, Hash: hash}
}

// MarshalCBOR encodes v as the two-element voter array the Conway CDDL
// requires, letting Voter serve as a proper array-keyed map key in the
// voting_procedures field instead of a bare hex string.
func (v Voter) MarshalCBOR() ([]byte, error) {
	return cbor.Encode([]any{uint8(v.Kind), v.Hash})
}

// HexKey identifies v for the builder's redeemer index maps (§4.5).
func (v Voter) HexKey() string {
	return fmt.Sprintf("%d%s", v.Kind, v.Hash.String())
}
