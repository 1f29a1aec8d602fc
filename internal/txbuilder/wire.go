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
	"github.com/blinklabs-io/gouroboros/ledger/babbage"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

// toWireOutput converts a builder-owned TxOutput into the Babbage/Conway
// wire representation used for CBOR sizing and final serialization.
func toWireOutput(output TxOutput) (*babbage.BabbageTransactionOutput, error) {
	wire := &babbage.BabbageTransactionOutput{
		OutputAddress: output.Address,
		OutputAmount:  output.Value.ToMaryValue(),
		TxOutScriptRef: output.ScriptRef,
	}
	switch {
	case output.InlineDatum != nil:
		opt, err := newDatumOptionInline(output.InlineDatum)
		if err != nil {
			return nil, err
		}
		wire.DatumOption = opt
	case output.DatumHash != nil:
		opt, err := newDatumOptionHash(*output.DatumHash)
		if err != nil {
			return nil, err
		}
		wire.DatumOption = opt
	}
	return wire, nil
}

// addressRawBytes returns the raw bytes gouroboros serializes addr as
// (header byte plus credential hash), by round-tripping through its own
// CBOR marshaling rather than reassembling the header ourselves. Used
// wherever the Conway CDDL wants a bytestring-keyed reward_account or
// credential instead of addr's bech32 form.
func addressRawBytes(addr common.Address) ([]byte, error) {
	encoded, err := cbor.Encode(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode address: %w", err)
	}
	var raw []byte
	if _, err := cbor.Decode(encoded, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode address bytes: %w", err)
	}
	return raw, nil
}

func newDatumOptionHash(hash common.Blake2b256) (*babbage.BabbageTransactionOutputDatumOption, error) {
	cborBytes, err := cbor.Encode([]any{0, hash})
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum option hash: %w", err)
	}
	var opt babbage.BabbageTransactionOutputDatumOption
	if err := opt.UnmarshalCBOR(cborBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal datum option: %w", err)
	}
	return &opt, nil
}

func newDatumOptionInline(datum *common.Datum) (*babbage.BabbageTransactionOutputDatumOption, error) {
	datumCbor, err := cbor.Encode(datum)
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum: %w", err)
	}
	tagged := cbor.Tag{Number: 24, Content: datumCbor}
	cborBytes, err := cbor.Encode([]any{1, tagged})
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum option inline: %w", err)
	}
	var opt babbage.BabbageTransactionOutputDatumOption
	if err := opt.UnmarshalCBOR(cborBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal datum option: %w", err)
	}
	return &opt, nil
}

// encodeBody serializes the draft's body fields as the Conway-era
// integer-keyed map named in spec §6, for fee sizing and evaluator
// input. The witness set and top-level array wrapper are assembled
// separately at final build time.
func encodeBody(d *TxDraft) ([]byte, error) {
	body := make(map[uint64]any)

	inputs := make([]any, 0, len(d.Inputs))
	for _, in := range d.Inputs {
		inputs = append(inputs, []any{in.TxHash, in.Index})
	}
	body[0] = inputs

	outputs := make([]any, 0, len(d.Outputs))
	for _, o := range d.Outputs {
		wire, err := toWireOutput(o)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, wire)
	}
	body[1] = outputs

	body[2] = d.Fee

	if d.TTL != nil {
		body[3] = *d.TTL
	}
	if len(d.Certs) > 0 {
		certs := make([]any, 0, len(d.Certs))
		for _, c := range d.Certs {
			certs = append(certs, c.RawMessage)
		}
		body[4] = certs
	}
	if len(d.Withdrawals) > 0 {
		withdrawals := make(map[cbor.ByteString]uint64, len(d.Withdrawals))
		for _, w := range d.Withdrawals {
			withdrawals[cbor.NewByteString(w.AddressBytes)] = w.Amount
		}
		body[5] = withdrawals
	}
	if d.AuxDataHash != nil {
		body[7] = *d.AuxDataHash
	}
	if d.ValidityStart != nil {
		body[8] = *d.ValidityStart
	}
	if d.Mint != nil {
		body[9] = d.Mint
	}
	if d.ScriptDataHash != nil {
		body[11] = *d.ScriptDataHash
	}
	if len(d.Collateral) > 0 {
		collateral := make([]any, 0, len(d.Collateral))
		for _, in := range d.Collateral {
			collateral = append(collateral, []any{in.TxHash, in.Index})
		}
		body[13] = collateral
	}
	if len(d.RequiredSigners) > 0 {
		body[14] = d.RequiredSigners
	}
	if d.NetworkId != nil {
		body[15] = *d.NetworkId
	}
	if d.CollateralReturn != nil {
		wire, err := toWireOutput(*d.CollateralReturn)
		if err != nil {
			return nil, err
		}
		body[16] = wire
	}
	if d.TotalCollateral != nil {
		body[17] = *d.TotalCollateral
	}
	if len(d.ReferenceInputs) > 0 {
		refs := make([]any, 0, len(d.ReferenceInputs))
		for _, in := range d.ReferenceInputs {
			refs = append(refs, []any{in.TxHash, in.Index})
		}
		body[18] = refs
	}
	if len(d.VotingProcedures) > 0 {
		votes := make(map[Voter]any, len(d.VotingProcedures))
		for _, entry := range d.VotingProcedures {
			votes[entry.Voter] = entry.Procedure.RawMessage
		}
		body[19] = votes
	}
	if len(d.ProposalProcedures) > 0 {
		props := make([]any, 0, len(d.ProposalProcedures))
		for _, p := range d.ProposalProcedures {
			props = append(props, p.RawMessage)
		}
		body[20] = props
	}

	return cbor.Encode(body)
}

// encodeWitnessSet serializes the draft's witness-set fields (vkey
// witnesses are added by the caller after signing, outside this
// package's scope — §1 names signing as an external collaborator).
func encodeWitnessSet(d *TxDraft) (map[uint64]any, error) {
	set := make(map[uint64]any)
	if len(d.Scripts) > 0 {
		native := make([]any, 0)
		v1 := make([]any, 0)
		v2 := make([]any, 0)
		v3 := make([]any, 0)
		for _, s := range d.Scripts {
			switch v := s.(type) {
			case common.NativeScript:
				native = append(native, v)
			case common.PlutusV1Script:
				v1 = append(v1, []byte(v))
			case common.PlutusV2Script:
				v2 = append(v2, []byte(v))
			case common.PlutusV3Script:
				v3 = append(v3, []byte(v))
			}
		}
		if len(native) > 0 {
			set[3] = native
		}
		if len(v1) > 0 {
			set[6] = v1
		}
		if len(v2) > 0 {
			set[7] = v2
		}
		if len(v3) > 0 {
			set[8] = v3
		}
	}
	if len(d.Datums) > 0 {
		set[4] = d.Datums
	}
	if len(d.Redeemers) > 0 {
		redeemerMap := make(map[common.RedeemerKey]common.RedeemerValue, len(d.Redeemers))
		for _, r := range d.Redeemers {
			redeemerMap[r.Key()] = common.RedeemerValue{Data: r.Data, ExUnits: r.ExUnits}
		}
		set[5] = redeemerMap
	}
	return set, nil
}

// Serialize assembles the full [body, witness_set, is_valid, aux_data]
// transaction array described in §6, ready to submit or persist. It
// encodes the draft as it stands, built or not; SaveDraft uses it on
// in-progress drafts.
func (d *TxDraft) Serialize() ([]byte, error) {
	bodyBytes, err := encodeBody(d)
	if err != nil {
		return nil, err
	}
	var body cbor.RawMessage = bodyBytes

	witnessSet, err := encodeWitnessSet(d)
	if err != nil {
		return nil, err
	}

	var auxData any
	if len(d.Metadata) > 0 {
		encoded := make(map[uint64]cbor.RawMessage, len(d.Metadata))
		for k, v := range d.Metadata {
			encoded[k] = v.RawMessage
		}
		auxData = encoded
	}

	return cbor.Encode([]any{body, witnessSet, true, auxData})
}

// newScriptRef wraps script with the type tag its concrete kind implies.
func newScriptRef(script common.Script) (*common.ScriptRef, error) {
	var scriptType uint
	switch script.(type) {
	case common.NativeScript:
		scriptType = 0
	case common.PlutusV1Script:
		scriptType = 1
	case common.PlutusV2Script:
		scriptType = 2
	case common.PlutusV3Script:
		scriptType = 3
	default:
		return nil, fmt.Errorf("unsupported script type: %T", script)
	}
	return &common.ScriptRef{Type: scriptType, Script: script}, nil
}
