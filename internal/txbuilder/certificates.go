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

// Certificate type tags, Conway CDDL `certificate`.
const (
	certTagStakeRegistration   = 0
	certTagStakeDeregistration = 1
	certTagStakeDelegation     = 2
	certTagRegCert             = 7
	certTagUnregCert           = 8
	certTagVoteDelegCert       = 9
	certTagRegDrepCert         = 16
	certTagUnregDrepCert       = 17
	certTagUpdateDrepCert      = 18
)

func newCertificate(tag int, rest ...any) (Certificate, error) {
	fields := append([]any{tag}, rest...)
	raw, err := cbor.Encode(fields)
	if err != nil {
		return Certificate{}, wrapErr(ErrEncoding, err, "failed to encode certificate")
	}
	return Certificate{RawMessage: raw}, nil
}

// certParams fetches (and caches) the protocol parameters a deposit-
// bearing certificate helper needs.
func (b *TxBuilder) certParams(ctx context.Context) (ProtocolParameters, bool) {
	if b.failed() {
		return ProtocolParameters{}, false
	}
	params, err := b.resolveParams(ctx)
	if err != nil {
		b.fail(err)
		return ProtocolParameters{}, false
	}
	return params, true
}

// RegisterRewardAddress registers cred for staking, depositing the
// current KeyDeposit protocol parameter. Uses the Conway reg_cert form
// (tag 7), which carries the deposit explicitly on the wire.
func (b *TxBuilder) RegisterRewardAddress(ctx context.Context, cred Credential, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	params, ok := b.certParams(ctx)
	if !ok {
		return b
	}
	cert, err := newCertificate(certTagRegCert, cred.cbor(), params.KeyDeposit)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(cred, cert, redeemer)
}

// DeregisterRewardAddress deregisters cred, refunding KeyDeposit. Uses
// the Conway unreg_cert form (tag 8).
func (b *TxBuilder) DeregisterRewardAddress(ctx context.Context, cred Credential, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	params, ok := b.certParams(ctx)
	if !ok {
		return b
	}
	cert, err := newCertificate(certTagUnregCert, cred.cbor(), params.KeyDeposit)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(cred, cert, redeemer)
}

// DelegateStake delegates cred's stake to poolKeyHash (stake_delegation,
// tag 2). No deposit changes hands; the stake credential must already
// be registered.
func (b *TxBuilder) DelegateStake(cred Credential, poolKeyHash common.Blake2b224, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	cert, err := newCertificate(certTagStakeDelegation, cred.cbor(), poolKeyHash)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(cred, cert, redeemer)
}

// DelegateVotingPower delegates cred's voting power to drep
// (vote_deleg_cert, tag 9).
func (b *TxBuilder) DelegateVotingPower(cred Credential, drep DRep, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	cert, err := newCertificate(certTagVoteDelegCert, cred.cbor(), drep.cbor())
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(cred, cert, redeemer)
}

// RegisterDrep registers drepCred as a DRep, depositing the current
// DRepDeposit protocol parameter (reg_drep_cert, tag 16).
func (b *TxBuilder) RegisterDrep(ctx context.Context, drepCred Credential, anchor *Anchor, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	params, ok := b.certParams(ctx)
	if !ok {
		return b
	}
	cert, err := newCertificate(certTagRegDrepCert, drepCred.cbor(), params.DRepDeposit, anchor.cbor())
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(drepCred, cert, redeemer)
}

// UpdateDrep updates drepCred's anchor (update_drep_cert, tag 18).
func (b *TxBuilder) UpdateDrep(drepCred Credential, anchor *Anchor, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	cert, err := newCertificate(certTagUpdateDrepCert, drepCred.cbor(), anchor.cbor())
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(drepCred, cert, redeemer)
}

// DeregisterDrep retires drepCred, refunding DRepDeposit
// (unreg_drep_cert, tag 17).
func (b *TxBuilder) DeregisterDrep(ctx context.Context, drepCred Credential, redeemer *Redeemer) *TxBuilder {
	if b.failed() {
		return b
	}
	params, ok := b.certParams(ctx)
	if !ok {
		return b
	}
	cert, err := newCertificate(certTagUnregDrepCert, drepCred.cbor(), params.DRepDeposit)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.requireRedeemerFor(drepCred, cert, redeemer)
}

// requireRedeemerFor enforces the §4.7 AddCertificate contract: a
// script-typed credential needs a redeemer, a key-typed one must not
// carry one, then delegates to AddCertificate for the insertion-order
// bookkeeping.
func (b *TxBuilder) requireRedeemerFor(cred Credential, cert Certificate, redeemer *Redeemer) *TxBuilder {
	if cred.IsScript() && redeemer == nil {
		b.fail(newErr(ErrMissingRedeemer, "script credential %s requires a redeemer", cred.HexKey()))
		return b
	}
	if !cred.IsScript() && redeemer != nil {
		b.fail(newErr(ErrInvalidArgument, "key-typed credential %s must not carry a redeemer", cred.HexKey()))
		return b
	}
	return b.AddCertificate(cert, redeemer)
}
