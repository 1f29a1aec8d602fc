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

	"github.com/blinklabs-io/cardano-txbuilder/internal/storage"
)

// SaveDraft serializes the in-progress (or finished) draft and wraps it
// in an EMIP-3 envelope under passphrase, so a long-running caller can
// persist a partially-assembled transaction between process restarts.
// This is not signing and retains no private key material: the draft
// carries no witnesses beyond what the caller has already attached.
func (d *TxDraft) SaveDraft(passphrase string) ([]byte, error) {
	plaintext, err := d.Serialize()
	if err != nil {
		return nil, wrapErr(ErrEncoding, err, "failed to serialize draft for persistence")
	}
	envelope, err := storage.EncryptDraft(passphrase, plaintext)
	if err != nil {
		return nil, wrapErr(ErrEncoding, err, "failed to encrypt draft")
	}
	return envelope, nil
}

// LoadDraft reverses SaveDraft, returning the CBOR bytes of the draft
// that was persisted. The caller is responsible for feeding those bytes
// back into a fresh TxBuilder's mutators (the builder facade has no
// CBOR-decode-to-mutation path, matching the "unsigned, ready to
// continue assembling" contract named in spec §6).
func LoadDraft(passphrase string, envelope []byte) ([]byte, error) {
	plaintext, err := storage.DecryptDraft(passphrase, envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt draft: %w", err)
	}
	return plaintext, nil
}
