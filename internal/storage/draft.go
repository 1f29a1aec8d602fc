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

package storage

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// EMIP-3 (https://cips.cardano.org/cips/cip3/) parameters for encrypting a
// draft transaction at rest: a tx snapshot contains unsigned witness data
// and should not sit on disk in the clear between CLI invocations.
const (
	emip3SaltLen  = 32
	emip3NonceLen = 12
	emip3KeyLen   = 32
	emip3Iters    = 19162
)

// EncryptDraft wraps plaintext (a CBOR-encoded TxDraft) in an EMIP-3
// envelope: salt(32) || nonce(12) || ciphertext+tag, keyed from passphrase.
func EncryptDraft(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, emip3SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, emip3NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	key := pbkdf2.Key([]byte(passphrase), salt, emip3Iters, emip3KeyLen, sha512.New)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	envelope := make([]byte, 0, emip3SaltLen+emip3NonceLen+len(ciphertext))
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// DecryptDraft reverses EncryptDraft, returning the original plaintext.
func DecryptDraft(passphrase string, envelope []byte) ([]byte, error) {
	if len(envelope) < emip3SaltLen+emip3NonceLen {
		return nil, fmt.Errorf("draft envelope too short")
	}
	salt := envelope[:emip3SaltLen]
	nonce := envelope[emip3SaltLen : emip3SaltLen+emip3NonceLen]
	ciphertext := envelope[emip3SaltLen+emip3NonceLen:]
	key := pbkdf2.Key([]byte(passphrase), salt, emip3Iters, emip3KeyLen, sha512.New)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt draft (wrong passphrase?): %w", err)
	}
	return plaintext, nil
}
