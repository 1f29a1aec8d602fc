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
	"testing"

	"github.com/blinklabs-io/cardano-txbuilder/internal/txvalue"
)

func TestSaveLoadDraftRoundTrip(t *testing.T) {
	d := NewTxDraft()
	d.Outputs = append(d.Outputs, TxOutput{Address: testAddress(t), Value: txvalue.NewSimpleValue(2_000_000)})

	envelope, err := d.SaveDraft("correct horse battery staple")
	if err != nil {
		t.Fatalf("SaveDraft returned error: %v", err)
	}

	plaintext, err := LoadDraft("correct horse battery staple", envelope)
	if err != nil {
		t.Fatalf("LoadDraft returned error: %v", err)
	}
	original, err := d.Serialize()
	if err != nil {
		t.Fatalf("Serialize returned error: %v", err)
	}
	if string(plaintext) != string(original) {
		t.Error("round-tripped draft bytes do not match the original serialization")
	}
}

func TestLoadDraftWrongPassphraseFails(t *testing.T) {
	d := NewTxDraft()
	envelope, err := d.SaveDraft("correct horse battery staple")
	if err != nil {
		t.Fatalf("SaveDraft returned error: %v", err)
	}
	if _, err := LoadDraft("wrong passphrase", envelope); err == nil {
		t.Fatal("expected decryption failure with the wrong passphrase")
	}
}
