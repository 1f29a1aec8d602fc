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

import "testing"

func TestMinFeeWithoutScripts(t *testing.T) {
	params := ProtocolParameters{MinFeeA: 44, MinFeeB: 155381}
	cases := []struct {
		size int
		want uint64
	}{
		{0, 155381},
		{1000, 44*1000 + 155381},
		{3000, 44*3000 + 155381},
	}
	for _, c := range cases {
		got := minFeeWithoutScripts(c.size, params)
		if got != c.want {
			t.Errorf("minFeeWithoutScripts(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestReferenceScriptFeeSingleTier(t *testing.T) {
	// A reference script under the first 25,600-byte tier is priced
	// entirely at the base rate.
	got := referenceScriptFee(10_000, 15.0)
	want := uint64(150_000)
	if got != want {
		t.Errorf("referenceScriptFee(10000, 15) = %d, want %d", got, want)
	}
}

func TestReferenceScriptFeeMultiTier(t *testing.T) {
	// 30,000 bytes: first 25,600 at base, remaining 4,400 at 1.2x base.
	base := 10.0
	got := referenceScriptFee(30_000, base)
	firstTier := uint64(25_600 * base)
	secondTier := uint64(4_400 * base * 1.2)
	want := firstTier + secondTier
	if got != want {
		t.Errorf("referenceScriptFee(30000, 10) = %d, want %d", got, want)
	}
}

func TestReferenceScriptFeeZero(t *testing.T) {
	if got := referenceScriptFee(0, 15.0); got != 0 {
		t.Errorf("referenceScriptFee(0, ...) = %d, want 0", got)
	}
}

// TestTotalFeeSimpleSend reproduces the S1 scenario bound from spec §8:
// with the mainnet a and b, a transaction of a few hundred bytes should
// land the fee between 160,000 and 200,000 lovelace.
func TestTotalFeeSimpleSend(t *testing.T) {
	params := ProtocolParameters{MinFeeA: 44, MinFeeB: 155381}
	fee, err := totalFee(250, nil, 0, params)
	if err != nil {
		t.Fatalf("totalFee returned error: %v", err)
	}
	if fee < 160_000 || fee > 200_000 {
		t.Errorf("fee %d out of expected S1 range [160000, 200000]", fee)
	}
}
