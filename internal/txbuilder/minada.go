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

import "github.com/blinklabs-io/gouroboros/cbor"

// minAda computes the minimum lovelace required in an output, by the
// fixed-point procedure in spec §4.1: the output's serialized size
// depends on its coin value (a larger coin needs more CBOR bytes), so
// the calculation iterates until the byte-length it assumes for the
// coin stops changing.
func minAda(output TxOutput, coinsPerUtxoByte uint64) (uint64, error) {
	old := cborUintSize(output.Value.Coin)

	outSize, err := outputCborSize(output)
	if err != nil {
		return 0, wrapErr(ErrEncoding, err, "failed to size output")
	}

	last := old
	for {
		tentative := (uint64(outSize) + 160 + uint64(last-old)) * coinsPerUtxoByte
		newLast := cborUintSize(tentative)
		if newLast == last {
			break
		}
		last = newLast
	}
	return (uint64(outSize) + uint64(last-old) + 160) * coinsPerUtxoByte, nil
}

// outputCborSize returns the CBOR-encoded byte length of output.
func outputCborSize(output TxOutput) (int, error) {
	wire, err := toWireOutput(output)
	if err != nil {
		return 0, err
	}
	b, err := cbor.Encode(wire)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// cborUintSize returns the number of bytes a CBOR-encoded uint64 major
// type 0 value occupies, used to model how the coin's own byte-width
// grows with its magnitude during the min-ADA fixed point.
func cborUintSize(v uint64) int {
	switch {
	case v < 24:
		return 1
	case v <= 0xff:
		return 2
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
