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
	"sort"
)

// reindexRedeemers recomputes every redeemer's canonical index per §4.5
// and must be called after any mutation affecting inputs, mint policies,
// withdrawals, votes, or proposals, and once more before hashing.
func (d *TxDraft) reindexRedeemers() {
	sortedInputs := append([]TxInput(nil), d.Inputs...)
	sort.Slice(sortedInputs, func(i, j int) bool { return sortedInputs[i].Less(sortedInputs[j]) })
	inputPos := make(map[TxInput]uint32, len(sortedInputs))
	for i, in := range sortedInputs {
		inputPos[in] = uint32(i)
	}

	var policies []string
	if d.Mint != nil {
		for _, p := range d.Mint.Policies() {
			policies = append(policies, p.String())
		}
		sort.Strings(policies)
	}
	policyPos := make(map[string]uint32, len(policies))
	for i, p := range policies {
		policyPos[p] = uint32(i)
	}

	var withdrawalAddrs []string
	for addr := range d.Withdrawals {
		withdrawalAddrs = append(withdrawalAddrs, addr)
	}
	sort.Strings(withdrawalAddrs)
	withdrawalPos := make(map[string]uint32, len(withdrawalAddrs))
	for i, a := range withdrawalAddrs {
		withdrawalPos[a] = uint32(i)
	}

	var voters []string
	for v := range d.VotingProcedures {
		voters = append(voters, v)
	}
	sort.Strings(voters)
	voterPos := make(map[string]uint32, len(voters))
	for i, v := range voters {
		voterPos[v] = uint32(i)
	}

	for i := range d.Redeemers {
		r := &d.Redeemers[i]
		switch r.Tag {
		case RedeemerTagSpend:
			for in, idx := range d.inputRedeemerIdx {
				if idx == i {
					r.Index = inputPos[in]
				}
			}
		case RedeemerTagMint:
			for policyHex, idx := range d.mintRedeemerIdx {
				if idx == i {
					r.Index = policyPos[policyHex]
				}
			}
		case RedeemerTagReward:
			for addr, idx := range d.withdrawalRedeemerIdx {
				if idx == i {
					r.Index = withdrawalPos[addr]
				}
			}
		case RedeemerTagVoting:
			for voter, idx := range d.voteRedeemerIdx {
				if idx == i {
					r.Index = voterPos[voter]
				}
			}
		case RedeemerTagProposing:
			for propIdx, idx := range d.proposalRedeemerIdx {
				if idx == i {
					r.Index = uint32(propIdx)
				}
			}
		case RedeemerTagCertifying:
			// Certificate position is insertion order and assigned
			// directly at add_certificate time; nothing to recompute.
		}
	}
}
