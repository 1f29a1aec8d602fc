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

import "fmt"

// ErrorKind is the closed sum type of failure categories surfaced by the
// builder (spec §7). It deliberately does not grow: callers pattern-match
// on it to decide retry/abort policy.
type ErrorKind int

const (
	ErrNullArgument ErrorKind = iota
	ErrInvalidArgument
	ErrInsufficientBuffer
	ErrMemoryAllocation
	ErrEncoding
	ErrDecoding
	ErrChecksumMismatch
	ErrInvalidAddressType
	ErrInvalidAddressFormat
	ErrInvalidCredentialType
	ErrInvalidCborValue
	ErrInvalidCborMapKey
	ErrInvalidPlutusCostModel
	ErrInsufficientFunds
	ErrInsufficientFundsForChange
	ErrCollateralLimit
	ErrMissingRedeemer
	ErrProtocolParamsIncomplete
	ErrBalancingDiverged
	ErrIllegalState
	ErrNotImplemented
	ErrDuplicateKey
	ErrIndexOutOfBounds
	ErrJsonTypeMismatch
	ErrLossOfPrecision
	ErrIntegerOverflow
	ErrGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNullArgument:
		return "NullArgument"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInsufficientBuffer:
		return "InsufficientBuffer"
	case ErrMemoryAllocation:
		return "MemoryAllocation"
	case ErrEncoding:
		return "Encoding"
	case ErrDecoding:
		return "Decoding"
	case ErrChecksumMismatch:
		return "ChecksumMismatch"
	case ErrInvalidAddressType:
		return "InvalidAddressType"
	case ErrInvalidAddressFormat:
		return "InvalidAddressFormat"
	case ErrInvalidCredentialType:
		return "InvalidCredentialType"
	case ErrInvalidCborValue:
		return "InvalidCborValue"
	case ErrInvalidCborMapKey:
		return "InvalidCborMapKey"
	case ErrInvalidPlutusCostModel:
		return "InvalidPlutusCostModel"
	case ErrInsufficientFunds:
		return "InsufficientFunds"
	case ErrInsufficientFundsForChange:
		return "InsufficientFundsForChange"
	case ErrCollateralLimit:
		return "CollateralLimit"
	case ErrMissingRedeemer:
		return "MissingRedeemer"
	case ErrProtocolParamsIncomplete:
		return "ProtocolParamsIncomplete"
	case ErrBalancingDiverged:
		return "BalancingDiverged"
	case ErrIllegalState:
		return "IllegalState"
	case ErrNotImplemented:
		return "NotImplemented"
	case ErrDuplicateKey:
		return "DuplicateKey"
	case ErrIndexOutOfBounds:
		return "IndexOutOfBounds"
	case ErrJsonTypeMismatch:
		return "JsonTypeMismatch"
	case ErrLossOfPrecision:
		return "LossOfPrecision"
	case ErrIntegerOverflow:
		return "IntegerOverflow"
	default:
		return "Generic"
	}
}

// BuilderError is the typed error the facade latches into last_error.
// It wraps an underlying cause (if any) so callers can still use
// errors.Is/errors.As against lower-level failures.
type BuilderError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *BuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BuilderError) Unwrap() error {
	return e.Cause
}

func newErr(kind ErrorKind, format string, args ...any) *BuilderError {
	return &BuilderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, cause error, format string, args ...any) *BuilderError {
	return &BuilderError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
