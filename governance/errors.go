// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package governance

// Code is the caller visible failure code of a rejected call
type Code uint32

const (
	CodeNotAuthorized     Code = 100
	CodeNotAdmin          Code = 101
	CodeBlacklisted       Code = 102
	CodeNotCreatorOrAdmin Code = 103
	CodeProposalNotFound  Code = 104
	CodeProposalNotActive Code = 105
	CodeAlreadyVoted      Code = 106
	CodeNoExistingVote    Code = 107
	CodeVotingPaused      Code = 108
	CodeVotingNotPaused   Code = 109
	CodeInvalidOption     Code = 110
	CodeInvalidDuration   Code = 111
	CodeArityMismatch     Code = 112
	CodeInsufficientPower Code = 113
	CodeTooManyOptions    Code = 114
	CodeRosterFull        Code = 115
	CodeBatchTooLarge     Code = 116
	CodeInvalidSignature  Code = 117
	CodeInvalidNonce      Code = 118
	CodeTallyOverflow     Code = 119
)

// Error is a typed governance failure. Errors are singletons, so they can be
// compared with errors.Is.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorCode implements rpc.Error so the failure code reaches RPC clients.
func (e *Error) ErrorCode() int { return int(e.Code) }

var registry = make(map[Code]*Error)

func newError(code Code, message string) *Error {
	err := &Error{Code: code, Message: message}
	registry[code] = err
	return err
}

// ErrorByCode returns the governance error registered under code
func ErrorByCode(code int) (*Error, bool) {
	if code < 0 {
		return nil, false
	}
	err, ok := registry[Code(code)]
	return err, ok
}

// Authorization errors
var (
	ErrNotAuthorized     = newError(CodeNotAuthorized, "not authorized")
	ErrNotAdmin          = newError(CodeNotAdmin, "caller is not an admin")
	ErrBlacklisted       = newError(CodeBlacklisted, "caller is blacklisted")
	ErrNotCreatorOrAdmin = newError(CodeNotCreatorOrAdmin, "caller is neither the proposal creator nor an admin")
	ErrInvalidSignature  = newError(CodeInvalidSignature, "invalid request signature")
	ErrInvalidNonce      = newError(CodeInvalidNonce, "invalid request nonce")
)

// Lifecycle errors
var (
	ErrProposalNotFound  = newError(CodeProposalNotFound, "proposal not found")
	ErrProposalNotActive = newError(CodeProposalNotActive, "proposal is not active")
	ErrAlreadyVoted      = newError(CodeAlreadyVoted, "voter has already voted on this proposal")
	ErrNoExistingVote    = newError(CodeNoExistingVote, "voter has not voted on this proposal")
	ErrVotingPaused      = newError(CodeVotingPaused, "voting is paused")
	ErrVotingNotPaused   = newError(CodeVotingNotPaused, "voting is not paused")
)

// Validation errors
var (
	ErrInvalidOption     = newError(CodeInvalidOption, "invalid vote option")
	ErrInvalidDuration   = newError(CodeInvalidDuration, "invalid proposal duration")
	ErrArityMismatch     = newError(CodeArityMismatch, "paired inputs differ in length")
	ErrInsufficientPower = newError(CodeInsufficientPower, "voting power below token requirement")
	ErrTooManyOptions    = newError(CodeTooManyOptions, "too many proposal options")
)

// Capacity errors
var (
	ErrRosterFull    = newError(CodeRosterFull, "proposal voter roster is full")
	ErrBatchTooLarge = newError(CodeBatchTooLarge, "batch exceeds maximum size")
	ErrTallyOverflow = newError(CodeTallyOverflow, "weighted tally overflow")
)
