package lib

import (
	"errors"
	"fmt"
	"math"
)

type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

// NewError() constructs a new Error instance
func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s", p.EModule, p.ECode, p.Msg)
}

// Is() matches another ErrorI with the same module and code, so errors.Is works across constructors
func (p *Error) Is(target error) bool {
	var t ErrorI
	if !errors.As(target, &t) {
		return false
	}
	return t.Code() == p.ECode && t.Module() == p.EModule
}

// IsCode() returns true if the error is an ErrorI with the module and code
func IsCode(err error, module ErrorModule, code ErrorCode) bool {
	var e ErrorI
	if !errors.As(err, &e) {
		return false
	}
	return e.Module() == module && e.Code() == code
}

const (
	NoCode ErrorCode = math.MaxUint32

	// Main Module
	MainModule ErrorModule = "main"

	// Main Module Error Codes
	CodeJSONMarshal      ErrorCode = 1
	CodeJSONUnmarshal    ErrorCode = 2
	CodeMarshal          ErrorCode = 3
	CodeUnmarshal        ErrorCode = 4
	CodeReadFile         ErrorCode = 5
	CodeWriteFile        ErrorCode = 6
	CodeInvalidSeeds     ErrorCode = 7
	CodePanic            ErrorCode = 8
	CodeServerTimeout    ErrorCode = 9
	CodeInvalidArgument  ErrorCode = 10
	CodeInvalidKeyString ErrorCode = 11

	// State Machine Module
	StateMachineModule ErrorModule = "state_machine"

	// State Machine Module Error Codes
	CodePoolNotActive            ErrorCode = 1
	CodePoolPaused               ErrorCode = 2
	CodeMathOverflow             ErrorCode = 3
	CodeInsufficientReserves     ErrorCode = 4
	CodeInsufficientLiquidity    ErrorCode = 5
	CodeInsufficientLpTokens     ErrorCode = 6
	CodeInsufficientFunds        ErrorCode = 7
	CodeInsufficientTokenBalance ErrorCode = 8
	CodeSlippageExceeded         ErrorCode = 9
	CodeInvalidAmount            ErrorCode = 10
	CodeMaxPoolsReached          ErrorCode = 11
	CodeProviderNotFound         ErrorCode = 12
	CodeAccountNotFound          ErrorCode = 13
	CodeAccountAlreadyExists     ErrorCode = 14
	CodeInvalidPoolName          ErrorCode = 15
	CodeInvalidFee               ErrorCode = 16
	CodeReceiptInFlight          ErrorCode = 17
	CodeReceiptNotFound          ErrorCode = 18
	CodeReceiptNotApplied        ErrorCode = 19
	CodeReceiptNotSettled        ErrorCode = 20
	CodeInvalidDiscriminator     ErrorCode = 21
	CodeUnknownInstruction       ErrorCode = 22
	CodeUnauthorized             ErrorCode = 23
	CodeInvalidMints             ErrorCode = 24
	CodeAccountSize              ErrorCode = 25
	CodeWrongContext             ErrorCode = 26
	CodeWrongPool                ErrorCode = 27
	CodeInvalidAccounts          ErrorCode = 28

	// Ledger Module
	LedgerModule ErrorModule = "ledger"

	// Ledger Module Error Codes
	CodeLedger ErrorCode = 1

	// Delegation Module
	DelegationModule ErrorModule = "delegation"

	// Delegation Module Error Codes
	CodeAlreadyDelegated ErrorCode = 1
	CodeNotDelegated     ErrorCode = 2
	CodeAccountDelegated ErrorCode = 3
	CodeMissingAccount   ErrorCode = 4
	CodeNoAccounts       ErrorCode = 5

	// Dispatch Module
	DispatchModule ErrorModule = "dispatch"

	// Dispatch Module Error Codes
	CodeInvalidBundleOrder ErrorCode = 1
	CodeEmptyIntent        ErrorCode = 2
	CodeDeliveryFailed     ErrorCode = 3
	CodeIntentNotFound     ErrorCode = 4

	// Storage Module
	StorageModule ErrorModule = "store"

	// Storage Module Error Codes
	CodeOpenDB      ErrorCode = 1
	CodeCloseDB     ErrorCode = 2
	CodeCommitDB    ErrorCode = 3
	CodeStoreSet    ErrorCode = 4
	CodeStoreGet    ErrorCode = 5
	CodeStoreDelete ErrorCode = 6
	CodeIterator    ErrorCode = 7
	CodeInvalidKey  ErrorCode = 8

	// RPC Module
	RPCModule ErrorModule = "rpc"

	// RPC Module Error Codes
	CodeRPCTimeout    ErrorCode = 1
	CodeInvalidParams ErrorCode = 2
	CodeReadBody      ErrorCode = 3
	CodeReceiptKind   ErrorCode = 4
	CodeHTTPStatus    ErrorCode = 5
	CodePostRequest   ErrorCode = 6
	CodeGetRequest    ErrorCode = 7
)

func ErrJSONUnmarshal(err error) ErrorI {
	return NewError(CodeJSONUnmarshal, MainModule, fmt.Sprintf("json.unmarshal() failed with err: %s", err.Error()))
}

func ErrJSONMarshal(err error) ErrorI {
	return NewError(CodeJSONMarshal, MainModule, fmt.Sprintf("json.marshal() failed with err: %s", err.Error()))
}

func ErrMarshal(err error) ErrorI {
	return NewError(CodeMarshal, MainModule, fmt.Sprintf("marshal() failed with err: %s", err.Error()))
}

func ErrUnmarshal(err error) ErrorI {
	return NewError(CodeUnmarshal, MainModule, fmt.Sprintf("unmarshal() failed with err: %s", err.Error()))
}

func ErrReadFile(err error) ErrorI {
	return NewError(CodeReadFile, MainModule, fmt.Sprintf("readFile() failed with err: %s", err.Error()))
}

func ErrWriteFile(err error) ErrorI {
	return NewError(CodeWriteFile, MainModule, fmt.Sprintf("writeFile() failed with err: %s", err.Error()))
}

func ErrInvalidSeeds(err error) ErrorI {
	return NewError(CodeInvalidSeeds, MainModule, fmt.Sprintf("address derivation failed with err: %s", err.Error()))
}

func ErrInvalidKeyString(err error) ErrorI {
	return NewError(CodeInvalidKeyString, MainModule, fmt.Sprintf("key string is invalid: %s", err.Error()))
}

func ErrPanic() ErrorI {
	return NewError(CodePanic, MainModule, "panic recovery")
}

func ErrServerTimeout() ErrorI {
	return NewError(CodeServerTimeout, MainModule, "server timeout")
}

func ErrInvalidArgument(err error) ErrorI {
	return NewError(CodeInvalidArgument, MainModule, fmt.Sprintf("invalid argument: %s", err.Error()))
}

func newLogError(err error) ErrorI {
	return NewError(NoCode, MainModule, err.Error())
}
