package sealevel

import "errors"

// instruction errors
var (
	InstrErrInvalidArgument             = errors.New("InstrErrInvalidArgument")
	InstrErrInvalidInstructionData      = errors.New("InstrErrInvalidInstructionData")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
	InstrErrInsufficientFunds           = errors.New("InstrErrInsufficientFunds")
	InstrErrIncorrectProgramId          = errors.New("InstrErrIncorrectProgramId")
	InstrErrMissingRequiredSignature    = errors.New("InstrErrMissingRequiredSignature")
	InstrErrAccountAlreadyInitialized   = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount        = errors.New("InstrErrUninitializedAccount")
	InstrErrUnbalancedInstruction       = errors.New("InstrErrUnbalancedInstruction")
	InstrErrModifiedProgramId           = errors.New("InstrErrModifiedProgramId")
	InstrErrExternalAccountLamportSpend = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrExternalAccountDataModified = errors.New("InstrErrExternalAccountDataModified")
	InstrErrReadonlyLamportChange       = errors.New("InstrErrReadonlyLamportChange")
	InstrErrReadonlyDataModified        = errors.New("InstrErrReadonlyDataModified")
	InstrErrExecutableLamportChange     = errors.New("InstrErrExecutableLamportChange")
	InstrErrExecutableDataModified      = errors.New("InstrErrExecutableDataModified")
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrAccountDataSizeChanged      = errors.New("InstrErrAccountDataSizeChanged")
	InstrErrAccountNotExecutable        = errors.New("InstrErrAccountNotExecutable")
	InstrErrPrivilegeEscalation         = errors.New("InstrErrPrivilegeEscalation")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrCallDepth                   = errors.New("InstrErrCallDepth")
	InstrErrMissingAccount              = errors.New("InstrErrMissingAccount")
	InstrErrReentrancyNotAllowed        = errors.New("InstrErrReentrancyNotAllowed")
	InstrErrComputationalBudgetExceeded = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrInvalidRealloc              = errors.New("InstrErrInvalidRealloc")
	InstrErrArithmeticOverflow          = errors.New("InstrErrArithmeticOverflow")
)

// instruction errors - Solana numerical error codes (enum index + 1)
const (
	InstrErrCodeSuccess                     = 0
	InstrErrCodeInvalidArgument             = 2
	InstrErrCodeInvalidInstructionData      = 3
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeInsufficientFunds           = 6
	InstrErrCodeIncorrectProgramId          = 7
	InstrErrCodeMissingRequiredSignature    = 8
	InstrErrCodeAccountAlreadyInitialized   = 9
	InstrErrCodeUninitializedAccount        = 10
	InstrErrCodeUnbalancedInstruction       = 11
	InstrErrCodeModifiedProgramId           = 12
	InstrErrCodeExternalAccountLamportSpend = 13
	InstrErrCodeExternalAccountDataModified = 14
	InstrErrCodeReadonlyLamportChange       = 15
	InstrErrCodeReadonlyDataModified        = 16
	InstrErrCodeExecutableLamportChange     = 29
	InstrErrCodeExecutableDataModified      = 28
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeAccountDataSizeChanged      = 21
	InstrErrCodeAccountNotExecutable        = 22
	InstrErrCodePrivilegeEscalation         = 39
	InstrErrCodeUnsupportedProgramId        = 31
	InstrErrCodeCallDepth                   = 32
	InstrErrCodeMissingAccount              = 33
	InstrErrCodeReentrancyNotAllowed        = 34
	InstrErrCodeComputationalBudgetExceeded = 38
	InstrErrCodeInvalidRealloc              = 37
	InstrErrCodeArithmeticOverflow          = 48
	InstrErrCodeCustom                      = 26
)

var instrErrCodes = map[error]int{
	InstrErrInvalidArgument:             InstrErrCodeInvalidArgument,
	InstrErrInvalidInstructionData:      InstrErrCodeInvalidInstructionData,
	InstrErrInvalidAccountData:          InstrErrCodeInvalidAccountData,
	InstrErrAccountDataTooSmall:         InstrErrCodeAccountDataTooSmall,
	InstrErrInsufficientFunds:           InstrErrCodeInsufficientFunds,
	InstrErrIncorrectProgramId:          InstrErrCodeIncorrectProgramId,
	InstrErrMissingRequiredSignature:    InstrErrCodeMissingRequiredSignature,
	InstrErrAccountAlreadyInitialized:   InstrErrCodeAccountAlreadyInitialized,
	InstrErrUninitializedAccount:        InstrErrCodeUninitializedAccount,
	InstrErrUnbalancedInstruction:       InstrErrCodeUnbalancedInstruction,
	InstrErrModifiedProgramId:           InstrErrCodeModifiedProgramId,
	InstrErrExternalAccountLamportSpend: InstrErrCodeExternalAccountLamportSpend,
	InstrErrExternalAccountDataModified: InstrErrCodeExternalAccountDataModified,
	InstrErrReadonlyLamportChange:       InstrErrCodeReadonlyLamportChange,
	InstrErrReadonlyDataModified:        InstrErrCodeReadonlyDataModified,
	InstrErrExecutableLamportChange:     InstrErrCodeExecutableLamportChange,
	InstrErrExecutableDataModified:      InstrErrCodeExecutableDataModified,
	InstrErrNotEnoughAccountKeys:        InstrErrCodeNotEnoughAccountKeys,
	InstrErrAccountDataSizeChanged:      InstrErrCodeAccountDataSizeChanged,
	InstrErrAccountNotExecutable:        InstrErrCodeAccountNotExecutable,
	InstrErrPrivilegeEscalation:         InstrErrCodePrivilegeEscalation,
	InstrErrUnsupportedProgramId:        InstrErrCodeUnsupportedProgramId,
	InstrErrCallDepth:                   InstrErrCodeCallDepth,
	InstrErrMissingAccount:              InstrErrCodeMissingAccount,
	InstrErrReentrancyNotAllowed:        InstrErrCodeReentrancyNotAllowed,
	InstrErrComputationalBudgetExceeded: InstrErrCodeComputationalBudgetExceeded,
	InstrErrInvalidRealloc:              InstrErrCodeInvalidRealloc,
	InstrErrArithmeticOverflow:          InstrErrCodeArithmeticOverflow,
}

// TranslateErrToInstrErrCode maps an instruction error onto its numeric
// code. Errors raised by a program itself report as Custom.
func TranslateErrToInstrErrCode(err error) int {
	if err == nil {
		return InstrErrCodeSuccess
	}
	for sentinel, code := range instrErrCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return InstrErrCodeCustom
}
