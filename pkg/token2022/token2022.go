// Package token2022 encodes instructions for the Token-2022 program, sizes
// extensible mint accounts, and carries a processor that emulates the subset
// of Token-2022 those instructions reach.
package token2022

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

const ProgramName = "Token-2022"

var ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// token instruction tags
const (
	InstrTypeInitializeMint2             = 20
	InstrTypeMetadataPointerExtension    = 39
	InstrTypeGroupPointerExtension       = 40
	InstrTypeGroupMemberPointerExtension = 41
	PointerInstrTypeInitialize           = 0
)

type ExtensionType uint16

const (
	ExtensionTypeUninitialized      ExtensionType = 0
	ExtensionTypeMetadataPointer    ExtensionType = 18
	ExtensionTypeTokenMetadata      ExtensionType = 19
	ExtensionTypeGroupPointer       ExtensionType = 20
	ExtensionTypeTokenGroup         ExtensionType = 21
	ExtensionTypeGroupMemberPointer ExtensionType = 22
	ExtensionTypeTokenGroupMember   ExtensionType = 23
)

func (t ExtensionType) String() string {
	switch t {
	case ExtensionTypeUninitialized:
		return "Uninitialized"
	case ExtensionTypeMetadataPointer:
		return "MetadataPointer"
	case ExtensionTypeTokenMetadata:
		return "TokenMetadata"
	case ExtensionTypeGroupPointer:
		return "GroupPointer"
	case ExtensionTypeTokenGroup:
		return "TokenGroup"
	case ExtensionTypeGroupMemberPointer:
		return "GroupMemberPointer"
	case ExtensionTypeTokenGroupMember:
		return "TokenGroupMember"
	}
	return "Unknown"
}

const AccountTypeMint = 1

var (
	TokenErrNotRentExempt                    = errors.New("TokenErrNotRentExempt")
	TokenErrAlreadyInUse                     = errors.New("TokenErrAlreadyInUse")
	TokenErrUninitializedState               = errors.New("TokenErrUninitializedState")
	TokenErrMintMismatch                     = errors.New("TokenErrMintMismatch")
	TokenErrInvalidExtensionCombination      = errors.New("TokenErrInvalidExtensionCombination")
	TokenErrInvalidInstruction               = errors.New("TokenErrInvalidInstruction")
	TokenErrPointerMismatch                  = errors.New("TokenErrPointerMismatch")
	TokenMetadataErrIncorrectMintAuthority   = errors.New("TokenMetadataErrIncorrectMintAuthority")
	TokenGroupErrIncorrectMintAuthority      = errors.New("TokenGroupErrIncorrectMintAuthority")
	TokenGroupErrIncorrectUpdateAuthority    = errors.New("TokenGroupErrIncorrectUpdateAuthority")
	TokenGroupErrSizeExceedsMaxSize          = errors.New("TokenGroupErrSizeExceedsMaxSize")
	TokenGroupErrMemberAccountIsGroupAccount = errors.New("TokenGroupErrMemberAccountIsGroupAccount")
)
