package token2022

import (
	"go.firedancer.io/extmint/pkg/rent"
)

const (
	// MintLen is the packed size of the base mint.
	MintLen = 82
	// MintExtensionOverhead is the padding up to the account-type byte plus
	// the account-type byte itself. Only extensible mints carry it.
	MintExtensionOverhead = 84

	tlvHeaderLen = 4

	PointerLen          = tlvHeaderLen + 64
	TokenGroupLen       = tlvHeaderLen + 80
	TokenGroupMemberLen = tlvHeaderLen + 72
	// TokenMetadataFixedLen covers the TLV header, update authority, mint and
	// the empty additional-metadata vector. Name, symbol and uri are not
	// included.
	TokenMetadataFixedLen = tlvHeaderLen + 32 + 32 + 4

	accountTypeOffset = MintLen + MintExtensionOverhead - 1
	tlvStart          = MintLen + MintExtensionOverhead
)

type extensionLen struct {
	fixed    uint64
	variable bool
}

var extensionLens = map[ExtensionType]extensionLen{
	ExtensionTypeMetadataPointer:    {fixed: PointerLen},
	ExtensionTypeTokenMetadata:      {fixed: TokenMetadataFixedLen, variable: true},
	ExtensionTypeGroupPointer:       {fixed: PointerLen},
	ExtensionTypeTokenGroup:         {fixed: TokenGroupLen},
	ExtensionTypeGroupMemberPointer: {fixed: PointerLen},
	ExtensionTypeTokenGroupMember:   {fixed: TokenGroupMemberLen},
}

// ExtensionLen returns the bytes t occupies in a mint account, TLV header
// included, and whether t also carries a variable-length payload on top.
func ExtensionLen(t ExtensionType) (fixed uint64, variable bool) {
	l, ok := extensionLens[t]
	if !ok {
		return 0, false
	}
	return l.fixed, l.variable
}

// AccountLen is the data length of a mint carrying exts, counting only the
// fixed portion of each.
func AccountLen(exts ...ExtensionType) uint64 {
	if len(exts) == 0 {
		return MintLen
	}
	l := uint64(MintLen + MintExtensionOverhead)
	for _, ext := range exts {
		fixed, _ := ExtensionLen(ext)
		l += fixed
	}
	return l
}

// Layout describes how a mint is sized at creation and how much more data
// is written into it afterwards.
type Layout struct {
	// Space is allocated when the account is created.
	Space uint64
	// Trailing is appended later by the callee.
	Trailing uint64
}

// NewLayout sizes a mint whose allocated extensions are present at creation
// and whose appended extensions, plus variableLen bytes of variable payload,
// are written after the base mint is initialized.
func NewLayout(allocated []ExtensionType, appended []ExtensionType, variableLen uint64) Layout {
	var trailing uint64
	for _, ext := range appended {
		fixed, _ := ExtensionLen(ext)
		trailing += fixed
	}
	return Layout{Space: AccountLen(allocated...), Trailing: trailing + variableLen}
}

// FinalLen is the data length once the trailing data has been written.
func (l Layout) FinalLen() uint64 {
	return l.Space + l.Trailing
}

// Lamports is the rent-exempt balance for the final length, not just Space.
func (l Layout) Lamports(r rent.Rent) uint64 {
	return r.MinimumBalance(l.FinalLen())
}
