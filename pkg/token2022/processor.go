package token2022

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/sealevel"
	"k8s.io/klog/v2"
)

const CUTokenProgramDefaultComputeUnits = 3000

var Program = sealevel.NativeProgram{
	Name:         "token-2022",
	ComputeUnits: CUTokenProgramDefaultComputeUnits,
	Execute:      Execute,
}

// Execute processes the Token-2022 instructions built by this package.
// Token instructions are tried first, then the metadata and group
// interfaces.
func Execute(execCtx *sealevel.ExecutionCtx) error {
	_, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}

	data := instrCtx.Data
	if len(data) == 0 {
		return TokenErrInvalidInstruction
	}

	switch data[0] {
	case InstrTypeInitializeMint2:
		var instr InitializeMint2
		err = instr.UnmarshalWithDecoder(bin.NewBinDecoder(data[1:]))
		if err != nil {
			return TokenErrInvalidInstruction
		}
		logInstruction(execCtx, "InitializeMint2")
		return processInitializeMint2(execCtx, &instr)

	case InstrTypeMetadataPointerExtension, InstrTypeGroupPointerExtension, InstrTypeGroupMemberPointerExtension:
		if len(data) < 2 || data[1] != PointerInstrTypeInitialize {
			return TokenErrInvalidInstruction
		}
		var instr InstrPointerInitialize
		err = instr.UnmarshalWithDecoder(bin.NewBinDecoder(data[2:]))
		if err != nil {
			return TokenErrInvalidInstruction
		}
		extType := pointerExtensionTypes[data[0]]
		logInstruction(execCtx, fmt.Sprintf("%sExtension::Initialize", extType))
		return processInitializePointer(execCtx, extType, &instr)
	}

	switch {
	case hasDiscriminator(data, InitializeMetadataDiscriminator):
		var instr InitializeMetadata
		err = instr.UnmarshalWithDecoder(bin.NewBinDecoder(data[DiscriminatorLen:]))
		if err != nil {
			return sealevel.InstrErrInvalidInstructionData
		}
		logInstruction(execCtx, "TokenMetadataInstruction: Initialize")
		return processInitializeMetadata(execCtx, &instr)

	case hasDiscriminator(data, InitializeGroupDiscriminator):
		var instr InitializeGroup
		err = instr.UnmarshalWithDecoder(bin.NewBinDecoder(data[DiscriminatorLen:]))
		if err != nil {
			return sealevel.InstrErrInvalidInstructionData
		}
		logInstruction(execCtx, "TokenGroupInstruction: InitializeGroup")
		return processInitializeGroup(execCtx, &instr)

	case hasDiscriminator(data, InitializeMemberDiscriminator):
		logInstruction(execCtx, "TokenGroupInstruction: InitializeMember")
		return processInitializeMember(execCtx)
	}

	klog.V(2).Infof("token-2022: unsupported instruction %x", data[0])
	return TokenErrInvalidInstruction
}

var pointerExtensionTypes = map[uint8]ExtensionType{
	InstrTypeMetadataPointerExtension:    ExtensionTypeMetadataPointer,
	InstrTypeGroupPointerExtension:       ExtensionTypeGroupPointer,
	InstrTypeGroupMemberPointerExtension: ExtensionTypeGroupMemberPointer,
}

func logInstruction(execCtx *sealevel.ExecutionCtx, name string) {
	execCtx.Log.Log(fmt.Sprintf("Program log: Instruction: %s", name))
}

func borrow(execCtx *sealevel.ExecutionCtx, instrAcctIdx uint64) (*sealevel.BorrowedAccount, error) {
	txCtx, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return nil, err
	}
	return instrCtx.BorrowInstructionAccount(txCtx, instrAcctIdx)
}

func borrowOwned(execCtx *sealevel.ExecutionCtx, instrAcctIdx uint64) (*sealevel.BorrowedAccount, error) {
	acct, err := borrow(execCtx, instrAcctIdx)
	if err != nil {
		return nil, err
	}
	if acct.Owner() != ProgramID {
		klog.Errorf("token-2022: account %s is owned by %s", acct.Key(), acct.Owner())
		return nil, sealevel.InstrErrIncorrectProgramId
	}
	return acct, nil
}

func checkNumOfAccounts(execCtx *sealevel.ExecutionCtx, n uint64) error {
	_, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}
	return instrCtx.CheckNumOfInstructionAccounts(n)
}

// unpackInitializedMint returns the mint state, or TokenErrUninitializedState
// if InitializeMint2 has not run yet.
func unpackInitializedMint(acct *sealevel.BorrowedAccount) (*MintAccount, error) {
	state, err := UnpackMintAccount(acct.Data())
	if err != nil {
		return nil, err
	}
	if !state.Mint.IsInitialized {
		return nil, TokenErrUninitializedState
	}
	return state, nil
}

func checkMintAuthority(state *MintAccount, authority *sealevel.BorrowedAccount, mismatch error) error {
	if !authority.IsSigner() {
		return sealevel.InstrErrMissingRequiredSignature
	}
	if state.Mint.MintAuthority == nil || *state.Mint.MintAuthority != authority.Key() {
		return mismatch
	}
	return nil
}

func processInitializePointer(execCtx *sealevel.ExecutionCtx, extType ExtensionType, instr *InstrPointerInitialize) error {
	err := checkNumOfAccounts(execCtx, 1)
	if err != nil {
		return err
	}

	mint, err := borrowOwned(execCtx, 0)
	if err != nil {
		return err
	}

	state, err := UnpackMintAccount(mint.Data())
	if err != nil {
		return err
	}
	if state.Mint.IsInitialized {
		return TokenErrAlreadyInUse
	}
	if uint64(len(mint.Data())) < tlvStart {
		return sealevel.InstrErrInvalidAccountData
	}
	if instr.Authority.IsZero() && instr.Address.IsZero() {
		klog.Errorf("%s: authority and address cannot both be empty", extType)
		return TokenErrInvalidInstruction
	}
	if _, exists := state.Extension(extType); exists {
		return sealevel.InstrErrAccountAlreadyInitialized
	}

	value, err := marshal(&Pointer{Authority: instr.Authority, Address: instr.Address})
	if err != nil {
		return err
	}

	// pointers go into space allocated up front; no realloc
	if state.TLVEnd+tlvHeaderLen+uint64(len(value)) > uint64(len(mint.Data())) {
		klog.Errorf("%s: no room for extension in %d-byte account", extType, len(mint.Data()))
		return sealevel.InstrErrInvalidAccountData
	}

	newData := make([]byte, len(mint.Data()))
	copy(newData, mint.Data())
	writeTLV(newData, state.TLVEnd, extType, value)

	return mint.SetData(execCtx.Features, newData)
}

func processInitializeMint2(execCtx *sealevel.ExecutionCtx, instr *InitializeMint2) error {
	err := checkNumOfAccounts(execCtx, 1)
	if err != nil {
		return err
	}

	mint, err := borrowOwned(execCtx, 0)
	if err != nil {
		return err
	}

	state, err := UnpackMintAccount(mint.Data())
	if err != nil {
		return err
	}
	if state.Mint.IsInitialized {
		return TokenErrAlreadyInUse
	}

	dataLen := uint64(len(mint.Data()))
	expectedLen := AccountLen(state.ExtensionTypes()...)
	if expectedLen != dataLen {
		klog.Errorf("InitializeMint2: account is %d bytes, extensions %v need %d", dataLen, state.ExtensionTypes(), expectedLen)
		return sealevel.InstrErrInvalidAccountData
	}

	if !execCtx.GetRent().IsExempt(mint.Lamports(), dataLen) {
		return TokenErrNotRentExempt
	}

	mintAuthority := instr.MintAuthority
	state.Mint = Mint{
		MintAuthority:   &mintAuthority,
		Decimals:        instr.Decimals,
		IsInitialized:   true,
		FreezeAuthority: instr.FreezeAuthority,
	}
	base, err := marshal(&state.Mint)
	if err != nil {
		return err
	}

	newData := make([]byte, dataLen)
	copy(newData, mint.Data())
	copy(newData[:MintLen], base)
	if dataLen > MintLen {
		newData[accountTypeOffset] = AccountTypeMint
	}

	return mint.SetData(execCtx.Features, newData)
}

// appendExtension writes a new TLV entry after the last one, growing the
// account to exactly fit it.
func appendExtension(execCtx *sealevel.ExecutionCtx, acct *sealevel.BorrowedAccount, state *MintAccount, extType ExtensionType, v encodable) error {
	if _, exists := state.Extension(extType); exists {
		return sealevel.InstrErrAccountAlreadyInitialized
	}

	value, err := marshal(v)
	if err != nil {
		return err
	}

	newLen := state.TLVEnd + tlvHeaderLen + uint64(len(value))
	newData := make([]byte, newLen)
	copy(newData, acct.Data())
	writeTLV(newData, state.TLVEnd, extType, value)

	return acct.SetData(execCtx.Features, newData)
}

func checkPointer(state *MintAccount, extType ExtensionType, target solana.PublicKey) error {
	pointer, err := state.Pointer(extType)
	if err != nil {
		klog.Errorf("mint must carry %s before its data is initialized", extType)
		return err
	}
	if pointer.Address != target {
		klog.Errorf("%s points to %s, not %s", extType, pointer.Address, target)
		return TokenErrPointerMismatch
	}
	return nil
}

func processInitializeMetadata(execCtx *sealevel.ExecutionCtx, instr *InitializeMetadata) error {
	err := checkNumOfAccounts(execCtx, 4)
	if err != nil {
		return err
	}

	metadata, err := borrowOwned(execCtx, 0)
	if err != nil {
		return err
	}
	updateAuthority, err := borrow(execCtx, 1)
	if err != nil {
		return err
	}
	mint, err := borrowOwned(execCtx, 2)
	if err != nil {
		return err
	}
	mintAuthority, err := borrow(execCtx, 3)
	if err != nil {
		return err
	}

	state, err := unpackInitializedMint(mint)
	if err != nil {
		return err
	}
	err = checkMintAuthority(state, mintAuthority, TokenMetadataErrIncorrectMintAuthority)
	if err != nil {
		return err
	}
	if metadata.Key() != mint.Key() {
		return TokenErrMintMismatch
	}
	err = checkPointer(state, ExtensionTypeMetadataPointer, metadata.Key())
	if err != nil {
		return err
	}

	return appendExtension(execCtx, metadata, state, ExtensionTypeTokenMetadata, &TokenMetadata{
		UpdateAuthority: updateAuthority.Key(),
		Mint:            mint.Key(),
		Name:            instr.Name,
		Symbol:          instr.Symbol,
		URI:             instr.URI,
	})
}

func processInitializeGroup(execCtx *sealevel.ExecutionCtx, instr *InitializeGroup) error {
	err := checkNumOfAccounts(execCtx, 3)
	if err != nil {
		return err
	}

	group, err := borrowOwned(execCtx, 0)
	if err != nil {
		return err
	}
	mint, err := borrowOwned(execCtx, 1)
	if err != nil {
		return err
	}
	mintAuthority, err := borrow(execCtx, 2)
	if err != nil {
		return err
	}

	state, err := unpackInitializedMint(mint)
	if err != nil {
		return err
	}
	err = checkMintAuthority(state, mintAuthority, TokenGroupErrIncorrectMintAuthority)
	if err != nil {
		return err
	}
	if group.Key() != mint.Key() {
		return TokenErrMintMismatch
	}
	err = checkPointer(state, ExtensionTypeGroupPointer, group.Key())
	if err != nil {
		return err
	}

	return appendExtension(execCtx, group, state, ExtensionTypeTokenGroup, &TokenGroup{
		UpdateAuthority: instr.UpdateAuthority,
		Mint:            mint.Key(),
		Size:            0,
		MaxSize:         instr.MaxSize,
	})
}

func processInitializeMember(execCtx *sealevel.ExecutionCtx) error {
	err := checkNumOfAccounts(execCtx, 5)
	if err != nil {
		return err
	}

	member, err := borrowOwned(execCtx, 0)
	if err != nil {
		return err
	}
	memberMint, err := borrowOwned(execCtx, 1)
	if err != nil {
		return err
	}
	memberMintAuthority, err := borrow(execCtx, 2)
	if err != nil {
		return err
	}
	group, err := borrowOwned(execCtx, 3)
	if err != nil {
		return err
	}
	groupUpdateAuthority, err := borrow(execCtx, 4)
	if err != nil {
		return err
	}

	if member.Key() != memberMint.Key() {
		return TokenErrMintMismatch
	}
	memberState, err := unpackInitializedMint(memberMint)
	if err != nil {
		return err
	}
	err = checkMintAuthority(memberState, memberMintAuthority, TokenGroupErrIncorrectMintAuthority)
	if err != nil {
		return err
	}
	err = checkPointer(memberState, ExtensionTypeGroupMemberPointer, member.Key())
	if err != nil {
		return err
	}

	if member.Key() == group.Key() {
		return TokenGroupErrMemberAccountIsGroupAccount
	}

	groupState, err := unpackInitializedMint(group)
	if err != nil {
		return err
	}
	tokenGroup, err := groupState.TokenGroup()
	if err != nil {
		return err
	}
	if !groupUpdateAuthority.IsSigner() {
		return sealevel.InstrErrMissingRequiredSignature
	}
	if tokenGroup.UpdateAuthority != groupUpdateAuthority.Key() {
		return TokenGroupErrIncorrectUpdateAuthority
	}
	if tokenGroup.Size+1 > tokenGroup.MaxSize {
		return TokenGroupErrSizeExceedsMaxSize
	}
	tokenGroup.Size++

	err = updateExtension(execCtx, group, ExtensionTypeTokenGroup, tokenGroup)
	if err != nil {
		return err
	}

	return appendExtension(execCtx, member, memberState, ExtensionTypeTokenGroupMember, &TokenGroupMember{
		Mint:         memberMint.Key(),
		Group:        group.Key(),
		MemberNumber: tokenGroup.Size,
	})
}

// updateExtension rewrites a fixed-length extension in place.
func updateExtension(execCtx *sealevel.ExecutionCtx, acct *sealevel.BorrowedAccount, extType ExtensionType, v encodable) error {
	offset, ok := extensionOffset(acct.Data(), extType)
	if !ok {
		return TokenErrInvalidExtensionCombination
	}
	value, err := marshal(v)
	if err != nil {
		return err
	}

	newData := make([]byte, len(acct.Data()))
	copy(newData, acct.Data())
	writeTLV(newData, offset, extType, value)

	return acct.SetData(execCtx.Features, newData)
}
