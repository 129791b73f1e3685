package token2022

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/sealevel"
)

// Mint is the base mint record. Authorities are COptions: a u32 tag
// followed by 32 bytes that are zero when absent.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

func readCOptionPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		key := solana.PublicKeyFromBytes(pk)
		return &key, nil
	}
	return nil, sealevel.InstrErrInvalidAccountData
}

func writeCOptionPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		err := encoder.WriteUint32(0, bin.LE)
		if err != nil {
			return err
		}
		return encoder.WriteBytes(make([]byte, solana.PublicKeyLength), false)
	}
	err := encoder.WriteUint32(1, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(pk[:], false)
}

func (mint *Mint) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	mint.MintAuthority, err = readCOptionPubkey(decoder)
	if err != nil {
		return err
	}

	mint.Supply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	mint.Decimals, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	isInitialized, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	mint.IsInitialized = isInitialized == 1

	mint.FreezeAuthority, err = readCOptionPubkey(decoder)
	return err
}

func (mint *Mint) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := writeCOptionPubkey(encoder, mint.MintAuthority)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(mint.Supply, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(mint.Decimals)
	if err != nil {
		return err
	}

	err = encoder.WriteBool(mint.IsInitialized)
	if err != nil {
		return err
	}

	return writeCOptionPubkey(encoder, mint.FreezeAuthority)
}

// Pointer is the value of the metadata, group and group-member pointer
// extensions. A zero key means none.
type Pointer struct {
	Authority solana.PublicKey
	Address   solana.PublicKey
}

func (p *Pointer) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	authority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	address, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(p.Authority[:], authority)
	copy(p.Address[:], address)
	return nil
}

func (p *Pointer) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(p.Authority[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(p.Address[:], false)
}

type TokenMetadata struct {
	UpdateAuthority    solana.PublicKey
	Mint               solana.PublicKey
	Name               string
	Symbol             string
	URI                string
	AdditionalMetadata [][2]string
}

func writeString(encoder *bin.Encoder, s string) error {
	err := encoder.WriteUint32(uint32(len(s)), bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes([]byte(s), false)
}

func readString(decoder *bin.Decoder) (string, error) {
	l, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	b, err := decoder.ReadBytes(int(l))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (md *TokenMetadata) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	updateAuthority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(md.UpdateAuthority[:], updateAuthority)

	mint, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(md.Mint[:], mint)

	md.Name, err = readString(decoder)
	if err != nil {
		return err
	}
	md.Symbol, err = readString(decoder)
	if err != nil {
		return err
	}
	md.URI, err = readString(decoder)
	if err != nil {
		return err
	}

	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}
	md.AdditionalMetadata = nil
	for i := uint32(0); i < count; i++ {
		var kv [2]string
		kv[0], err = readString(decoder)
		if err != nil {
			return err
		}
		kv[1], err = readString(decoder)
		if err != nil {
			return err
		}
		md.AdditionalMetadata = append(md.AdditionalMetadata, kv)
	}
	return nil
}

func (md *TokenMetadata) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(md.UpdateAuthority[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteBytes(md.Mint[:], false)
	if err != nil {
		return err
	}
	for _, s := range []string{md.Name, md.Symbol, md.URI} {
		err = writeString(encoder, s)
		if err != nil {
			return err
		}
	}
	err = encoder.WriteUint32(uint32(len(md.AdditionalMetadata)), bin.LE)
	if err != nil {
		return err
	}
	for _, kv := range md.AdditionalMetadata {
		err = writeString(encoder, kv[0])
		if err != nil {
			return err
		}
		err = writeString(encoder, kv[1])
		if err != nil {
			return err
		}
	}
	return nil
}

type TokenGroup struct {
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Size            uint64
	MaxSize         uint64
}

func (g *TokenGroup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	updateAuthority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(g.UpdateAuthority[:], updateAuthority)

	mint, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(g.Mint[:], mint)

	g.Size, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}
	g.MaxSize, err = decoder.ReadUint64(bin.LE)
	return err
}

func (g *TokenGroup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(g.UpdateAuthority[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteBytes(g.Mint[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(g.Size, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(g.MaxSize, bin.LE)
}

type TokenGroupMember struct {
	Mint         solana.PublicKey
	Group        solana.PublicKey
	MemberNumber uint64
}

func (m *TokenGroupMember) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	mint, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(m.Mint[:], mint)

	group, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(m.Group[:], group)

	m.MemberNumber, err = decoder.ReadUint64(bin.LE)
	return err
}

func (m *TokenGroupMember) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(m.Mint[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteBytes(m.Group[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(m.MemberNumber, bin.LE)
}

type encodable interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

type decodable interface {
	UnmarshalWithDecoder(decoder *bin.Decoder) error
}

func marshal(v encodable) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := v.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension is one TLV entry of a mint's extension area.
type Extension struct {
	Type  ExtensionType
	Value []byte
}

// MintAccount is a decoded mint with its extensions, in TLV order.
type MintAccount struct {
	Mint        Mint
	AccountType uint8
	Extensions  []Extension
	// TLVEnd is the offset just past the last TLV entry.
	TLVEnd uint64
}

// UnpackMintAccount decodes a mint account's data. An account that only
// holds the base mint is accepted, as is one whose extension area has not
// been written yet.
func UnpackMintAccount(data []byte) (*MintAccount, error) {
	if len(data) < MintLen {
		return nil, sealevel.InstrErrInvalidAccountData
	}

	acct := new(MintAccount)
	err := acct.Mint.UnmarshalWithDecoder(bin.NewBinDecoder(data[:MintLen]))
	if err != nil {
		return nil, sealevel.InstrErrInvalidAccountData
	}

	if len(data) == MintLen {
		acct.TLVEnd = MintLen
		return acct, nil
	}
	if len(data) < tlvStart {
		return nil, sealevel.InstrErrInvalidAccountData
	}
	for _, b := range data[MintLen:accountTypeOffset] {
		if b != 0 {
			return nil, sealevel.InstrErrInvalidAccountData
		}
	}
	acct.AccountType = data[accountTypeOffset]
	if acct.AccountType != 0 && acct.AccountType != AccountTypeMint {
		return nil, sealevel.InstrErrInvalidAccountData
	}

	offset := uint64(tlvStart)
	dataLen := uint64(len(data))
	for {
		header, ok := readTLVHeader(data, offset)
		if !ok || header.Type == ExtensionTypeUninitialized {
			break
		}
		extType := header.Type
		valueLen := uint64(header.Length)
		valueStart := offset + tlvHeaderLen
		if valueStart+valueLen > dataLen {
			return nil, sealevel.InstrErrInvalidAccountData
		}
		value := make([]byte, valueLen)
		copy(value, data[valueStart:valueStart+valueLen])
		acct.Extensions = append(acct.Extensions, Extension{Type: extType, Value: value})
		offset = valueStart + valueLen
	}
	acct.TLVEnd = offset

	return acct, nil
}

func (acct *MintAccount) Extension(t ExtensionType) ([]byte, bool) {
	for _, ext := range acct.Extensions {
		if ext.Type == t {
			return ext.Value, true
		}
	}
	return nil, false
}

func (acct *MintAccount) ExtensionTypes() []ExtensionType {
	types := make([]ExtensionType, 0, len(acct.Extensions))
	for _, ext := range acct.Extensions {
		types = append(types, ext.Type)
	}
	return types
}

func (acct *MintAccount) decodeExtension(t ExtensionType, v decodable) error {
	value, ok := acct.Extension(t)
	if !ok {
		return TokenErrInvalidExtensionCombination
	}
	err := v.UnmarshalWithDecoder(bin.NewBinDecoder(value))
	if err != nil {
		return sealevel.InstrErrInvalidAccountData
	}
	return nil
}

// Pointer decodes one of the pointer extensions.
func (acct *MintAccount) Pointer(t ExtensionType) (*Pointer, error) {
	p := new(Pointer)
	err := acct.decodeExtension(t, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (acct *MintAccount) TokenMetadata() (*TokenMetadata, error) {
	md := new(TokenMetadata)
	err := acct.decodeExtension(ExtensionTypeTokenMetadata, md)
	if err != nil {
		return nil, err
	}
	return md, nil
}

func (acct *MintAccount) TokenGroup() (*TokenGroup, error) {
	g := new(TokenGroup)
	err := acct.decodeExtension(ExtensionTypeTokenGroup, g)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (acct *MintAccount) TokenGroupMember() (*TokenGroupMember, error) {
	m := new(TokenGroupMember)
	err := acct.decodeExtension(ExtensionTypeTokenGroupMember, m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

type tlvHeader struct {
	Type   ExtensionType
	Length uint16
}

func (h *tlvHeader) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	extType, err := decoder.ReadUint16(bin.LE)
	if err != nil {
		return err
	}
	h.Type = ExtensionType(extType)
	h.Length, err = decoder.ReadUint16(bin.LE)
	return err
}

func (h *tlvHeader) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint16(uint16(h.Type), bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint16(h.Length, bin.LE)
}

// readTLVHeader decodes the header at offset. It reports false when fewer
// than tlvHeaderLen bytes remain.
func readTLVHeader(data []byte, offset uint64) (tlvHeader, bool) {
	var header tlvHeader
	if offset+tlvHeaderLen > uint64(len(data)) {
		return header, false
	}
	err := header.UnmarshalWithDecoder(bin.NewBinDecoder(data[offset : offset+tlvHeaderLen]))
	return header, err == nil
}

// writeTLV writes a TLV entry at offset. The caller guarantees the room.
func writeTLV(data []byte, offset uint64, t ExtensionType, value []byte) {
	header, _ := marshal(&tlvHeader{Type: t, Length: uint16(len(value))})
	copy(data[offset:], header)
	copy(data[offset+tlvHeaderLen:], value)
}

// extensionOffset returns the offset of t's TLV header.
func extensionOffset(data []byte, t ExtensionType) (uint64, bool) {
	offset := uint64(tlvStart)
	for {
		header, ok := readTLVHeader(data, offset)
		if !ok || header.Type == ExtensionTypeUninitialized {
			return 0, false
		}
		if header.Type == t {
			return offset, true
		}
		offset += tlvHeaderLen + uint64(header.Length)
	}
}
