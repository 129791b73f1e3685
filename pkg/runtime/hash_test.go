package runtime

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/token2022"
)

// uses known good values to test if bankhash computes correctly
func Test_Chain_Bank_Hash(t *testing.T) {
	acctsDeltaHash := []byte{148, 1, 99, 1, 94, 42, 27, 37, 216, 66, 0, 57, 116, 109, 251, 51, 250, 101, 228, 74, 44, 3, 94, 73, 120, 148, 27, 210, 78, 34, 112, 212}
	parentBankHash := [32]byte{216, 24, 141, 114, 110, 72, 188, 246, 47, 80, 102, 40, 122, 219, 11, 94, 100, 159, 96, 122, 195, 101, 140, 19, 22, 225, 243, 127, 23, 182, 65, 90}
	blockHash := [32]byte{113, 124, 28, 34, 197, 214, 189, 118, 67, 41, 212, 2, 122, 6, 74, 59, 124, 160, 185, 122, 37, 39, 142, 149, 224, 42, 26, 49, 215, 200, 16, 19}

	knownCorrectBankHash := []byte{190, 156, 54, 163, 252, 183, 243, 10, 147, 168, 42, 47, 214, 172, 160, 64, 86, 32, 203, 54, 119, 230, 201, 36, 164, 27, 30, 244, 96, 202, 88, 154}

	assert.Equal(t, knownCorrectBankHash, chainBankHash(parentBankHash, acctsDeltaHash, 2, blockHash))
}

// leafOf spells out the leaf layout field by field.
func leafOf(acct *accounts.Account) []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, acct.Lamports)
	buf = binary.LittleEndian.AppendUint64(buf, acct.RentEpoch)
	buf = append(buf, acct.Data...)
	if acct.Executable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, acct.Owner[:]...)
	buf = append(buf, acct.Key[:]...)
	sum := blake3.Sum256(buf)
	return sum[:]
}

func TestBank_HashesProvisionedMint(t *testing.T) {
	bank := newTestBank(t)
	mint := newRandomPrivateKey(t)
	blockhash := bank.Blockhash()

	result, err := bank.Process([]sealevel.Instruction{program.NewMetadataInstruction(mint.PublicKey(), bank.Payer.PublicKey())}, mint)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	mintAcct := bank.GetAccount(mint.PublicKey())
	payerAcct := bank.GetAccount(bank.Payer.PublicKey())
	require.NotNil(t, mintAcct)
	require.NotNil(t, payerAcct)
	assert.Equal(t, [32]byte(token2022.ProgramID), mintAcct.Owner)

	first, second := mintAcct, payerAcct
	if bytes.Compare(first.Key[:], second.Key[:]) > 0 {
		first, second = second, first
	}
	root := sha256.Sum256(append(leafOf(first), leafOf(second)...))
	assert.Equal(t, root[:], result.AccountsDeltaHash)

	var expected bytes.Buffer
	expected.Write(make([]byte, 32))
	expected.Write(root[:])
	expected.Write(binary.LittleEndian.AppendUint64(nil, 2))
	expected.Write(blockhash[:])
	assert.Equal(t, sha256.Sum256(expected.Bytes()), result.BankHash)
	assert.Equal(t, solana.Hash(result.BankHash), bank.Blockhash())

	// a second provisioning chains onto the first bank hash
	other := newRandomPrivateKey(t)
	next, err := bank.Process([]sealevel.Instruction{program.NewGroupInstruction(other.PublicKey(), bank.Payer.PublicKey())}, other)
	require.NoError(t, err)
	require.NoError(t, next.Err)
	assert.Equal(t, chainBankHash(result.BankHash, next.AccountsDeltaHash, 2, result.BankHash), next.BankHash[:])
}

func Test_Accounts_Delta_Hash_OrderIndependent(t *testing.T) {
	a := &accounts.Account{Key: newRandomKey(t), Lamports: 10, Data: []byte{1, 2, 3}}
	b := &accounts.Account{Key: newRandomKey(t), Lamports: 20, Owner: token2022.ProgramID}

	h1 := accountsDeltaHash([]*accounts.Account{a, b})
	h2 := accountsDeltaHash([]*accounts.Account{b, a})
	require.Len(t, h1, 32)
	assert.Equal(t, h1, h2)

	b.Lamports++
	assert.NotEqual(t, h1, accountsDeltaHash([]*accounts.Account{a, b}))
	assert.Nil(t, accountsDeltaHash(nil))
}

func Test_Merkle_Root_Fanout(t *testing.T) {
	leaves := make([][]byte, merkleFanout+1)
	for idx := range leaves {
		leaves[idx] = []byte{byte(idx)}
	}
	root := merkleRoot(leaves)
	require.Len(t, root, 32)
	assert.NotEqual(t, root, merkleRoot(leaves[:merkleFanout]))

	first := sha256.Sum256(bytes.Join(leaves[:merkleFanout], nil))
	second := sha256.Sum256(leaves[merkleFanout])
	expected := sha256.Sum256(append(first[:], second[:]...))
	assert.Equal(t, expected[:], root)
}
