package runtime

import (
	"bytes"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/minio/sha256-simd"
	"github.com/samber/lo"
	"github.com/zeebo/blake3"
	"go.firedancer.io/extmint/pkg/accounts"
)

const merkleFanout = 16

// accountLeaf hashes an account the way the accounts delta hash expects:
// lamports, rent epoch, data, executable flag, owner, key.
func accountLeaf(acct *accounts.Account) []byte {
	hasher := blake3.New()
	enc := bin.NewBinEncoder(hasher)
	_ = enc.WriteUint64(acct.Lamports, bin.LE)
	_ = enc.WriteUint64(acct.RentEpoch, bin.LE)
	_ = enc.WriteBytes(acct.Data, false)
	_ = enc.WriteBool(acct.Executable)
	_ = enc.WriteBytes(acct.Owner[:], false)
	_ = enc.WriteBytes(acct.Key[:], false)
	return hasher.Sum(nil)
}

// merkleRoot hashes leaves in groups of merkleFanout until one node is left.
func merkleRoot(nodes [][]byte) []byte {
	if len(nodes) == 0 {
		return nil
	}
	for {
		chunks := lo.Chunk(nodes, merkleFanout)
		parents := make([][]byte, len(chunks))
		for idx, chunk := range chunks {
			hasher := sha256.New()
			for _, node := range chunk {
				hasher.Write(node)
			}
			parents[idx] = hasher.Sum(nil)
		}
		if len(parents) == 1 {
			return parents[0]
		}
		nodes = parents
	}
}

// accountsDeltaHash is the merkle root over the leaves of the accounts a
// transaction modified, ordered by key.
func accountsDeltaHash(modified []*accounts.Account) []byte {
	sorted := append([]*accounts.Account(nil), modified...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key[:], sorted[j].Key[:]) < 0
	})
	return merkleRoot(lo.Map(sorted, func(acct *accounts.Account, _ int) []byte {
		return accountLeaf(acct)
	}))
}

// chainBankHash chains a transaction's delta hash onto the parent bank hash.
func chainBankHash(parent [32]byte, deltaHash []byte, numSigs uint64, blockhash [32]byte) []byte {
	hasher := sha256.New()
	hasher.Write(parent[:])
	hasher.Write(deltaHash)
	_ = bin.NewBinEncoder(hasher).WriteUint64(numSigs, bin.LE)
	hasher.Write(blockhash[:])
	return hasher.Sum(nil)
}
