package rent

import (
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/safemath"
)

// AccountStorageOverhead is the per-account metadata size charged on top of
// the data length.
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = 2.0
	DefaultBurnPercent         = 50
)

var ErrInsufficientFundsForRent = errors.New("ErrInsufficientFundsForRent")

type Rent struct {
	LamportsPerUint8Year uint64  `yaml:"lamports_per_byte_year"`
	ExemptionThreshold   float64 `yaml:"exemption_threshold"`
	BurnPercent          byte    `yaml:"burn_percent"`
}

func Default() Rent {
	return Rent{
		LamportsPerUint8Year: DefaultLamportsPerByteYear,
		ExemptionThreshold:   DefaultExemptionThreshold,
		BurnPercent:          DefaultBurnPercent,
	}
}

// MinimumBalance returns the lamports an account of dataLen bytes must hold
// to be rent exempt.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := safemath.SaturatingAddU64(dataLen, AccountStorageOverhead)
	perYear, err := safemath.CheckedMulU64(bytes, r.LamportsPerUint8Year)
	if err != nil {
		return math.MaxUint64
	}
	return uint64(float64(perYear) * r.ExemptionThreshold)
}

func (r Rent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}

func (r Rent) Validate() error {
	if r.ExemptionThreshold < 0 || math.IsNaN(r.ExemptionThreshold) {
		return fmt.Errorf("invalid exemption threshold %v", r.ExemptionThreshold)
	}
	if r.BurnPercent > 100 {
		return fmt.Errorf("invalid burn percent %d", r.BurnPercent)
	}
	return nil
}

const (
	RentStateUninitialized = iota
	RentStateRentPaying
	RentStateRentExempt
)

type RentPayingInfo struct {
	Lamports uint64
	DataSize uint64
}

type RentStateInfo struct {
	RentState      uint64
	RentPayingInfo RentPayingInfo
}

func NewRentStateInfo(acct *accounts.Account, rent *Rent) *RentStateInfo {
	if acct.Lamports == 0 {
		return &RentStateInfo{RentState: RentStateUninitialized}
	} else if rent.IsExempt(acct.Lamports, uint64(len(acct.Data))) {
		return &RentStateInfo{RentState: RentStateRentExempt}
	} else {
		return &RentStateInfo{RentState: RentStateRentPaying, RentPayingInfo: RentPayingInfo{Lamports: acct.Lamports, DataSize: uint64(len(acct.Data))}}
	}
}

// CheckRentStateTransition rejects an account that ends the transaction rent
// paying unless it was already rent paying with the same size and did not
// gain lamports.
func CheckRentStateTransition(key solana.PublicKey, pre *RentStateInfo, post *RentStateInfo) error {
	if pre == nil || post == nil {
		return nil
	}

	switch post.RentState {
	case RentStateUninitialized, RentStateRentExempt:
		return nil
	case RentStateRentPaying:
		if pre.RentState == RentStateRentPaying &&
			post.RentPayingInfo.DataSize == pre.RentPayingInfo.DataSize &&
			post.RentPayingInfo.Lamports <= pre.RentPayingInfo.Lamports {
			return nil
		}
	}

	return fmt.Errorf("%w: account %s (%d lamports, %d bytes)", ErrInsufficientFundsForRent, key, post.RentPayingInfo.Lamports, post.RentPayingInfo.DataSize)
}

func VerifyRentStateChanges(keys []solana.PublicKey, preStates []*RentStateInfo, postStates []*RentStateInfo) error {
	if len(preStates) != len(postStates) || len(keys) != len(preStates) {
		panic("programming error - pre tx states and post tx states must be same length")
	}

	for idx := range preStates {
		err := CheckRentStateTransition(keys[idx], preStates[idx], postStates[idx])
		if err != nil {
			return err
		}
	}

	return nil
}
