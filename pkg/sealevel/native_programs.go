package sealevel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/base58"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = base58.MustDecodeFromString(NativeLoaderAddrStr)

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = base58.MustDecodeFromString(SystemProgramAddrStr)

type ProgramFn func(execCtx *ExecutionCtx) error

// NativeProgram is a builtin executed in-process. ComputeUnits is charged
// before Execute runs.
type NativeProgram struct {
	Name         string
	ComputeUnits uint64
	Execute      ProgramFn
}

type Registry struct {
	mu       sync.RWMutex
	programs map[solana.PublicKey]NativeProgram
}

func NewRegistry() *Registry {
	return &Registry{programs: make(map[solana.PublicKey]NativeProgram)}
}

func (r *Registry) Register(programId solana.PublicKey, program NativeProgram) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.programs[programId]; exists {
		return fmt.Errorf("program %s already registered", programId)
	}
	r.programs[programId] = program
	return nil
}

func (r *Registry) ResolveNativeProgramById(programId solana.PublicKey) (NativeProgram, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	program, ok := r.programs[programId]
	if !ok {
		return NativeProgram{}, InstrErrUnsupportedProgramId
	}
	return program, nil
}

func (r *Registry) ProgramIds() []solana.PublicKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]solana.PublicKey, 0, len(r.programs))
	for id := range r.programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (r *Registry) NameOf(programId solana.PublicKey) string {
	program, err := r.ResolveNativeProgramById(programId)
	if err != nil {
		return programId.String()
	}
	return program.Name
}
