package mmap

import (
	"errors"
	"sync"
	"unsafe"
)

// ErrInjected is the default error returned by Faulty.
var ErrInjected = errors.New("mmap: injected fault")

// Mapper is the contract Faulty wraps.
type Mapper interface {
	Map(size int) (unsafe.Pointer, error)
	Unmap(p unsafe.Pointer, size int) error
}

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterMaps  int64 // Fail Map after this many more successful maps. -1 to disable.
	FailAfterBytes int64 // Fail Map once live mapped bytes would exceed this. -1 to disable.
	FailOnUnmap    bool
	Err            error
}

// NoFault disables every rule.
var NoFault = Fault{FailAfterMaps: -1, FailAfterBytes: -1}

// Region is one recorded Map or Unmap call.
type Region struct {
	Base uintptr
	Size int
}

// Faulty is a Mapper wrapper that can inject errors. It records every
// successful call.
type Faulty struct {
	M Mapper

	mu     sync.Mutex
	fault  Fault
	budget int64 // remaining maps before FailAfterMaps fires
	live   int64
	maps   []Region
	unmaps []Region
}

// NewFaulty creates a Faulty wrapping m (or Anonymous if nil) with no faults.
func NewFaulty(m Mapper) *Faulty {
	if m == nil {
		m = Anonymous{}
	}
	return &Faulty{M: m, fault: NoFault, budget: -1}
}

// SetFault replaces the active rule. FailAfterMaps counts from this call.
func (f *Faulty) SetFault(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = fault
	f.budget = fault.FailAfterMaps
}

// FailMaps makes every following Map fail with err (ErrInjected if nil).
func (f *Faulty) FailMaps(err error) {
	f.SetFault(Fault{FailAfterMaps: 0, FailAfterBytes: -1, Err: err})
}

// ClearFault disables every rule.
func (f *Faulty) ClearFault() {
	f.SetFault(NoFault)
}

func (f *Faulty) err() error {
	if f.fault.Err != nil {
		return f.fault.Err
	}
	return ErrInjected
}

// Map implements the allocator's Mapper contract.
func (f *Faulty) Map(size int) (unsafe.Pointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.budget == 0 {
		return nil, f.err()
	}
	if f.fault.FailAfterBytes >= 0 && f.live+int64(size) > f.fault.FailAfterBytes {
		return nil, f.err()
	}

	p, err := f.M.Map(size)
	if err != nil {
		return nil, err
	}
	if f.budget > 0 {
		f.budget--
	}
	f.live += int64(size)
	f.maps = append(f.maps, Region{Base: uintptr(p), Size: size})
	return p, nil
}

// Unmap implements the allocator's Mapper contract.
func (f *Faulty) Unmap(p unsafe.Pointer, size int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fault.FailOnUnmap {
		return f.err()
	}
	if err := f.M.Unmap(p, size); err != nil {
		return err
	}
	f.live -= int64(size)
	f.unmaps = append(f.unmaps, Region{Base: uintptr(p), Size: size})
	return nil
}

// Maps returns the number of successful Map calls.
func (f *Faulty) Maps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.maps)
}

// Unmaps returns the number of successful Unmap calls.
func (f *Faulty) Unmaps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unmaps)
}

// Live returns the bytes mapped and not yet unmapped.
func (f *Faulty) Live() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// LastMap returns the most recent successful Map, or the zero Region.
func (f *Faulty) LastMap() Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.maps) == 0 {
		return Region{}
	}
	return f.maps[len(f.maps)-1]
}

// LastUnmap returns the most recent successful Unmap, or the zero Region.
func (f *Faulty) LastUnmap() Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.unmaps) == 0 {
		return Region{}
	}
	return f.unmaps[len(f.unmaps)-1]
}
