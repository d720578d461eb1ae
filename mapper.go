package xmalloc

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/xmalloc/internal/resource"
)

// accountingMapper charges every mapping against the memory budget and turns
// OS failures into MappingErrors.
type accountingMapper struct {
	mapper Mapper
	rc     *resource.Controller
}

func (m *accountingMapper) Map(size int) (unsafe.Pointer, error) {
	if err := m.rc.AcquireMemory(int64(size)); err != nil {
		return nil, fmt.Errorf("map %d bytes (limit %d, in use %d): %w",
			size, m.rc.MemoryLimit(), m.rc.MemoryUsage(), err)
	}
	p, err := m.mapper.Map(size)
	if err != nil {
		m.rc.ReleaseMemory(int64(size))
		return nil, &MappingError{Op: "map", Size: size, cause: err}
	}
	if p == nil {
		m.rc.ReleaseMemory(int64(size))
		return nil, &MappingError{Op: "map", Size: size, cause: fmt.Errorf("mapper returned nil")}
	}
	return p, nil
}

func (m *accountingMapper) Unmap(p unsafe.Pointer, size int) error {
	if err := m.mapper.Unmap(p, size); err != nil {
		return &MappingError{Op: "unmap", Size: size, cause: err}
	}
	m.rc.ReleaseMemory(int64(size))
	return nil
}
