package aggfuncs

import (
	"unsafe"
)

// AggState holds the accumulator state of one aggregate for every group. A group's slot is addressed by the
// group id assigned by the hash aggregation, so the state of one group across all aggregates is the slot
// with the same index in each AggState.
type AggState struct {
	state  []uint64
	counts []int64
	set    []bool
	bytes  [][]byte
	size   int
}

func NewAggState(expectedGroups int) *AggState {
	return &AggState{
		state:  make([]uint64, 0, expectedGroups),
		counts: make([]int64, 0, expectedGroups),
		set:    make([]bool, 0, expectedGroups),
	}
}

// EnsureCapacity makes sure slots 0..groups-1 exist. New slots are unset.
func (as *AggState) EnsureCapacity(groups int) {
	for as.size < groups {
		as.state = append(as.state, 0)
		as.counts = append(as.counts, 0)
		as.set = append(as.set, false)
		if as.bytes != nil {
			as.bytes = append(as.bytes, nil)
		}
		as.size++
	}
}

func (as *AggState) Size() int {
	return as.size
}

func (as *AggState) SetInt64(index int, val int64) {
	as.set[index] = true
	ptrInt64 := (*int64)(unsafe.Pointer(&as.state[index])) // nolint: gosec
	*ptrInt64 = val
}

func (as *AggState) GetInt64(index int) int64 {
	ptrInt64 := (*int64)(unsafe.Pointer(&as.state[index])) // nolint: gosec
	return *ptrInt64
}

func (as *AggState) SetFloat64(index int, val float64) {
	as.set[index] = true
	ptrFloat64 := (*float64)(unsafe.Pointer(&as.state[index])) // nolint: gosec
	*ptrFloat64 = val
}

func (as *AggState) GetFloat64(index int) float64 {
	ptrFloat64 := (*float64)(unsafe.Pointer(&as.state[index])) // nolint: gosec
	return *ptrFloat64
}

// SetBytes copies val into the slot, reusing the previous allocation where it is large enough
func (as *AggState) SetBytes(index int, val []byte) {
	as.set[index] = true
	as.checkCreateBytesState()
	prev := as.bytes[index]
	if cap(prev) >= len(val) {
		as.bytes[index] = append(prev[:0], val...)
		return
	}
	b := make([]byte, len(val))
	copy(b, val)
	as.bytes[index] = b
}

func (as *AggState) GetBytes(index int) []byte {
	if as.bytes == nil {
		return nil
	}
	return as.bytes[index]
}

func (as *AggState) checkCreateBytesState() {
	if as.bytes == nil {
		as.bytes = make([][]byte, as.size, cap(as.state))
	}
}

func (as *AggState) AddCount(index int, delta int64) {
	as.set[index] = true
	as.counts[index] += delta
}

func (as *AggState) GetCount(index int) int64 {
	return as.counts[index]
}

func (as *AggState) IsSet(index int) bool {
	return as.set[index]
}
