package exec

import (
	"fmt"

	"github.com/cznic/mathutil"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// AlignmentOperator turns one BlockIterable per column into a stream of pages. The sources may chunk their
// blocks differently, pages are cut at the smallest remaining length so every block of a page is a region of
// exactly one source block. Every source must produce the same number of positions.
type AlignmentOperator struct {
	sources     []block.BlockIterable
	types       []common.Type
	maxPageSize int
}

var _ Operator = &AlignmentOperator{}

// NewAlignmentOperator creates the operator. maxPageSize limits the positions per page, 0 means pages are as
// long as the shortest current source block.
func NewAlignmentOperator(maxPageSize int, sources ...block.BlockIterable) (*AlignmentOperator, error) {
	if len(sources) == 0 {
		return nil, errors.NewInvalidConfigurationError("alignment requires at least one source")
	}
	if maxPageSize < 0 {
		return nil, errors.NewInvalidConfigurationError("MaxAlignedPageSize must be >= 0")
	}
	types := make([]common.Type, len(sources))
	for i, source := range sources {
		types[i] = source.Type()
	}
	return &AlignmentOperator{sources: sources, types: types, maxPageSize: maxPageSize}, nil
}

func (a *AlignmentOperator) TupleTypes() []common.Type {
	return a.types
}

func (a *AlignmentOperator) ChannelCount() int {
	return len(a.types)
}

// Iterator starts a new pass over every source
func (a *AlignmentOperator) Iterator(stats OperatorStats) (PageIterator, error) {
	iters := make([]*alignedSource, len(a.sources))
	for i, source := range a.sources {
		iter, err := source.Iterator()
		if err != nil {
			return nil, err
		}
		iters[i] = &alignedSource{iter: iter, typ: a.types[i]}
	}
	return &alignmentIterator{sources: iters, maxPageSize: a.maxPageSize, stats: stats}, nil
}

type alignedSource struct {
	iter     block.BlockIterator
	typ      common.Type
	current  *block.Block
	offset   int
	consumed int
	finished bool
}

// ensureBlock makes sure current has at least one unread position, returning false when the source is exhausted
func (s *alignedSource) ensureBlock() (bool, error) {
	for !s.finished && (s.current == nil || s.offset == s.current.PositionCount()) {
		blk, err := s.iter.Next()
		if err != nil {
			return false, err
		}
		if blk == nil {
			s.finished = true
			s.current = nil
			break
		}
		if blk.Type() != s.typ {
			return false, errors.NewTypeMismatchError("aligned block", s.typ, blk.Type())
		}
		s.current = blk
		s.offset = 0
	}
	return !s.finished, nil
}

func (s *alignedSource) remaining() int {
	return s.current.PositionCount() - s.offset
}

func (s *alignedSource) take(length int) (*block.Block, error) {
	region, err := s.current.Region(s.offset, length)
	if err != nil {
		return nil, err
	}
	s.offset += length
	s.consumed += length
	return region, nil
}

type alignmentIterator struct {
	sources     []*alignedSource
	maxPageSize int
	stats       OperatorStats
	next        *Page
	done        bool
	err         error
}

func (a *alignmentIterator) HasNext() (bool, error) {
	if a.next != nil {
		return true, nil
	}
	if a.err != nil {
		return false, a.err
	}
	if a.done {
		return false, nil
	}
	page, err := a.nextPage()
	if err != nil {
		a.err = err
		return false, err
	}
	if page == nil {
		a.done = true
		a.stats.Finish()
		return false, nil
	}
	a.next = page
	return true, nil
}

func (a *alignmentIterator) Next() (*Page, error) {
	hasNext, err := a.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, errNoMorePages
	}
	page := a.next
	a.next = nil
	return page, nil
}

func (a *alignmentIterator) nextPage() (*Page, error) {
	length := -1
	exhausted := 0
	for _, source := range a.sources {
		ok, err := source.ensureBlock()
		if err != nil {
			return nil, err
		}
		if !ok {
			exhausted++
			continue
		}
		if length == -1 {
			length = source.remaining()
		} else {
			length = mathutil.Min(length, source.remaining())
		}
	}
	if exhausted == len(a.sources) {
		return nil, nil
	}
	if exhausted > 0 {
		return nil, a.misalignedError()
	}
	if a.maxPageSize > 0 {
		length = mathutil.Min(length, a.maxPageSize)
	}
	blocks := make([]*block.Block, len(a.sources))
	dataSize := 0
	for i, source := range a.sources {
		region, err := source.take(length)
		if err != nil {
			return nil, err
		}
		blocks[i] = region
		dataSize += region.DataSize()
	}
	page, err := NewPage(blocks...)
	if err != nil {
		return nil, err
	}
	a.stats.AddInput(length, dataSize)
	a.stats.AddOutput(page)
	return page, nil
}

func (a *alignmentIterator) misalignedError() error {
	counts := make([]int, len(a.sources))
	for i, source := range a.sources {
		counts[i] = source.consumed
		if !source.finished {
			counts[i] += source.remaining()
		}
	}
	msg := fmt.Sprintf("a source ended while others still have positions, positions read per source %v", counts)
	log.Debugf("alignment failed: %s", msg)
	return errors.NewAlignmentError(msg)
}
