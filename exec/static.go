package exec

import (
	"fmt"

	"github.com/cznic/mathutil"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// StaticOperator produces pages that are already in memory. It can be iterated any number of times.
type StaticOperator struct {
	types []common.Type
	pages []*Page
}

var _ Operator = &StaticOperator{}

func NewStaticOperator(types []common.Type, pages ...*Page) (*StaticOperator, error) {
	for _, page := range pages {
		if !common.TypesEqual(types, page.Types()) {
			return nil, errors.NewTypeMismatchError("static page", typeList(types), typeList(page.Types()))
		}
	}
	return &StaticOperator{types: types, pages: pages}, nil
}

// NewStaticOperatorFromRows converts rows of Go values into pages of at most pageSize positions
func NewStaticOperatorFromRows(types []common.Type, pageSize int, rows [][]interface{}) (*StaticOperator, error) {
	pages, err := RowsToPages(types, pageSize, rows)
	if err != nil {
		return nil, err
	}
	return NewStaticOperator(types, pages...)
}

func (s *StaticOperator) TupleTypes() []common.Type {
	return s.types
}

func (s *StaticOperator) ChannelCount() int {
	return len(s.types)
}

func (s *StaticOperator) Iterator(stats OperatorStats) (PageIterator, error) {
	return &staticIterator{pages: s.pages, stats: stats}, nil
}

type staticIterator struct {
	pages []*Page
	index int
	stats OperatorStats
}

func (s *staticIterator) HasNext() (bool, error) {
	if s.index < len(s.pages) {
		return true, nil
	}
	if s.index == len(s.pages) {
		s.index++
		s.stats.Finish()
	}
	return false, nil
}

func (s *staticIterator) Next() (*Page, error) {
	if s.index >= len(s.pages) {
		return nil, errNoMorePages
	}
	page := s.pages[s.index]
	s.index++
	s.stats.AddInput(page.PositionCount(), page.DataSize())
	s.stats.AddOutput(page)
	return page, nil
}

// RowsToPages converts rows of Go values into pages of at most pageSize positions. Values are appended with
// block.Builder.AppendObject so nil is a null.
func RowsToPages(types []common.Type, pageSize int, rows [][]interface{}) ([]*Page, error) {
	if pageSize < 1 {
		return nil, errors.Errorf("invalid page size %d", pageSize)
	}
	var pages []*Page
	for start := 0; start < len(rows); start += pageSize {
		count := mathutil.Min(pageSize, len(rows)-start)
		builders := make([]*block.Builder, len(types))
		for i, typ := range types {
			builders[i] = block.NewBuilder(typ, count)
		}
		for _, row := range rows[start : start+count] {
			if len(row) != len(types) {
				return nil, errors.Errorf("row %v has %d values but there are %d columns", row, len(row), len(types))
			}
			for i, val := range row {
				if err := builders[i].AppendObject(val); err != nil {
					return nil, err
				}
			}
		}
		blocks := make([]*block.Block, len(types))
		for i, builder := range builders {
			blocks[i] = builder.Build()
		}
		page, err := NewPage(blocks...)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

type typeList []common.Type

func (t typeList) String() string {
	return fmt.Sprintf("(%s)", common.TypesString(t))
}
