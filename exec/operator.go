package exec

import (
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Operator produces a sequence of Pages. Whether an Operator can be iterated more than once depends on the
// implementation.
type Operator interface {
	TupleTypes() []common.Type

	ChannelCount() int

	// Iterator returns a new PageIterator which reports what it reads and produces to stats
	Iterator(stats OperatorStats) (PageIterator, error)
}

// PageIterator is a lazy, finite, single pass sequence of pages. HasNext may block while upstream work is
// done. Calling Next when HasNext is false returns an IllegalState error.
type PageIterator interface {
	HasNext() (bool, error)

	Next() (*Page, error)
}

var errNoMorePages = errors.NewIllegalStateError("no more pages")

// CollectPages drains the operator into a slice of pages
func CollectPages(operator Operator, stats OperatorStats) ([]*Page, error) {
	iter, err := operator.Iterator(stats)
	if err != nil {
		return nil, err
	}
	var pages []*Page
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			return pages, nil
		}
		page, err := iter.Next()
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
}

// CollectRows drains the operator and returns every row as Go values, in output order
func CollectRows(operator Operator, stats OperatorStats) ([][]interface{}, error) {
	pages, err := CollectPages(operator, stats)
	if err != nil {
		return nil, err
	}
	return PagesToRows(pages), nil
}

func PagesToRows(pages []*Page) [][]interface{} {
	var rows [][]interface{}
	for _, page := range pages {
		for i := 0; i < page.PositionCount(); i++ {
			rows = append(rows, page.GetRow(i))
		}
	}
	return rows
}

func checkChannel(channel int, types []common.Type) bool {
	return channel >= 0 && channel < len(types)
}
