package block

import (
	"github.com/squareup/blockexec/common"
)

// BlockIterable is a restartable source of the blocks of one column. Each call to Iterator starts again from
// the first block.
type BlockIterable interface {
	Type() common.Type
	Iterator() (BlockIterator, error)
}

// BlockIterator is a single pass over the blocks of a BlockIterable
type BlockIterator interface {
	// Next returns the next block, or nil when there are no more blocks
	Next() (*Block, error)
}

type sliceIterable struct {
	typ    common.Type
	blocks []*Block
}

// NewIterable returns a BlockIterable over blocks that are already materialized in memory
func NewIterable(typ common.Type, blocks ...*Block) BlockIterable {
	return &sliceIterable{typ: typ, blocks: blocks}
}

func (s *sliceIterable) Type() common.Type {
	return s.typ
}

func (s *sliceIterable) Iterator() (BlockIterator, error) {
	return &sliceIterator{blocks: s.blocks}, nil
}

type sliceIterator struct {
	blocks []*Block
	index  int
}

func (s *sliceIterator) Next() (*Block, error) {
	if s.index >= len(s.blocks) {
		return nil, nil
	}
	blk := s.blocks[s.index]
	s.index++
	return blk, nil
}

// Chunk splits values into blocks of at most chunkSize positions, the last block may be smaller. Values are
// appended with Builder.AppendObject.
func Chunk(typ common.Type, chunkSize int, values ...interface{}) ([]*Block, error) {
	var blocks []*Block
	builder := NewBuilder(typ, chunkSize)
	for _, val := range values {
		if err := builder.AppendObject(val); err != nil {
			return nil, err
		}
		if builder.PositionCount() == chunkSize {
			blocks = append(blocks, builder.Build())
		}
	}
	if builder.PositionCount() > 0 {
		blocks = append(blocks, builder.Build())
	}
	return blocks, nil
}
