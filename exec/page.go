package exec

import (
	"fmt"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Page is a batch of rows stored as one Block per channel. All blocks have the same number of positions and
// position p of every block belongs to the same row. A Page is immutable.
type Page struct {
	blocks    []*block.Block
	positions int
}

func NewPage(blocks ...*block.Block) (*Page, error) {
	positions := 0
	for i, blk := range blocks {
		if i == 0 {
			positions = blk.PositionCount()
		} else if blk.PositionCount() != positions {
			return nil, errors.NewAlignmentError(fmt.Sprintf("block %d has %d positions but block 0 has %d", i,
				blk.PositionCount(), positions))
		}
	}
	return &Page{blocks: blocks, positions: positions}, nil
}

// MustNewPage is for blocks that are aligned by construction
func MustNewPage(blocks ...*block.Block) *Page {
	page, err := NewPage(blocks...)
	if err != nil {
		panic(err)
	}
	return page
}

func (p *Page) ChannelCount() int {
	return len(p.blocks)
}

func (p *Page) PositionCount() int {
	return p.positions
}

func (p *Page) GetBlock(channel int) *block.Block {
	return p.blocks[channel]
}

// Blocks returns the blocks of the page. The returned slice must not be modified.
func (p *Page) Blocks() []*block.Block {
	return p.blocks
}

func (p *Page) Types() []common.Type {
	types := make([]common.Type, len(p.blocks))
	for i, blk := range p.blocks {
		types[i] = blk.Type()
	}
	return types
}

// DataSize returns the total number of value bytes across all blocks
func (p *Page) DataSize() int {
	size := 0
	for _, blk := range p.blocks {
		size += blk.DataSize()
	}
	return size
}

// Region returns a page over length positions starting at offset, sharing the blocks' storage
func (p *Page) Region(offset int, length int) (*Page, error) {
	regions := make([]*block.Block, len(p.blocks))
	for i, blk := range p.blocks {
		region, err := blk.Region(offset, length)
		if err != nil {
			return nil, err
		}
		regions[i] = region
	}
	return &Page{blocks: regions, positions: length}, nil
}

// GetRow returns the values of the row at pos as Go values, see block.Block.GetObject
func (p *Page) GetRow(pos int) []interface{} {
	row := make([]interface{}, len(p.blocks))
	for i, blk := range p.blocks {
		row[i] = blk.GetObject(pos)
	}
	return row
}

func (p *Page) String() string {
	return fmt.Sprintf("page[positions=%d,types=(%s)]", p.positions, common.TypesString(p.Types()))
}
