package exec

import (
	"bytes"

	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/twmb/murmur3"
)

const (
	keyNull    byte = 0
	keyNotNull byte = 1
)

// GroupByHash assigns a dense group id, in order of first appearance, to every distinct combination of values
// in the group channels. Keys are compared by their serialized form: a type tag and null flag per channel
// followed by the stored bytes of the value. Equal keys therefore mean bit equal values, so two DOUBLE keys
// are the same group exactly when their bits are equal, and all nulls of a channel fall in one group.
type GroupByHash struct {
	types    []common.Type
	channels []int
	// heads maps a key hash to the most recently created group with that hash, chain links to the previous one
	heads      map[uint64]int
	chain      []int
	keyData    []byte
	keyOffsets []int
	keys       []*block.Builder
	scratch    []byte
}

func NewGroupByHash(types []common.Type, channels []int, expectedGroups int) *GroupByHash {
	keys := make([]*block.Builder, len(types))
	for i, typ := range types {
		keys[i] = block.NewBuilder(typ, expectedGroups)
	}
	return &GroupByHash{
		types:      types,
		channels:   channels,
		heads:      make(map[uint64]int, expectedGroups),
		chain:      make([]int, 0, expectedGroups),
		keyOffsets: append(make([]int, 0, expectedGroups+1), 0),
		keys:       keys,
	}
}

func (g *GroupByHash) GroupCount() int {
	return len(g.chain)
}

// GetGroupIds returns the group id of every position of the page, creating groups for keys not seen before.
// groupIds is reused if it is large enough.
func (g *GroupByHash) GetGroupIds(page *Page, groupIds []int) []int {
	positions := page.PositionCount()
	if cap(groupIds) < positions {
		groupIds = make([]int, positions)
	}
	groupIds = groupIds[:positions]
	blocks := make([]*block.Block, len(g.channels))
	for i, channel := range g.channels {
		blocks[i] = page.GetBlock(channel)
	}
	for pos := 0; pos < positions; pos++ {
		g.scratch = g.serializeKey(blocks, pos, g.scratch[:0])
		groupIds[pos] = g.putIfAbsent(g.scratch, blocks, pos)
	}
	return groupIds
}

func (g *GroupByHash) serializeKey(blocks []*block.Block, pos int, buff []byte) []byte {
	for i, blk := range blocks {
		buff = append(buff, byte(g.types[i]))
		if blk.IsNull(pos) {
			buff = append(buff, keyNull)
			continue
		}
		buff = append(buff, keyNotNull)
		raw := blk.GetRawBytes(pos)
		if g.types[i].IsFixedWidth() {
			buff = append(buff, raw...)
		} else {
			buff = common.AppendBytesToBufferLE(buff, raw)
		}
	}
	return buff
}

func (g *GroupByHash) putIfAbsent(key []byte, blocks []*block.Block, pos int) int {
	hash := murmur3.Sum64(key)
	head, ok := g.heads[hash]
	if ok {
		for groupID := head; groupID != -1; groupID = g.chain[groupID] {
			if bytes.Equal(g.keyData[g.keyOffsets[groupID]:g.keyOffsets[groupID+1]], key) {
				return groupID
			}
		}
	} else {
		head = -1
	}
	groupID := len(g.chain)
	g.chain = append(g.chain, head)
	g.heads[hash] = groupID
	g.keyData = append(g.keyData, key...)
	g.keyOffsets = append(g.keyOffsets, len(g.keyData))
	for i, blk := range blocks {
		g.keys[i].AppendFrom(blk, pos)
	}
	return groupID
}

// BuildKeyBlocks returns one block per group channel holding the key of every group, indexed by group id
func (g *GroupByHash) BuildKeyBlocks() []*block.Block {
	blocks := make([]*block.Block, len(g.keys))
	for i, builder := range g.keys {
		blocks[i] = builder.Build()
	}
	return blocks
}
