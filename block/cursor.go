package block

import (
	"fmt"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Cursor is a forward only reader over a single Block. A new Cursor is positioned before the first value, so
// AdvanceNextPosition must be called before any value is read. Reading from a cursor that is not on a valid
// position is a programming error and panics with an IllegalState ExecError.
type Cursor struct {
	block    *Block
	position int
}

func (c *Cursor) Type() common.Type {
	return c.block.typ
}

// AdvanceNextPosition moves to the next position and returns false once the block is exhausted
func (c *Cursor) AdvanceNextPosition() bool {
	if c.position >= c.block.positions {
		return false
	}
	c.position++
	return c.position < c.block.positions
}

// Position returns the current position, -1 before the first advance
func (c *Cursor) Position() int {
	return c.position
}

func (c *Cursor) IsValid() bool {
	return c.position >= 0 && c.position < c.block.positions
}

func (c *Cursor) IsFinished() bool {
	return c.position >= c.block.positions
}

// CheckReadable returns an error rather than panicking when the cursor is not on a valid position
func (c *Cursor) CheckReadable() error {
	if c.IsFinished() {
		return errors.NewIllegalStateError("cursor is finished")
	}
	if !c.IsValid() {
		return errors.NewIllegalStateError("cursor has not been advanced")
	}
	return nil
}

func (c *Cursor) IsNull() bool {
	c.checkReadable()
	return c.block.IsNull(c.position)
}

func (c *Cursor) GetInt64() int64 {
	c.checkReadable()
	return c.block.GetInt64(c.position)
}

func (c *Cursor) GetDouble() float64 {
	c.checkReadable()
	return c.block.GetDouble(c.position)
}

func (c *Cursor) GetBoolean() bool {
	c.checkReadable()
	return c.block.GetBoolean(c.position)
}

func (c *Cursor) GetBytes() []byte {
	c.checkReadable()
	return c.block.GetBytes(c.position)
}

func (c *Cursor) GetRawBytes() []byte {
	c.checkReadable()
	return c.block.GetRawBytes(c.position)
}

func (c *Cursor) GetObject() interface{} {
	c.checkReadable()
	return c.block.GetObject(c.position)
}

func (c *Cursor) String() string {
	return fmt.Sprintf("cursor[%s,position=%d]", c.block, c.position)
}

func (c *Cursor) checkReadable() {
	if err := c.CheckReadable(); err != nil {
		panic(err)
	}
}
