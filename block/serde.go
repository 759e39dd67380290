package block

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

// Encoding is the serialized layout of a block
type Encoding byte

const (
	EncodingUnknown Encoding = iota
	// EncodingRaw stores every value, preceded by a null bitmap
	EncodingRaw
	// EncodingRLE stores runs of equal adjacent values, a null run carries no value
	EncodingRLE
)

const headerSize = 1 + 1 + 4

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "RAW"
	case EncodingRLE:
		return "RLE"
	default:
		return "UNKNOWN"
	}
}

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToUpper(s) {
	case "RAW":
		return EncodingRaw, nil
	case "RLE":
		return EncodingRLE, nil
	default:
		return EncodingUnknown, errors.Errorf("unknown block encoding %s", s)
	}
}

// EncodeBlock appends the serialized form of blk to buffer
func EncodeBlock(encoding Encoding, blk *Block, buffer []byte) ([]byte, error) {
	buffer = append(buffer, byte(encoding), byte(blk.typ))
	buffer = common.AppendUint32ToBufferLE(buffer, uint32(blk.positions))
	switch encoding {
	case EncodingRaw:
		return encodeRaw(blk, buffer)
	case EncodingRLE:
		return encodeRLE(blk, buffer), nil
	default:
		return nil, errors.NewUnknownBlockEncodingError(byte(encoding))
	}
}

func encodeRaw(blk *Block, buffer []byte) ([]byte, error) {
	var nullBytes []byte
	if blk.NullCount() > 0 {
		nulls := NewNulls()
		for i := 0; i < blk.positions; i++ {
			if blk.IsNull(i) {
				nulls.Add(i)
			}
		}
		var err error
		nullBytes, err = nulls.ToBytes()
		if err != nil {
			return nil, err
		}
	}
	buffer = common.AppendBytesToBufferLE(buffer, nullBytes)
	if size := blk.typ.FixedSize(); size > 0 {
		start := blk.offset * size
		return append(buffer, blk.fixed[start:start+blk.positions*size]...), nil
	}
	for i := 0; i < blk.positions; i++ {
		buffer = common.AppendBytesToBufferLE(buffer, blk.GetRawBytes(i))
	}
	return buffer, nil
}

func encodeRLE(blk *Block, buffer []byte) []byte {
	runsPos := len(buffer)
	buffer = common.AppendUint32ToBufferLE(buffer, 0)
	runs := 0
	pos := 0
	for pos < blk.positions {
		null := blk.IsNull(pos)
		raw := blk.GetRawBytes(pos)
		runLength := 1
		for pos+runLength < blk.positions && sameValue(blk, pos+runLength, null, raw) {
			runLength++
		}
		buffer = common.AppendUint32ToBufferLE(buffer, uint32(runLength))
		if null {
			buffer = append(buffer, 1)
		} else {
			buffer = append(buffer, 0)
			buffer = appendValue(blk.typ, raw, buffer)
		}
		runs++
		pos += runLength
	}
	runsBytes := common.AppendUint32ToBufferLE(nil, uint32(runs))
	copy(buffer[runsPos:], runsBytes)
	return buffer
}

func sameValue(blk *Block, pos int, null bool, raw []byte) bool {
	if blk.IsNull(pos) {
		return null
	}
	return !null && bytes.Equal(blk.GetRawBytes(pos), raw)
}

func appendValue(typ common.Type, raw []byte, buffer []byte) []byte {
	if typ.IsFixedWidth() {
		return append(buffer, raw...)
	}
	return common.AppendBytesToBufferLE(buffer, raw)
}

// DecodeBlock deserializes a block written by EncodeBlock. The returned block may reference buffer, which must
// not be modified afterwards.
func DecodeBlock(buffer []byte) (blk *Block, err error) {
	if len(buffer) < headerSize {
		return nil, errors.NewCorruptBlockError(fmt.Sprintf("block of %d bytes is too small", len(buffer)))
	}
	defer func() {
		// a truncated buffer shows up as an out of range slice
		if r := recover(); r != nil {
			blk = nil
			err = errors.NewCorruptBlockError(fmt.Sprintf("%v", r))
		}
	}()
	encoding := Encoding(buffer[0])
	typ := common.Type(buffer[1])
	if _, ok := common.TypesByName[typ.String()]; !ok {
		return nil, errors.NewCorruptBlockError(fmt.Sprintf("unknown type %d", buffer[1]))
	}
	positions, offset := common.ReadUint32FromBufferLE(buffer, 2)
	switch encoding {
	case EncodingRaw:
		return decodeRaw(typ, int(positions), buffer, offset)
	case EncodingRLE:
		return decodeRLE(typ, int(positions), buffer, offset)
	default:
		return nil, errors.NewUnknownBlockEncodingError(byte(encoding))
	}
}

func decodeRaw(typ common.Type, positions int, buffer []byte, offset int) (*Block, error) {
	nullBytes, offset := common.ReadBytesFromBufferLE(buffer, offset)
	var nulls *Nulls
	if len(nullBytes) > 0 {
		var err error
		nulls, err = NullsFromBytes(nullBytes)
		if err != nil {
			return nil, err
		}
	}
	if size := typ.FixedSize(); size > 0 {
		end := offset + positions*size
		if end != len(buffer) {
			return nil, errors.NewCorruptBlockError(fmt.Sprintf("expected %d value bytes, found %d", positions*size, len(buffer)-offset))
		}
		return &Block{typ: typ, positions: positions, fixed: buffer[offset:end], nulls: nulls}, nil
	}
	builder := NewBuilder(typ, positions)
	for i := 0; i < positions; i++ {
		var val []byte
		val, offset = common.ReadBytesFromBufferLE(buffer, offset)
		builder.AppendBytes(val)
	}
	blk := builder.Build()
	blk.nulls = nulls
	return blk, nil
}

func decodeRLE(typ common.Type, positions int, buffer []byte, offset int) (*Block, error) {
	runs, offset := common.ReadUint32FromBufferLE(buffer, offset)
	builder := NewBuilder(typ, positions)
	size := typ.FixedSize()
	for i := 0; i < int(runs); i++ {
		var runLength uint32
		runLength, offset = common.ReadUint32FromBufferLE(buffer, offset)
		if builder.PositionCount()+int(runLength) > positions {
			return nil, errors.NewCorruptBlockError(fmt.Sprintf("run of %d positions overflows block of %d positions",
				runLength, positions))
		}
		null := buffer[offset] == 1
		offset++
		var raw []byte
		if !null {
			if size > 0 {
				raw = buffer[offset : offset+size]
				offset += size
			} else {
				raw, offset = common.ReadBytesFromBufferLE(buffer, offset)
			}
		}
		for j := 0; j < int(runLength); j++ {
			if null {
				builder.AppendNull()
			} else {
				builder.AppendRaw(raw)
			}
		}
	}
	if builder.PositionCount() != positions {
		return nil, errors.NewCorruptBlockError(fmt.Sprintf("expected %d positions, decoded %d", positions, builder.PositionCount()))
	}
	return builder.Build(), nil
}
