package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
	"github.com/squareup/blockexec/tpch"
)

const (
	metaPrefix byte = 'm'
	dataPrefix byte = 'd'
	metaSize        = 1 + 4 + 8
)

var nosyncWriteOptions = &pebble.WriteOptions{Sync: false}

// BlockStore keeps serialized column blocks in pebble. A column is stored once per encoding, each block under
// its own key so scans decode one block at a time.
//
// Keys are the prefix byte, the length prefixed table and column names and the encoding, data keys then add
// the big endian block index. The meta value of a column holds its type, block count and row count.
type BlockStore struct {
	pebble *pebble.DB
}

var _ tpch.BlocksProvider = &BlockStore{}

// Open opens or creates a store in dir. fs is usually vfs.Default, tests use vfs.NewMem().
func Open(dir string, fs vfs.FS) (*BlockStore, error) {
	peb, err := pebble.Open(dir, &pebble.Options{FS: fs})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log.Debugf("opened block store in %s", dir)
	return &BlockStore{pebble: peb}, nil
}

func (s *BlockStore) Close() error {
	return errors.WithStack(s.pebble.Close())
}

// ColumnInfo describes one stored encoding of a column
type ColumnInfo struct {
	Table    string
	Column   string
	Encoding block.Encoding
	Type     common.Type
	Blocks   int
	Rows     int64
}

func columnKey(prefix byte, tableName string, columnName string, encoding block.Encoding) []byte {
	key := make([]byte, 0, 16+len(tableName)+len(columnName))
	key = append(key, prefix)
	key = common.AppendStringToBufferBE(key, tableName)
	key = common.AppendStringToBufferBE(key, columnName)
	return append(key, byte(encoding))
}

func tableKey(prefix byte, tableName string) []byte {
	key := make([]byte, 0, 8+len(tableName))
	key = append(key, prefix)
	return common.AppendStringToBufferBE(key, tableName)
}

func blockKey(columnPrefix []byte, index int) []byte {
	key := make([]byte, 0, len(columnPrefix)+4)
	key = append(key, columnPrefix...)
	return common.AppendUint32ToBufferBE(key, uint32(index))
}

// PutColumn replaces the stored blocks of a column in the given encoding
func (s *BlockStore) PutColumn(tableName string, columnName string, encoding block.Encoding, typ common.Type,
	blocks []*block.Block) error {
	dataKey := columnKey(dataPrefix, tableName, columnName, encoding)
	batch := s.pebble.NewBatch()
	defer common.InvokeCloser(batch)
	if err := batch.DeleteRange(dataKey, common.IncrementBytesBigEndian(dataKey), nosyncWriteOptions); err != nil {
		return errors.WithStack(err)
	}
	var buff []byte
	var rows int64
	for i, blk := range blocks {
		if blk.Type() != typ {
			return errors.NewTypeMismatchError(tableName+"."+columnName, typ, blk.Type())
		}
		var err error
		buff, err = block.EncodeBlock(encoding, blk, buff[:0])
		if err != nil {
			return err
		}
		if err := batch.Set(blockKey(dataKey, i), buff, nosyncWriteOptions); err != nil {
			return errors.WithStack(err)
		}
		rows += int64(blk.PositionCount())
	}
	meta := make([]byte, 0, metaSize)
	meta = append(meta, byte(typ))
	meta = common.AppendUint32ToBufferLE(meta, uint32(len(blocks)))
	meta = common.AppendUint64ToBufferLE(meta, uint64(rows))
	if err := batch.Set(columnKey(metaPrefix, tableName, columnName, encoding), meta, nosyncWriteOptions); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(s.pebble.Apply(batch, nosyncWriteOptions))
}

// Load copies every column of tables from provider into the store, once per encoding
func (s *BlockStore) Load(provider tpch.BlocksProvider, tables []*tpch.Table, encodings ...block.Encoding) error {
	for _, table := range tables {
		for _, col := range table.Columns {
			for _, encoding := range encodings {
				iterable, err := provider.GetBlocks(table.Name, col.Name, encoding)
				if err != nil {
					return err
				}
				blocks, err := readAll(iterable)
				if err != nil {
					return err
				}
				if err := s.PutColumn(table.Name, col.Name, encoding, col.Type, blocks); err != nil {
					return err
				}
			}
		}
		log.Debugf("loaded table %s into block store with encodings %v", table.Name, encodings)
	}
	return nil
}

func readAll(iterable block.BlockIterable) ([]*block.Block, error) {
	iter, err := iterable.Iterator()
	if err != nil {
		return nil, err
	}
	var blocks []*block.Block
	for {
		blk, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if blk == nil {
			return blocks, nil
		}
		blocks = append(blocks, blk)
	}
}

// GetBlocks returns a BlockIterable which reads and decodes one block per call to Next
func (s *BlockStore) GetBlocks(tableName string, columnName string, encoding block.Encoding) (block.BlockIterable, error) {
	info, err := s.columnInfo(tableName, columnName, encoding)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errors.NewUnknownColumnError(tableName, columnName)
	}
	return &storedColumn{
		store:  s,
		info:   *info,
		prefix: columnKey(dataPrefix, tableName, columnName, encoding),
	}, nil
}

func (s *BlockStore) columnInfo(tableName string, columnName string, encoding block.Encoding) (*ColumnInfo, error) {
	meta, err := localGet(s.pebble, columnKey(metaPrefix, tableName, columnName, encoding))
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}
	info := decodeMeta(meta)
	info.Table = tableName
	info.Column = columnName
	info.Encoding = encoding
	return info, nil
}

func decodeMeta(meta []byte) *ColumnInfo {
	blocks, offset := common.ReadUint32FromBufferLE(meta, 1)
	rows, _ := common.ReadUint64FromBufferLE(meta, offset)
	return &ColumnInfo{Type: common.Type(meta[0]), Blocks: int(blocks), Rows: int64(rows)}
}

// Columns lists the stored columns of a table in key order
func (s *BlockStore) Columns(tableName string) ([]ColumnInfo, error) {
	prefix := tableKey(metaPrefix, tableName)
	iterOptions := &pebble.IterOptions{LowerBound: prefix, UpperBound: common.IncrementBytesBigEndian(prefix)}
	iter := s.pebble.NewIter(iterOptions)
	defer common.InvokeCloser(iter)
	var infos []ColumnInfo
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		key := iter.Key()
		columnName, offset := common.ReadStringFromBufferBE(key, len(prefix))
		info := decodeMeta(iter.Value())
		info.Table = tableName
		info.Column = columnName
		info.Encoding = block.Encoding(key[offset])
		infos = append(infos, *info)
	}
	return infos, errors.WithStack(iter.Error())
}

// DeleteTable removes every column of a table
func (s *BlockStore) DeleteTable(tableName string) error {
	batch := s.pebble.NewBatch()
	defer common.InvokeCloser(batch)
	for _, prefix := range []byte{metaPrefix, dataPrefix} {
		start := tableKey(prefix, tableName)
		if err := batch.DeleteRange(start, common.IncrementBytesBigEndian(start), nosyncWriteOptions); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(s.pebble.Apply(batch, nosyncWriteOptions))
}

func localGet(peb *pebble.DB, key []byte) ([]byte, error) {
	v, closer, err := peb.Get(key)
	defer common.InvokeCloser(closer)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	res := common.CopyByteSlice(v)
	return res, nil
}

type storedColumn struct {
	store  *BlockStore
	info   ColumnInfo
	prefix []byte
}

func (c *storedColumn) Type() common.Type {
	return c.info.Type
}

func (c *storedColumn) Iterator() (block.BlockIterator, error) {
	return &storedColumnIterator{column: c}, nil
}

type storedColumnIterator struct {
	column *storedColumn
	index  int
}

func (i *storedColumnIterator) Next() (*block.Block, error) {
	if i.index >= i.column.info.Blocks {
		return nil, nil
	}
	buff, err := localGet(i.column.store.pebble, blockKey(i.column.prefix, i.index))
	if err != nil {
		return nil, err
	}
	if buff == nil {
		return nil, errors.NewCorruptBlockError(fmt.Sprintf("missing block %d of %s.%s", i.index, i.column.info.Table,
			i.column.info.Column))
	}
	blk, err := block.DecodeBlock(buff)
	if err != nil {
		return nil, err
	}
	i.index++
	return blk, nil
}
