package tpch

import (
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/errors"
)

// TableData holds the generated blocks of every column of a table
type TableData struct {
	Table   *Table
	Rows    int
	columns map[string][]*block.Block
}

// Blocks returns the blocks of a column
func (t *TableData) Blocks(columnName string) ([]*block.Block, error) {
	blocks, ok := t.columns[columnName]
	if !ok {
		return nil, errors.NewUnknownColumnError(t.Table.Name, columnName)
	}
	return blocks, nil
}

// Dataset is an in memory BlocksProvider. Its blocks are already decoded, so any known encoding returns the
// same blocks.
type Dataset struct {
	tables map[string]*TableData
}

var _ BlocksProvider = &Dataset{}

func newDataset(tables ...*TableData) *Dataset {
	d := &Dataset{tables: make(map[string]*TableData, len(tables))}
	for _, t := range tables {
		d.tables[t.Table.Name] = t
	}
	return d
}

func (d *Dataset) Table(tableName string) (*TableData, error) {
	t, ok := d.tables[tableName]
	if !ok {
		return nil, errors.Errorf("unknown table %s", tableName)
	}
	return t, nil
}

func (d *Dataset) GetBlocks(tableName string, columnName string, encoding block.Encoding) (block.BlockIterable, error) {
	if encoding != block.EncodingRaw && encoding != block.EncodingRLE {
		return nil, errors.NewUnknownBlockEncodingError(byte(encoding))
	}
	t, err := d.Table(tableName)
	if err != nil {
		return nil, err
	}
	col, err := t.Table.Column(columnName)
	if err != nil {
		return nil, err
	}
	blocks, err := t.Blocks(columnName)
	if err != nil {
		return nil, err
	}
	return block.NewIterable(col.Type, blocks...), nil
}
