package tpch

import (
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/common"
	"github.com/squareup/blockexec/errors"
)

const (
	OrdersTableName   = "orders"
	LineItemTableName = "lineitem"
)

type Column struct {
	Name string
	Type common.Type
}

type Table struct {
	Name    string
	Columns []Column
}

// Column returns the column with the given name
func (t *Table) Column(name string) (Column, error) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, nil
		}
	}
	return Column{}, errors.NewUnknownColumnError(t.Name, name)
}

var Orders = &Table{
	Name: OrdersTableName,
	Columns: []Column{
		{"orderkey", common.TypeBigInt},
		{"custkey", common.TypeBigInt},
		{"orderstatus", common.TypeVarchar},
		{"totalprice", common.TypeDouble},
		{"orderpriority", common.TypeVarchar},
	},
}

var LineItem = &Table{
	Name: LineItemTableName,
	Columns: []Column{
		{"orderkey", common.TypeBigInt},
		{"partkey", common.TypeBigInt},
		{"linenumber", common.TypeBigInt},
		{"quantity", common.TypeBigInt},
		{"extendedprice", common.TypeDouble},
		{"discount", common.TypeDouble},
		{"returnflag", common.TypeVarchar},
		{"linestatus", common.TypeVarchar},
		{"shipmode", common.TypeVarbinary},
	},
}

var Tables = []*Table{Orders, LineItem}

// BlocksProvider supplies the blocks of a column of a table in a given encoding. All columns of one table have
// the same number of positions in the same row order.
type BlocksProvider interface {
	GetBlocks(tableName string, columnName string, encoding block.Encoding) (block.BlockIterable, error)
}
