package tpch

import (
	"math"
	"math/rand"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/errors"
)

var (
	orderStatuses   = []string{"F", "O", "P"}
	orderPriorities = []string{"1-URGENT", "2-HIGH", "3-MEDIUM", "4-NOT SPECIFIED", "5-LOW"}
	returnFlags     = []string{"A", "N", "R"}
	lineStatuses    = []string{"F", "O"}
	shipModes       = []string{"AIR", "FOB", "MAIL", "RAIL", "REG AIR", "SHIP", "TRUCK"}
)

const (
	maxLinesPerOrder = 7
	partCount        = 200000
	customerCount    = 15000
)

// Generator produces deterministic lineitem and orders data. Every order has between one and seven line
// items, orders are numbered from one.
type Generator struct {
	seed int64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed}
}

// Generate creates lineItemRows line items and the orders they belong to, stored in blocks of at most
// blockSize positions
func (g *Generator) Generate(lineItemRows int, blockSize int) (*Dataset, error) {
	if blockSize < 1 {
		return nil, errors.NewInvalidConfigurationError("BlockSize must be >= 1")
	}
	rnd := rand.New(rand.NewSource(g.seed)) //nolint:gosec
	lineItems := newTableBuilder(LineItem, blockSize)
	orders := newTableBuilder(Orders, blockSize)
	orderKey := int64(0)
	for lineItems.rows < lineItemRows {
		orderKey++
		lines := 1 + rnd.Intn(maxLinesPerOrder)
		if remaining := lineItemRows - lineItems.rows; lines > remaining {
			lines = remaining
		}
		totalPrice := 0.0
		for line := 1; line <= lines; line++ {
			partKey := 1 + rnd.Int63n(partCount)
			quantity := 1 + rnd.Int63n(50)
			extendedPrice := round2(float64(quantity) * partPrice(partKey))
			discount := float64(rnd.Intn(11)) / 100
			totalPrice += extendedPrice * (1 - discount)
			if err := lineItems.appendRow(orderKey, partKey, int64(line), quantity, extendedPrice, discount,
				returnFlags[rnd.Intn(len(returnFlags))], lineStatuses[rnd.Intn(len(lineStatuses))],
				shipModes[rnd.Intn(len(shipModes))]); err != nil {
				return nil, err
			}
		}
		if err := orders.appendRow(orderKey, 1+rnd.Int63n(customerCount), orderStatuses[rnd.Intn(len(orderStatuses))],
			round2(totalPrice), orderPriorities[rnd.Intn(len(orderPriorities))]); err != nil {
			return nil, err
		}
	}
	log.Debugf("generated %d lineitem rows and %d orders", lineItems.rows, orders.rows)
	return newDataset(lineItems.build(), orders.build()), nil
}

// partPrice follows the retail price formula of the TPC-H part table
func partPrice(partKey int64) float64 {
	return float64(90000+((partKey/10)%20001)+100*(partKey%1000)) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type tableBuilder struct {
	table     *Table
	blockSize int
	builders  []*block.Builder
	blocks    [][]*block.Block
	rows      int
}

func newTableBuilder(table *Table, blockSize int) *tableBuilder {
	builders := make([]*block.Builder, len(table.Columns))
	for i, col := range table.Columns {
		builders[i] = block.NewBuilder(col.Type, blockSize)
	}
	return &tableBuilder{
		table:     table,
		blockSize: blockSize,
		builders:  builders,
		blocks:    make([][]*block.Block, len(table.Columns)),
	}
}

func (t *tableBuilder) appendRow(values ...interface{}) error {
	for i, val := range values {
		if err := t.builders[i].AppendObject(val); err != nil {
			return err
		}
	}
	t.rows++
	if t.builders[0].PositionCount() == t.blockSize {
		t.flush()
	}
	return nil
}

func (t *tableBuilder) flush() {
	for i, builder := range t.builders {
		t.blocks[i] = append(t.blocks[i], builder.Build())
	}
}

func (t *tableBuilder) build() *TableData {
	if t.builders[0].PositionCount() > 0 {
		t.flush()
	}
	columns := make(map[string][]*block.Block, len(t.table.Columns))
	for i, col := range t.table.Columns {
		columns[col.Name] = t.blocks[i]
	}
	return &TableData{Table: t.table, Rows: t.rows, columns: columns}
}
