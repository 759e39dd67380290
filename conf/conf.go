package conf

import (
	"fmt"

	"github.com/squareup/blockexec/errors"
)

const (
	DefaultPageSize              = 1024
	DefaultExpectedGroups        = 10000
	DefaultBlockSize             = 4096
	DefaultLineItemRows          = 100000
	DefaultWarmupIterations      = 5
	DefaultMeasuredIterations    = 25
	DefaultMetricsHTTPListenAddr = "localhost:2112"
	MaxPageSize                  = 1 << 20
)

type Config struct {
	PageSize              int    `json:"page_size,omitempty" help:"Maximum number of positions in a page emitted by hash aggregation" default:"1024"`
	ExpectedGroups        int    `json:"expected_groups,omitempty" help:"Hint used to pre-size the group hash table" default:"10000"`
	MaxAlignedPageSize    int    `json:"max_aligned_page_size,omitempty" help:"Maximum number of positions in an aligned page, 0 means no limit" default:"0"`
	BlockSize             int    `json:"block_size,omitempty" help:"Number of positions per block when generating and storing columns" default:"4096"`
	LineItemRows          int    `json:"line_item_rows,omitempty" help:"Number of generated lineitem rows" default:"100000"`
	DataDir               string `json:"data_dir,omitempty" help:"Directory for the column block store, in memory if empty" default:""`
	WarmupIterations      int    `json:"warmup_iterations,omitempty" help:"Number of benchmark iterations that are not measured" default:"5"`
	MeasuredIterations    int    `json:"measured_iterations,omitempty" help:"Number of measured benchmark iterations" default:"25"`
	MetricsEnabled        bool   `json:"metrics_enabled,omitempty" help:"Export operator statistics to prometheus"`
	MetricsHTTPListenAddr string `json:"metrics_http_listen_addr,omitempty" help:"Listen address of the prometheus endpoint" default:"localhost:2112"`
}

func (c *Config) Validate() error { //nolint:gocyclo
	if c.PageSize < 1 {
		return errors.NewInvalidConfigurationError("PageSize must be >= 1")
	}
	if c.PageSize > MaxPageSize {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("PageSize must be <= %d", MaxPageSize))
	}
	if c.ExpectedGroups < 0 {
		return errors.NewInvalidConfigurationError("ExpectedGroups must be >= 0")
	}
	if c.MaxAlignedPageSize < 0 {
		return errors.NewInvalidConfigurationError("MaxAlignedPageSize must be >= 0")
	}
	if c.BlockSize < 1 {
		return errors.NewInvalidConfigurationError("BlockSize must be >= 1")
	}
	if c.LineItemRows < 0 {
		return errors.NewInvalidConfigurationError("LineItemRows must be >= 0")
	}
	if c.WarmupIterations < 0 {
		return errors.NewInvalidConfigurationError("WarmupIterations must be >= 0")
	}
	if c.MeasuredIterations < 1 {
		return errors.NewInvalidConfigurationError("MeasuredIterations must be >= 1")
	}
	if c.MetricsEnabled && c.MetricsHTTPListenAddr == "" {
		return errors.NewInvalidConfigurationError("MetricsHTTPListenAddr must be specified")
	}
	return nil
}

func NewDefaultConfig() *Config {
	return &Config{
		PageSize:              DefaultPageSize,
		ExpectedGroups:        DefaultExpectedGroups,
		BlockSize:             DefaultBlockSize,
		LineItemRows:          DefaultLineItemRows,
		WarmupIterations:      DefaultWarmupIterations,
		MeasuredIterations:    DefaultMeasuredIterations,
		MetricsHTTPListenAddr: DefaultMetricsHTTPListenAddr,
	}
}

// NewTestConfig returns a config with small sizes so tests exercise page and block boundaries
func NewTestConfig() *Config {
	return &Config{
		PageSize:           16,
		ExpectedGroups:     8,
		BlockSize:          7,
		LineItemRows:       1000,
		WarmupIterations:   0,
		MeasuredIterations: 1,
	}
}
