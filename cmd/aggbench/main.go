package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"
	"github.com/cockroachdb/pebble/vfs"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/bench"
	"github.com/squareup/blockexec/block"
	"github.com/squareup/blockexec/conf"
	"github.com/squareup/blockexec/errors"
	"github.com/squareup/blockexec/exec"
	"github.com/squareup/blockexec/functions"
	plog "github.com/squareup/blockexec/log"
	"github.com/squareup/blockexec/metrics/prometheus"
	"github.com/squareup/blockexec/storage"
	"github.com/squareup/blockexec/tpch"
)

type arguments struct {
	Config     kong.ConfigFlag `help:"Path to config file" type:"existingfile"`
	Log        plog.Config     `help:"Configuration for the logger" embed:"" prefix:"log-"`
	Engine     conf.Config     `help:"Engine and benchmark configuration" embed:"" prefix:""`
	Encoding   string          `help:"Encoding of the column blocks read by the benchmarks" enum:"RAW,RLE" default:"RAW"`
	Output     string          `help:"Format of the results" enum:"line,table" default:"table"`
	Seed       int64           `help:"Seed of the data generator" default:"1"`
	Print      bool            `help:"Print the output rows of each benchmark, ordered by group, after running them"`
	Benchmarks []string        `arg:"" optional:"" help:"Benchmarks to run, all of them if none are given"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	cfg := arguments{}
	parser, err := kong.New(&cfg, kong.Configuration(konghcl.Loader))
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = parser.Parse(args)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := cfg.Log.Configure(); err != nil {
		return err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}
	encoding, err := block.ParseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}
	dataset, err := tpch.NewGenerator(cfg.Seed).Generate(cfg.Engine.LineItemRows, cfg.Engine.BlockSize)
	if err != nil {
		return err
	}
	var provider tpch.BlocksProvider = dataset
	if cfg.Engine.DataDir != "" {
		store, err := storage.Open(cfg.Engine.DataDir, vfs.Default)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warnf("failed to close block store %v", err)
			}
		}()
		if err := store.Load(dataset, tpch.Tables, encoding); err != nil {
			return err
		}
		provider = store
	}

	metricsFactory := prometheus.NewFactory(cfg.Engine)
	if err := metricsFactory.Start(); err != nil {
		return err
	}
	defer func() {
		if err := metricsFactory.Stop(); err != nil {
			log.Warnf("failed to stop metrics %v", err)
		}
	}()
	env := &bench.Environment{
		Config:   &cfg.Engine,
		Provider: provider,
		Registry: functions.NewDefaultRegistry(),
		Encoding: encoding,
		NewStats: func(operatorName string) (exec.OperatorStats, error) {
			if cfg.Engine.MetricsEnabled {
				return exec.NewMetricsOperatorStats(metricsFactory, operatorName)
			}
			return exec.NewInMemoryOperatorStats(), nil
		},
	}
	runner := bench.NewRunner(env)
	names := cfg.Benchmarks
	if len(names) == 0 {
		names = runner.Names()
	}
	var writer bench.ResultWriter
	if cfg.Output == "line" {
		writer = bench.NewSimpleLineResultWriter(out)
	} else {
		writer = bench.NewTableResultWriter(out)
	}
	if _, err := runner.Run(names, writer); err != nil {
		return err
	}
	if cfg.Print {
		for _, name := range names {
			if _, err := fmt.Fprintf(out, "%s:\n", name); err != nil {
				return errors.WithStack(err)
			}
			if err := runner.PrintResults(name, out); err != nil {
				return err
			}
		}
	}
	return nil
}
