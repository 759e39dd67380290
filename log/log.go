package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/blockexec/errors"
)

var (
	outputLock sync.Mutex
	// logFile is the file the global logger currently writes to, if any
	logFile *os.File
)

// Config contains the configuration for the global logger.
type Config struct {
	Format string `help:"Format to write log lines in" enum:"text,json" default:"text"`
	Level  string `help:"Lowest log level that will be emitted" enum:"trace,debug,info,warn,error" default:"info"`
	File   string `help:"File to append logs to. If left blank, or '-', logs go to stderr" default:"-"`
	Caller bool   `help:"Include the calling function in every log line"`
}

// Configure the global logger. Logs default to stderr as stdout carries benchmark results. Nothing is changed if
// any setting is invalid.
func (cfg *Config) Configure() error {
	formatter, err := cfg.formatter()
	if err != nil {
		return err
	}
	level := log.InfoLevel
	if cfg.Level != "" {
		level, err = log.ParseLevel(cfg.Level)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	var out io.Writer = os.Stderr
	var file *os.File
	if cfg.File != "" && cfg.File != "-" {
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return errors.WithStack(err)
		}
		out = file
	}
	outputLock.Lock()
	defer outputLock.Unlock()
	log.SetFormatter(formatter)
	log.SetLevel(level)
	log.SetReportCaller(cfg.Caller)
	log.SetOutput(out)
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			log.Warnf("failed to close previous log file %v", err)
		}
	}
	logFile = file
	return nil
}

func (cfg *Config) formatter() (log.Formatter, error) {
	switch cfg.Format {
	case "", "text":
		return &log.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &log.JSONFormatter{}, nil
	default:
		return nil, errors.NewInvalidConfigurationError(fmt.Sprintf("log format must be either text or json, not %s", cfg.Format))
	}
}
