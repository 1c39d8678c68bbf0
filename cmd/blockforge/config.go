// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultMempoolFile = "data/mempool.csv"
	defaultOutDir      = "solutions"
	defaultDebugLevel  = "info"
)

// config defines the configuration options for blockforge.
//
// See loadConfig for details on the configuration load process.
type config struct {
	Mempool    string `short:"m" long:"mempool" description:"Path to the candidate pool description file"`
	Required   string `short:"r" long:"required" description:"Hex txid that must be included in the block and proven"`
	TxList     string `long:"txlist" description:"Optional ordered txid list to commit instead of the freshly selected block"`
	OutDir     string `short:"o" long:"outdir" description:"Directory to write the solution files to"`
	MaxWeight  int64  `long:"maxweight" description:"Block weight budget (default: from pool params)"`
	Workers    int    `long:"workers" description:"Number of mining worker goroutines (default: one per CPU core)"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	ShowVer    bool   `short:"V" long:"version" description:"Display version information and exit"`
}

// validLogLevels is the set of debug levels loadConfig accepts.
var validLogLevels = map[string]struct{}{
	"trace":    {},
	"debug":    {},
	"info":     {},
	"warn":     {},
	"error":    {},
	"critical": {},
}

// loadConfig initializes and parses the config using command line options.
func loadConfig() (*config, error) {
	cfg := config{
		Mempool:    defaultMempoolFile,
		OutDir:     defaultOutDir,
		DebugLevel: defaultDebugLevel,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	if _, ok := validLogLevels[cfg.DebugLevel]; !ok {
		return nil, fmt.Errorf("the specified debug level [%v] is "+
			"invalid", cfg.DebugLevel)
	}

	if cfg.Required == "" && !cfg.ShowVer {
		return nil, fmt.Errorf("the required txid option must be " +
			"specified")
	}

	return &cfg, nil
}
