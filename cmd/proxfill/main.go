package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wdm0006/proxfill/pkg/frame"
	"github.com/wdm0006/proxfill/pkg/io/csvio"
	"github.com/wdm0006/proxfill/pkg/io/parquetio"
	"github.com/wdm0006/proxfill/pkg/plotio"
	"github.com/wdm0006/proxfill/pkg/proxfill"
)

var version = "0.1.0-dev"

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to imputation config (JSON, TOML or YAML)")
	verbose := flag.Bool("verbose", false, "Log progress to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println("proxfill", version)
		return
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "no config provided; nothing to do. try --config <file> or --version")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Target == "" {
		fmt.Fprintln(os.Stderr, "config is missing the target column")
		os.Exit(2)
	}

	data, err := readInput(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts, err := imputerOptions(cfg, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	im, err := proxfill.New(cfg.Target, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := im.Run(context.Background(), data); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.PlotsDir != "" {
		if err := plotio.SaveHistories(cfg.PlotsDir, "convergent", im.ConvergedHistories()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := plotio.SaveHistories(cfg.PlotsDir, "divergent", im.DivergentHistories()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func readInput(cfg Config) (*frame.Frame, error) {
	typ := cfg.Input.Type
	if typ == "" {
		if strings.EqualFold(filepath.Ext(cfg.Input.Path), ".parquet") {
			typ = "parquet"
		} else {
			typ = "csv"
		}
	}
	switch typ {
	case "csv":
		delim := rune(0)
		if cfg.Input.Delimiter != "" {
			delim = rune(cfg.Input.Delimiter[0])
		}
		return csvio.ReadFile(cfg.Input.Path, csvio.ReaderOptions{
			HasHeader:  cfg.Input.HasHeader,
			Delimiter:  delim,
			SampleRows: 100,
		})
	case "parquet":
		return parquetio.ReadFile(cfg.Input.Path)
	default:
		return nil, fmt.Errorf("unsupported input type %q", typ)
	}
}

func imputerOptions(cfg Config, verbose bool) ([]proxfill.Option, error) {
	ec, err := cfg.ensembleConfig()
	if err != nil {
		return nil, err
	}
	opts := []proxfill.Option{proxfill.WithEnsembleConfig(ec)}
	if cfg.Rounds > 0 {
		opts = append(opts, proxfill.WithRounds(cfg.Rounds))
	}
	if cfg.Window > 0 {
		opts = append(opts, proxfill.WithWindow(cfg.Window))
	}
	if cfg.Decimals > 0 {
		opts = append(opts, proxfill.WithDecimals(cfg.Decimals))
	}
	if cfg.Resilience > 0 {
		opts = append(opts, proxfill.WithResilience(cfg.Resilience))
	}
	if len(cfg.Forbidden) > 0 {
		opts = append(opts, proxfill.WithForbidden(cfg.Forbidden...))
	}
	if len(cfg.Ordinal) > 0 {
		opts = append(opts, proxfill.WithOrdinal(cfg.Ordinal...))
	}
	if cfg.Output.Path != "" {
		opts = append(opts, proxfill.WithOutput(cfg.Output.Path))
	}
	if verbose {
		opts = append(opts, proxfill.WithLogf(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	}
	return opts, nil
}
