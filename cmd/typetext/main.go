package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/reoring/typetext"
	"github.com/reoring/typetext/format"
	_ "github.com/reoring/typetext/format/json"
	_ "github.com/reoring/typetext/format/jsv"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "convert":
		convertCmd(os.Args[2:])
	case "formats":
		fmt.Println(strings.Join(format.Names(), "\n"))
	case "version":
		fmt.Println("typetext", version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "typetext CLI\n\nUsage:\n  typetext convert -from json -to jsv [-config cfg.yaml] [-scope tc:camel,inv] [-log file] [-j N] [files...]\n  typetext formats\n  typetext version\n\nNotes:\n  - Without files, convert reads stdin and writes stdout.\n  - Documents are read untyped, so key order follows the input's sorted keys.")
}

func convertCmd(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var from, to, cfgPath, scope, logPath string
	var jobs int
	var verbose bool
	fs.StringVar(&from, "from", "json", "input format")
	fs.StringVar(&to, "to", "jsv", "output format")
	fs.StringVar(&cfgPath, "config", "", "YAML engine configuration")
	fs.StringVar(&scope, "scope", "", "config scope string applied after -config")
	fs.StringVar(&logPath, "log", "", "also write logs to this file (rotated)")
	fs.IntVar(&jobs, "j", 4, "files converted in parallel")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	_ = fs.Parse(args)

	src, ok := format.Lookup(from)
	if !ok {
		fatalf("unknown input format %q (have %s)", from, strings.Join(format.Names(), ", "))
	}
	dst, ok := format.Lookup(to)
	if !ok {
		fatalf("unknown output format %q (have %s)", to, strings.Join(format.Names(), ", "))
	}

	log := newLogger(logPath, verbose)
	defer func() { _ = log.Sync() }()

	cfg := typetext.DefaultConfig()
	if cfgPath != "" {
		f, err := os.Open(cfgPath)
		if err != nil {
			fatalf("open config: %v", err)
		}
		cfg, err = typetext.LoadConfig(f)
		_ = f.Close()
		if err != nil {
			fatalf("load config: %v", err)
		}
	}
	cfg, err := typetext.ParseConfigString(cfg, scope)
	if err != nil {
		fatalf("scope: %v", err)
	}
	cfg.ObjectsAsMaps = true
	cfg.SortMapKeys = true
	eng := typetext.New(typetext.WithConfig(cfg), typetext.WithLogger(log))

	files := lo.Filter(fs.Args(), func(p string, _ int) bool { return strings.TrimSpace(p) != "" })
	if len(files) == 0 {
		out, err := convert(eng, src, dst, os.Stdin)
		if err != nil {
			fatalf("convert stdin: %v", err)
		}
		fmt.Println(out)
		return
	}

	results := make([]string, len(files))
	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i, path := range files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out, err := convert(eng, src, dst, f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug("converted", zap.String("file", path), zap.Int("bytes", len(out)))
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fatalf("convert: %v", err)
	}
	for _, out := range results {
		fmt.Println(out)
	}
}

func convert(eng *typetext.Engine, src, dst format.Strategy, r io.Reader) (string, error) {
	var doc any
	if err := eng.Decode(r, src, &doc); err != nil {
		return "", err
	}
	b, err := eng.Marshal(dst, doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newLogger(path string, verbose bool) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)}
	if path != "" {
		rot := &lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, LocalTime: true}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rot), level))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
