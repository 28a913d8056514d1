package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/cabinet/internal/config"
	"github.com/zeusync/cabinet/internal/core/asset"
	"github.com/zeusync/cabinet/internal/core/session"
	"github.com/zeusync/cabinet/internal/injector"
)

const usage = `cabinet inspects and edits asset cabinets.

Usage:
  cabinet [options] dump <file>...
  cabinet [options] verify <file>
  cabinet [options] unresolved <file>...
  cabinet [options] clone <src> <gameobject-path-id> <dst>

Options:
`

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("cabinet", flag.ContinueOnError)
	flagSet.SetOutput(errOut)
	flagSet.Usage = func() {
		fmt.Fprint(errOut, usage)
		flagSet.PrintDefaults()
	}
	configPath := flagSet.String("config", "", "Path to a YAML config file.")
	logLevel := flagSet.String("log-level", "", "Override the configured log level.")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return &ExitError{Code: 2}
	}

	cfg, err := loadConfig(*configPath, *logLevel)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	s := injector.InitializeSession(cfg)
	defer func() { _ = s.Close() }()

	cmd, rest := flagSet.Arg(0), flagSet.Args()[1:]
	switch cmd {
	case "dump":
		return dump(ctx, s, out, rest)
	case "verify":
		return verify(s, out, rest)
	case "unresolved":
		return unresolved(ctx, s, out, rest)
	case "clone":
		return clone(s, out, rest)
	default:
		flagSet.Usage()
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cmd)}
	}
}

func loadConfig(path, level string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if level != "" {
		cfg.Log.Level = level
	}
	return cfg, cfg.Validate()
}

func needArgs(cmd string, args []string, n int, exact bool) error {
	if len(args) < n || (exact && len(args) != n) {
		return &ExitError{Code: 2, Message: fmt.Sprintf("%s: wrong number of arguments, see -h", cmd)}
	}
	return nil
}

func dump(ctx context.Context, s *session.Session, out io.Writer, args []string) error {
	if err := needArgs("dump", args, 1, false); err != nil {
		return err
	}
	cabinets, err := s.LoadFiles(ctx, args...)
	if err != nil {
		return err
	}
	for i, c := range cabinets {
		if i > 0 {
			fmt.Fprintln(out, "---")
		}
		if err = c.WriteYAML(out); err != nil {
			return err
		}
	}
	return nil
}

// verify checks that re-encoding the cabinet reproduces the file byte for byte.
func verify(s *session.Session, out io.Writer, args []string) error {
	if err := needArgs("verify", args, 1, true); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	c, err := s.NewCabinet(filepath.Base(args[0]))
	if err != nil {
		return err
	}
	if err = c.Load(bytes.NewReader(data)); err != nil {
		return err
	}
	got, err := c.Digest()
	if err != nil {
		return err
	}
	want := xxhash.Sum64(data)
	if got != want {
		return &ExitError{Code: 3, Message: fmt.Sprintf("%s: re-encoded digest %016x, file digest %016x", args[0], got, want)}
	}
	fmt.Fprintf(out, "%s: ok, %d objects, digest %016x\n", args[0], c.Len(), want)
	return nil
}

func unresolved(ctx context.Context, s *session.Session, out io.Writer, args []string) error {
	if err := needArgs("unresolved", args, 1, false); err != nil {
		return err
	}
	if _, err := s.LoadFiles(ctx, args...); err != nil {
		return err
	}
	warnings := s.Unresolved()
	for _, w := range warnings {
		fmt.Fprintln(out, w.Error())
	}
	if len(warnings) > 0 {
		return &ExitError{Code: 3}
	}
	return nil
}

// clone copies a GameObject and its hierarchy from src into a new cabinet
// saved at dst.
func clone(s *session.Session, out io.Writer, args []string) error {
	if err := needArgs("clone", args, 3, true); err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("clone: bad path id %q", args[1])}
	}
	src, err := s.Open(args[0])
	if err != nil {
		return err
	}
	obj, err := src.Lookup(asset.PathID(id))
	if err != nil {
		return err
	}
	g, ok := obj.(*asset.GameObject)
	if !ok {
		return fmt.Errorf("clone: object %d is a %s, not a GameObject", id, obj.ClassID2())
	}

	dst, err := s.NewCabinet(filepath.Base(args[2]))
	if err != nil {
		return err
	}
	copied, err := g.Clone(dst)
	if err != nil {
		return err
	}
	if err = dst.SaveFile(args[2]); err != nil {
		return err
	}
	fmt.Fprintf(out, "cloned %q (%d) into %s as %d, %d objects\n",
		g.Name, g.PathID(), args[2], copied.PathID(), dst.Len())
	return nil
}
