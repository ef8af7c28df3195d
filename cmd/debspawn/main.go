package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/hnrobert/debspawn/internal/config"
	"github.com/hnrobert/debspawn/internal/console"
	"github.com/hnrobert/debspawn/internal/identity"
	"github.com/hnrobert/debspawn/internal/logger"
	"github.com/hnrobert/debspawn/internal/privilege"
)

func main() {
	if err := run(os.Args, os.Stdout); err != nil {
		logger.Error("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

type options struct {
	owner      string
	configPath string
	verbose    bool
	noUnicode  bool
	help       bool
	args       []string
}

func parseFlags(argv []string, stderr io.Writer) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("debspawn", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.owner, "owner", "", "user[:group] to act on behalf of for unprivileged operations")
	flagSet.StringVar(&opts.configPath, "config", getenvDefault("DEBSPAWN_CONFIG", config.DefaultPath()), "path to the configuration file")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flagSet.BoolVar(&opts.noUnicode, "no-unicode", false, "use only ASCII in output")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	var rest []string
	if len(argv) > 1 {
		rest = argv[1:]
	}
	if err := flagSet.Parse(rest); err != nil {
		return opts, flagSet, err
	}
	opts.args = flagSet.Args()
	return opts, flagSet, nil
}

func run(argv []string, stdout io.Writer) error {
	opts, flagSet, err := parseFlags(argv, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if opts.help || len(opts.args) == 0 {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.NewStore(opts.configPath).Get()
	if err != nil {
		return err
	}
	if err := setupLevel(cfg, opts.verbose); err != nil {
		return err
	}
	console.SetUnicodeAllowed(cfg.UnicodeAllowed() && !opts.noUnicode)

	ctrl := newController(privilege.Options{
		Identities: identity.Default(cfg.IdentityRoot),
		Helpers:    cfg.EscalationHelpers,
		Args:       argv,
	})
	// The log directory is usually only writable by root.
	if err := ctrl.EnsureRoot(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Dir, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups); err != nil {
		return err
	}

	ctx := context.Background()
	if opts.owner != "" {
		user, group := privilege.SplitOwner(opts.owner)
		if err := ctrl.SetOwningUser(ctx, user, group); err != nil {
			return err
		}
	}

	switch cmd := opts.args[0]; cmd {
	case "whoami":
		return cmdWhoami(ctrl, stdout)
	case "write-config":
		if len(opts.args) != 2 {
			return errors.New("usage: debspawn write-config <path>")
		}
		return cmdWriteConfig(ctrl, opts.args[1], stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setupLevel(cfg config.Config, verbose bool) error {
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if verbose {
		lvl = logger.LevelDebug
	}
	logger.SetLevel(lvl)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: debspawn [flags] <command>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  whoami               show the owner and the credentials used for unprivileged work\n")
	fmt.Fprintf(os.Stderr, "  write-config <path>  write the default configuration as the owner\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flagSet.PrintDefaults()
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
