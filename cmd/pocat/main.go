// Command pocat inspects and reformats gettext PO catalogs.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/romshark/pocatalog/gettext"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		os.Exit(1)
	}
}

var ErrInvalidIndex = errors.New("invalid record index")

// run executes the CLI with its own configuration so that
// invocations don't share flag or config state.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{v: viper.New(), stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pocat",
		Short:         "Inspect and reformat gettext PO catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			a.initLog()
			return nil
		},
	}
	cmd.PersistentFlags().Int("wrap-width",
		gettext.DefaultWrapWidth,
		"column at which values are folded")
	cmd.PersistentFlags().Bool("strict",
		false,
		"fail on malformed lines instead of skipping them")
	cmd.PersistentFlags().String("state",
		".pocat-state.yaml",
		"file the next command keeps its cursors in")
	cmd.PersistentFlags().String("config",
		"",
		"configuration file (default: .pocat.yaml in the working directory)")
	cmd.PersistentFlags().CountP("quiet",
		"q",
		"quiet mode")
	cmd.PersistentFlags().CountP("verbose",
		"v",
		"verbose mode")

	for _, name := range []string{
		"wrap-width", "strict", "state", "config", "quiet", "verbose",
	} {
		_ = a.v.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}

	cmd.AddCommand(
		(&listCommand{app: a}).Command(),
		(&showCommand{app: a}).Command(),
		(&nextCommand{app: a}).Command(),
		(&headerCommand{app: a}).Command(),
		(&foldCommand{app: a}).Command(),
		(&fmtCommand{app: a}).Command(),
	)
	return cmd
}

func (a *app) initConfig() error {
	a.v.SetEnvPrefix("POCAT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName(".pocat")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func (a *app) initLog() {
	f := new(log.TextFormatter)
	f.DisableTimestamp = true
	f.DisableLevelTruncation = true
	if file, ok := a.stderr.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		f.ForceColors = true
	}
	log.SetFormatter(f)
	log.SetOutput(a.stderr)

	verbose := a.v.GetInt("verbose")
	quiet := a.v.GetInt("quiet")
	switch {
	case verbose == 1:
		log.SetLevel(log.DebugLevel)
	case verbose > 1:
		log.SetLevel(log.TraceLevel)
	case quiet == 1:
		log.SetLevel(log.WarnLevel)
	case quiet > 1:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// openReader opens a catalog file. The caller closes the file.
func (a *app) openReader(path string) (*gettext.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := gettext.NewReader(gettext.NewLineStream(f), a.readerOptions(path)...)
	return r, f, nil
}

func (a *app) readerOptions(path string) []gettext.Option {
	return []gettext.Option{
		gettext.Strict(a.v.GetBool("strict")),
		gettext.WithFilename(path),
		gettext.WithLogger(log.StandardLogger()),
	}
}
