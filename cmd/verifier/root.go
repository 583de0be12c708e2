package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/i18n"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/internal/config"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/internal/logging"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/loader"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	lang       string
	logLevel   string
	refs       map[string]string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "verifier",
		Short:         "Verify JSON and YAML documents against YAML schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "configuration file")
	pf.StringVar(&g.lang, "lang", "", "message language (en, ja)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringToStringVar(&g.refs, "ref", nil, "register a schema for $ref as name=path (repeatable)")

	root.AddCommand(newCheckCmd(g), newPrintCmd(g))
	return root
}

// env is the state a subcommand runs with once flags and configuration
// are merged.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	reg    *schema.Registry
	loader *loader.Loader
}

// setup merges the configuration file with flags, which take precedence,
// and registers every referenced schema.
func (g *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	var cfg config.Config
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = g.lang
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if cfg.Schemas == nil {
		cfg.Schemas = map[string]string{}
	}
	for name, path := range g.refs {
		cfg.Schemas[name] = path
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Language != "" {
		i18n.SetLanguage(cfg.Language)
	}

	e := &env{
		cfg: cfg,
		log: logging.New(cmd.ErrOrStderr(), level),
		reg: schema.NewRegistry(),
	}
	e.loader = loader.New(e.reg)

	if err := registerSchemas(e, cfg.Schemas); err != nil {
		return nil, err
	}
	return e, nil
}

// registerSchemas loads schemas in name order. A schema whose $ref names one
// not registered yet is retried after the others, until a pass registers
// nothing new.
func registerSchemas(e *env, schemas map[string]string) error {
	pending := make([]string, 0, len(schemas))
	for name := range schemas {
		pending = append(pending, name)
	}
	sort.Strings(pending)
	for len(pending) > 0 {
		var (
			next  []string
			first error
		)
		for _, name := range pending {
			_, err := e.loader.LoadFile(schemas[name], name)
			switch {
			case err == nil:
				e.log.Debug("schema registered", "name", name, "path", schemas[name])
			case errors.Is(err, schema.ErrNotRegistered):
				next = append(next, name)
				if first == nil {
					first = fmt.Errorf("schema %q: %w", name, err)
				}
			default:
				return fmt.Errorf("schema %q: %w", name, err)
			}
		}
		if len(next) == len(pending) {
			return first
		}
		pending = next
	}
	return nil
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
