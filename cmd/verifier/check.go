package main

import (
	"errors"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/i18n"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/rules"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/source"
)

type checkFlags struct {
	schemaPath      string
	dataPath        string
	format          string
	ignoreExcess    bool
	allowDuplicates bool
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	f := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a document against a schema",
		Long: `Verify a JSON or YAML document against a YAML schema and report the first
failure. Use --data - to read JSON from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, g, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.schemaPath, "schema", "", "schema file (YAML)")
	fl.StringVar(&f.dataPath, "data", "", "document to verify (.json, .yaml, .yml or - for JSON on stdin)")
	fl.StringVar(&f.format, "format", "text", "output format (text, json)")
	fl.BoolVar(&f.ignoreExcess, "ignore-excess", false, "accept keys the schema does not declare")
	fl.BoolVar(&f.allowDuplicates, "allow-duplicate-keys", false, "accept repeated JSON object keys (last wins)")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalFlags, f *checkFlags) error {
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}
	e, err := g.setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ignore-excess") {
		e.cfg.IgnoreExcess = f.ignoreExcess
	}
	if cmd.Flags().Changed("allow-duplicate-keys") {
		e.cfg.AllowDuplicateKeys = f.allowDuplicates
	}

	s, err := e.loader.LoadFile(f.schemaPath, "")
	if err != nil {
		return err
	}
	verify, err := s.Compile(rules.Mapper, schema.Options{IgnoreExcess: e.cfg.IgnoreExcess, Logger: e.log})
	if err != nil {
		return fmt.Errorf("compile %s: %w", f.schemaPath, err)
	}

	opts := source.Options{AllowDuplicates: e.cfg.AllowDuplicateKeys, MaxDepth: e.cfg.MaxDepth}
	var value any
	if f.dataPath == "-" {
		value, err = source.JSONReader(cmd.InOrStdin(), opts)
	} else {
		value, err = source.ReadFile(f.dataPath, opts)
	}
	var dup *source.DuplicateKeyError
	if errors.As(err, &dup) {
		return writeReport(cmd, f.format, duplicateReport(dup))
	}
	if err != nil {
		return err
	}

	valid, res, err := verify(cmd.Context(), value)
	if err != nil {
		return err
	}
	if valid {
		return writeReport(cmd, f.format, report{Valid: true})
	}
	return writeReport(cmd, f.format, resultReport(res))
}

// report is the printed outcome of one check.
type report struct {
	Valid          bool     `json:"valid"`
	Rule           string   `json:"rule,omitempty"`
	Params         any      `json:"params,omitempty"`
	Path           []string `json:"path,omitempty"`
	Pointer        string   `json:"pointer,omitempty"`
	ArrayItemIndex *int     `json:"arrayItemIndex,omitempty"`
	Value          any      `json:"value,omitempty"`
	Message        string   `json:"message,omitempty"`
}

func resultReport(res *schema.ValidationResultError) report {
	r := report{
		Rule:           res.RuleName,
		Params:         res.RuleParams,
		Path:           res.Path,
		Pointer:        res.Pointer(),
		ArrayItemIndex: res.ArrayItemIndex,
		Message:        res.Message(),
	}
	if !schema.IsMissing(res.Value) {
		r.Value = res.Value
	}
	return r
}

func duplicateReport(dup *source.DuplicateKeyError) report {
	return report{
		Rule:    "duplicate_key",
		Params:  dup.Key,
		Pointer: dup.Pointer,
		Message: i18n.T("duplicate_key", dup.Key, nil, nil),
	}
}

func writeReport(cmd *cobra.Command, format string, r report) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		b, err := j.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		writeLine(out, "%s", b)
	} else if r.Valid {
		writeLine(out, "valid")
	} else {
		line := fmt.Sprintf("invalid: %s: %s", r.Pointer, r.Message)
		if r.ArrayItemIndex != nil {
			line += fmt.Sprintf(" (item %d)", *r.ArrayItemIndex)
		}
		writeLine(out, "%s", strings.TrimSpace(line))
	}
	if !r.Valid {
		return errInvalid
	}
	return nil
}
