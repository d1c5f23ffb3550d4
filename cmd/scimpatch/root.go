package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"scim-patch/internal/config"
	"scim-patch/internal/resource"
)

// globalFlags are shared by every command. Flags the user set override the
// configuration file.
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	color      string
}

// env is what a command runs with once flags and configuration are merged.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	out    *printer
	status *printer
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "scimpatch",
		Short: "Apply SCIM patch operations to SCIM resources",
		Long: `scimpatch binds SCIM PatchOp (RFC 7644) or JSON Patch (RFC 6902) documents
to SCIM resources, applies them as one batch and rolls the batch back when an
operation fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "Configuration file (YAML)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&g.color, "color", "", "Colored output: auto, always or never")

	root.AddCommand(
		newApplyCmd(g),
		newPlanCmd(g),
		newSelectCmd(g),
		newFilterCmd(g),
	)

	return root
}

// load reads the configuration file, applies flag overrides and builds the
// logger and printers of cmd.
func (g *globalFlags) load(cmd *cobra.Command) (*env, error) {
	cfg := config.Default()

	if g.configFile != "" {
		var err error

		cfg, err = config.LoadFile(g.configFile)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}

	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}

	if flags.Changed("color") {
		cfg.Output.Color = g.color
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		log:    logger,
		out:    newPrinter(cmd.OutOrStdout(), cfg.Output.Color),
		status: newPrinter(cmd.ErrOrStderr(), cfg.Output.Color),
	}, nil
}

// resourceFlags select the resource a command works on.
type resourceFlags struct {
	kind string
	file string
}

func (r *resourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.kind, "kind", "k", "user", fmt.Sprintf("Resource kind %v", resource.Kinds()))
	cmd.Flags().StringVarP(&r.file, "resource", "r", "", "Resource file, JSON or YAML ('-' for stdin) (required)")
	_ = cmd.MarkFlagRequired("resource")
}

func (r *resourceFlags) decode(cmd *cobra.Command) (any, error) {
	data, err := readInput(cmd, r.file)
	if err != nil {
		return nil, err
	}

	return resource.Decode(r.kind, data)
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}
