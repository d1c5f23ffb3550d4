package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"scim-patch/internal/common"
	"scim-patch/internal/config"
	"scim-patch/internal/patch"
	"scim-patch/internal/resource"
)

type applyFlags struct {
	resourceFlags
	patch  string
	diff   bool
	dryRun bool
	output string
	// noRollback keeps the applied prefix of a failed batch.
	noRollback bool
	lenient    []string
}

func newApplyCmd(g *globalFlags) *cobra.Command {
	f := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a patch document to a resource and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}

			return runApply(cmd.Context(), cmd, e, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.patch, "patch", "p", "", "Patch document, JSON or YAML ('-' for stdin) (required)")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Print a diff of the resource instead of the result")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Apply, report and revert without printing the result")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output format: json or yaml")
	cmd.Flags().BoolVar(&f.noRollback, "no-rollback", false, "Keep the operations applied before a failure")
	cmd.Flags().StringSliceVar(&f.lenient, "lenient", nil, "Lenient payload conversions, e.g. textual-bool,text-number or all")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

func runApply(ctx context.Context, cmd *cobra.Command, e *env, f *applyFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if cmd.Flags().Changed("diff") {
		e.cfg.Output.Diff = f.diff
	}

	if f.output != "" {
		e.cfg.Output.Format = f.output
	}

	if f.noRollback {
		rollback := false
		e.cfg.Patch.Rollback = &rollback
	}

	if err := e.cfg.Validate(); err != nil {
		return err
	}

	r, before, err := f.decodeTwice(cmd)
	if err != nil {
		return err
	}

	nodes, err := f.bind(cmd, e, r)
	if err != nil {
		return err
	}

	tr := patch.NewTracker(nodes,
		patch.WithLogger(e.log),
		patch.WithRollback(e.cfg.Patch.RollbackEnabled()))

	applyErr := tr.Apply(ctx)

	if e.cfg.Output.Diff {
		e.out.diff(before, r)
	}

	if f.dryRun && applyErr == nil {
		if err := tr.Revert(ctx); err != nil {
			applyErr = fmt.Errorf("dry run revert: %w", err)
		}
	}

	for _, n := range tr.Nodes() {
		e.status.node(n)
	}

	e.status.report(tr.Report())

	if applyErr != nil {
		return applyErr
	}

	if f.dryRun || e.cfg.Output.Diff {
		return nil
	}

	return e.out.value(r, e.cfg.Output.Format)
}

// decodeTwice decodes the resource and an untouched copy to diff against.
func (f *resourceFlags) decodeTwice(cmd *cobra.Command) (any, any, error) {
	r, err := f.decode(cmd)
	if err != nil {
		return nil, nil, err
	}

	data, err := encode(r, config.FormatJSON)
	if err != nil {
		return nil, nil, err
	}

	before, err := resource.Decode(f.kind, data)
	if err != nil {
		return nil, nil, err
	}

	return r, before, nil
}

func (f *applyFlags) bind(cmd *cobra.Command, e *env, r any) ([]*patch.Node, error) {
	doc, err := readInput(cmd, f.patch)
	if err != nil {
		return nil, err
	}

	lenient := e.cfg.Patch.Lenient
	if len(f.lenient) > 0 {
		lenient = f.lenient
	}

	categories, err := patch.ParseCategories(lenient...)
	if err != nil {
		return nil, err
	}

	nodes, err := patch.FromDocument(r, doc,
		patch.WithLogger(e.log),
		patch.WithCoercer(patch.JSONCoercer{Lenient: categories}))
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", f.patch, err)
	}

	if len(nodes) == 0 {
		e.log.Warn("patch document bound no nodes", "patch", f.patch)
	}

	return nodes, nil
}

type planFlags struct {
	applyFlags
	dump bool
}

// planEntry is what plan prints for a node.
type planEntry struct {
	Node      string
	Owner     string
	Attribute string
	Previous  any
	Value     any
}

func newPlanCmd(g *globalFlags) *cobra.Command {
	f := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the nodes a patch document binds to, without applying them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}

			return runPlan(cmd, e, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.patch, "patch", "p", "", "Patch document, JSON or YAML ('-' for stdin) (required)")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "Dump every bound node in full")
	cmd.Flags().StringSliceVar(&f.lenient, "lenient", nil, "Lenient payload conversions, e.g. textual-bool,text-number or all")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

func runPlan(cmd *cobra.Command, e *env, f *planFlags) error {
	r, err := f.decode(cmd)
	if err != nil {
		return err
	}

	nodes, err := f.bind(cmd, e, r)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		entry := planEntry{
			Node:      n.Label(),
			Owner:     common.TypeName(n.Attribute().Owner),
			Attribute: n.Attribute().Name,
			Previous:  n.Previous(),
			Value:     n.Value(),
		}

		if f.dump {
			e.out.printf("%s", spew.Sdump(entry))
			continue
		}

		e.out.printf("%s\n", entry.Node)
	}

	return nil
}
