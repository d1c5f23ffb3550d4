package main

import (
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"scim-patch/internal/accessor"
	"scim-patch/internal/filter"
	"scim-patch/internal/path"
	"scim-patch/internal/resource"
)

type selectFlags struct {
	resourceFlags
	output string
}

func newSelectCmd(g *globalFlags) *cobra.Command {
	f := &selectFlags{}

	cmd := &cobra.Command{
		Use:   "select PATH",
		Short: "Print the values an attribute path reaches in a resource",
		Example: `  scimpatch select -r bjensen.json 'emails[type eq "work"].value'
  scimpatch select -k group -r admins.yaml members.display`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}

			if f.output != "" {
				e.cfg.Output.Format = f.output
			}

			if err := e.cfg.Validate(); err != nil {
				return err
			}

			r, err := f.decode(cmd)
			if err != nil {
				return err
			}

			p, err := path.Parse(args[0])
			if err != nil {
				return err
			}

			values, err := path.NewResolver().Values(p, r)
			if err != nil {
				return err
			}

			e.log.Debug("selected", "path", p.String(), "values", len(values))

			for _, v := range values {
				if err := e.out.value(accessor.Interface(v), e.cfg.Output.Format); err != nil {
					return err
				}
			}

			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output format: json or yaml")

	return cmd
}

func newFilterCmd(g *globalFlags) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "filter TEXT...",
		Short: "Parse a filter and print its canonical form",
		Long: `filter parses a SCIM filter and prints it in canonical form. With --kind the
filter is also checked against the attributes of that resource kind.`,
		Example: `  scimpatch filter 'userName Eq "bjensen" and not (emails pr)'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}

			expr, err := filter.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if kind != "" {
				r, err := resource.New(kind)
				if err != nil {
					return err
				}

				if _, err := filter.Compile(expr, reflect.TypeOf(r)); err != nil {
					return err
				}
			}

			e.out.printf("%s\n", expr)

			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Check the filter against a resource kind")

	return cmd
}
