package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/henderiw/attreval/pkg/distance"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var attrType string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the metrics registered for each attribute type",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := loadRegistry(configPath)
			if err != nil {
				return err
			}
			return listMetrics(cmd.OutOrStdout(), reg, attrType)
		},
	}
	cmd.Flags().StringVarP(&attrType, "type", "t", "", "only list this attribute type")
	return cmd
}

func listMetrics(out io.Writer, reg *distance.Registry, attrType string) error {
	types := reg.Types()
	if attrType != "" {
		if _, err := reg.Has(attrType, distance.DefaultMetricName); err != nil {
			return err
		}
		types = []string{attrType}
	}

	w := tabwriter.NewWriter(out, tabMinWidth, tabWidth, tabPadding, ' ', 0)
	if _, err := fmt.Fprintln(w, "TYPE\tMETRIC\tKIND\tDEFAULT\tEXPLANATION"); err != nil {
		return err
	}
	for _, t := range types {
		names, err := reg.Names(t)
		if err != nil {
			return err
		}
		def := reg.DefaultMetric(t)
		for _, name := range names {
			m, err := reg.Lookup(t, name)
			if err != nil {
				return err
			}
			mark := ""
			if name == def {
				mark = "*"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t, m.Name(), m.Kind(), mark, m.Explanation()); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
