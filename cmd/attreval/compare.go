package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/henderiw/attreval/pkg/batch"
	"github.com/henderiw/attreval/pkg/measure"
	"github.com/henderiw/attreval/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"
)

const (
	tabMinWidth = 0
	tabWidth    = 4
	tabPadding  = 2
)

type compareOptions struct {
	input       string
	measure     string
	selector    string
	workers     int
	dumpMetrics bool
}

func newCompareCmd() *cobra.Command {
	o := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare target and candidate timelines listed in an input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), o)
		},
	}
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "YAML file with the pairs to compare")
	cmd.Flags().StringVarP(&o.measure, "measure", "m", "", "name of a measure from the config file used for every pair")
	cmd.Flags().StringVarP(&o.selector, "selector", "l", "", "only report pairs whose labels match, e.g. video=a,kind!=static")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "number of concurrent comparisons (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&o.dumpMetrics, "dump-metrics", false, "write prometheus metrics to stderr after the run")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runCompare(ctx context.Context, out, errOut io.Writer, o *compareOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sel := labels.Everything()
	if o.selector != "" {
		var err error
		if sel, err = labels.Parse(o.selector); err != nil {
			return fmt.Errorf("invalid selector: %w", err)
		}
	}

	reg, cfg, err := loadRegistry(configPath)
	if err != nil {
		return err
	}
	var named *measure.Measure
	if o.measure != "" {
		if named, err = cfg.Measure(reg, o.measure); err != nil {
			return err
		}
	}

	in, err := readInput(o.input)
	if err != nil {
		return err
	}
	pairs, err := in.pairs(reg, named)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	obs, err := metrics.NewObserver(promReg)
	if err != nil {
		return err
	}
	report, err := batch.Evaluate(ctx, named, pairs, batch.Options{
		Workers:  o.workers,
		Observer: obs,
		Logger:   log.StandardLogger(),
	})
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run":   report.RunID.String(),
		"pairs": len(pairs),
	}).Info("comparison finished")

	if err := printReport(out, report, sel); err != nil {
		return err
	}
	if o.dumpMetrics {
		return dumpMetrics(errOut, promReg)
	}
	return nil
}

func printReport(out io.Writer, report *batch.Report, sel labels.Selector) error {
	w := tabwriter.NewWriter(out, tabMinWidth, tabWidth, tabPadding, ' ', 0)
	if _, err := fmt.Fprintln(w, "PAIR\tMEASURE\tMATCHED\tMEAN\tMEDIAN\tMIN\tMAX\tPASSED"); err != nil {
		return err
	}
	for _, res := range report.Filter(sel) {
		matched := res.Matched.String()
		if matched == "" {
			matched = "-"
		}
		stats := []string{"-", "-", "-", "-"}
		if res.HasStats {
			stats = []string{
				formatStat(res.Stats.Mean), formatStat(res.Stats.Median),
				formatStat(res.Stats.Minimum), formatStat(res.Stats.Maximum),
			}
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			res.Name, res.Measure, matched, stats[0], stats[1], stats[2], stats[3], res.Passed); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	s := report.Summary()
	_, err := fmt.Fprintf(out, "\n%d/%d pairs passed, %d of %d scored frames matched\n",
		s.Passed, s.Pairs, s.MatchedFrames, s.ScoredFrames)
	return err
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
