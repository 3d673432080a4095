// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/base"
	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/kv/kvserver/cursor"
	"github.com/cockroachdb/regionsnap/pkg/kv/kvserver/regionsnap"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/storage"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/cockroachdb/regionsnap/pkg/util/metric"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliContext holds the flag values shared by all commands.
type cliContext struct {
	configPath  string
	store       string
	engine      string
	regionID    int64
	regionStart string
	regionEnd   string
	cf          string
	failFast    bool
	markDir     string

	// fs holds the corruption mark; the OS filesystem outside of tests.
	fs afero.Fs
}

func newRootCmd() *cobra.Command {
	cliCtx := &cliContext{fs: afero.NewOsFs()}
	rootCmd := &cobra.Command{
		Use:   "regionscan",
		Short: "inspect the data of one region of a store",
		Long: `
Reads and writes the data of one region of a store. All reads go through a
region snapshot, so keys outside of [--region-start, --region-end) are never
returned, and reading them is reported as an error.
`,
		SilenceUsage: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cliCtx.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&cliCtx.store, "store", "", "store directory")
	flags.StringVar(&cliCtx.engine, "engine", base.EnginePebble, "storage engine (pebble or leveldb)")
	flags.Int64Var(&cliCtx.regionID, "region-id", 1, "region ID")
	flags.StringVar(&cliCtx.regionStart, "region-start", "", "region start key (Go-quoted if it contains escapes)")
	flags.StringVar(&cliCtx.regionEnd, "region-end", "", "region end key; empty for the last region")
	flags.StringVar(&cliCtx.cf, "cf", storage.CFDefault, "column family")
	flags.BoolVar(&cliCtx.failFast, "fail-fast", false, "terminate on reads outside of the region")
	flags.StringVar(&cliCtx.markDir, "corruption-mark-dir", "", "directory of the corruption mark file")

	rootCmd.AddCommand(
		newPutCmd(cliCtx),
		newGetCmd(cliCtx),
		newScanCmd(cliCtx),
		newStatsCmd(cliCtx),
	)
	return rootCmd
}

// config returns the configuration from the config file, if any, with the
// explicitly set flags applied on top.
func (c *cliContext) config(flags *pflag.FlagSet) (base.Config, error) {
	cfg := base.DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = base.LoadConfig(c.configPath); err != nil {
			return base.Config{}, err
		}
	}
	if flags.Changed("store") || cfg.Storage.Dir == "" {
		cfg.Storage.Dir = c.store
	}
	if flags.Changed("engine") || c.configPath == "" {
		cfg.Storage.Engine = c.engine
	}
	if flags.Changed("fail-fast") {
		cfg.RegionSnapshot.FailFastOnUnexpectedKey = c.failFast
	}
	if flags.Changed("corruption-mark-dir") {
		cfg.RegionSnapshot.CorruptionMarkDir = c.markDir
	}
	if err := cfg.Validate(); err != nil {
		return base.Config{}, err
	}
	return cfg, nil
}

func (c *cliContext) desc() (*roachpb.RegionDescriptor, error) {
	start, err := parseKey(c.regionStart)
	if err != nil {
		return nil, err
	}
	end, err := parseKey(c.regionEnd)
	if err != nil {
		return nil, err
	}
	if len(end) > 0 && start.Compare(end) >= 0 {
		return nil, errors.Newf("region start %s must be before region end %s", start, end)
	}
	return &roachpb.RegionDescriptor{
		RegionID: roachpb.RegionID(c.regionID),
		StartKey: start,
		EndKey:   end,
	}, nil
}

// store is an open engine together with the region read path on top of it.
type store struct {
	eng      storage.Engine
	desc     *roachpb.RegionDescriptor
	policy   *regionsnap.CorruptionPolicy
	registry *metric.Registry
	metrics  regionsnap.Metrics
}

func (c *cliContext) open(ctx context.Context, cmd *cobra.Command) (*store, error) {
	cfg, err := c.config(cmd.Flags())
	if err != nil {
		return nil, err
	}
	desc, err := c.desc()
	if err != nil {
		return nil, err
	}
	s := &store{
		desc:     desc,
		registry: metric.NewRegistry(),
		metrics:  regionsnap.MakeMetrics(),
	}
	s.registry.MustRegister(s.metrics.CriticalErrors)
	if s.policy, err = regionsnap.MakePolicy(ctx, cfg.RegionSnapshot, c.fs, s.metrics.CriticalErrors); err != nil {
		return nil, err
	}
	if err := s.policy.Mark.Check(); err != nil {
		log.Warningf(ctx, "%v", err)
	}
	if s.eng, err = storage.Open(ctx, cfg.Storage); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *store) snapshot() (*regionsnap.RegionSnapshot, error) {
	return regionsnap.NewFromEngine(s.eng, s.desc, s.policy)
}

func (s *store) close(ctx context.Context) {
	if err := s.eng.Close(); err != nil {
		log.Errorf(ctx, "closing store: %v", err)
	}
}

func newPutCmd(cliCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "write a key of the region",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			value, err := parseKey(args[1])
			if err != nil {
				return err
			}
			s, err := cliCtx.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			if !s.desc.ContainsKey(key) {
				return regionsnap.NewKeyNotInRegionError(key, s.desc)
			}
			return s.eng.Put(cliCtx.cf, keys.DataKey(key), value)
		},
	}
}

func newGetCmd(cliCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "read a key of the region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			s, err := cliCtx.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			snap, err := s.snapshot()
			if err != nil {
				return err
			}
			defer snap.Close()
			v, err := snap.GetCF(ctx, cliCtx.cf, key)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "<not found>")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatKey(v))
			return nil
		},
	}
}

type scanOptions struct {
	start, end string
	limit      int
	reverse    bool
	stats      bool
}

func newScanCmd(cliCtx *cliContext) *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "print the entries of the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := cliCtx.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			snap, err := s.snapshot()
			if err != nil {
				return err
			}
			defer snap.Close()
			return runScan(ctx, cmd.OutOrStdout(), snap, cliCtx.cf, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.start, "start", "", "first key to print; the region start if empty")
	flags.StringVar(&opts.end, "end", "", "exclusive end of the keys to print; the region end if empty")
	flags.IntVar(&opts.limit, "limit", 0, "maximum number of entries to print; 0 for no limit")
	flags.BoolVar(&opts.reverse, "reverse", false, "print in descending key order")
	flags.BoolVar(&opts.stats, "stats", false, "print cursor statistics")
	return cmd
}

func runScan(
	ctx context.Context, w io.Writer, snap *regionsnap.RegionSnapshot, cf string, opts scanOptions,
) error {
	start, err := parseKey(opts.start)
	if err != nil {
		return err
	}
	end, err := parseKey(opts.end)
	if err != nil {
		return err
	}
	iter, err := snap.NewIteratorCF(ctx, cf, regionsnap.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return err
	}
	mode := cursor.Forward
	if opts.reverse {
		mode = cursor.Backward
	}
	c := cursor.New(iter, mode)
	defer c.Close()

	var valid bool
	switch {
	case !opts.reverse && len(start) == 0:
		valid, err = c.SeekToFirst()
	case !opts.reverse:
		valid, err = c.Seek(start)
	case len(end) == 0:
		valid, err = c.SeekToLast()
	default:
		valid, err = c.ReverseSeek(end)
	}
	for n := 0; valid && (opts.limit == 0 || n < opts.limit); n++ {
		fmt.Fprintf(w, "%s=%s\n", formatKey(c.Key()), formatKey(c.Value()))
		if opts.reverse {
			valid, err = c.Prev()
		} else {
			valid, err = c.Next()
		}
	}
	if err != nil {
		return err
	}
	if opts.stats {
		fmt.Fprintf(w, "stats: %s\n", c.Statistics())
	}
	return nil
}

func newStatsCmd(cliCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print size estimates and entry counts of the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := cliCtx.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.close(ctx)
			snap, err := s.snapshot()
			if err != nil {
				return err
			}
			defer snap.Close()
			return runStats(ctx, cmd.OutOrStdout(), s, snap)
		},
	}
}

func runStats(
	ctx context.Context, w io.Writer, s *store, snap *regionsnap.RegionSnapshot,
) error {
	fmt.Fprintf(w, "region: %s\n", snap.Desc())
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"cf", "entries", "key bytes", "value bytes", "approx disk"})
	for _, cf := range s.eng.ColumnFamilies() {
		size, err := snap.ApproximateDiskBytes(cf)
		if err != nil {
			return err
		}
		var count, keyBytes, valueBytes uint64
		if err := snap.ScanCF(ctx, cf, snap.StartKey(), nil, false, /* fillCache */
			func(key roachpb.Key, value []byte) (bool, error) {
				count++
				keyBytes += uint64(len(key))
				valueBytes += uint64(len(value))
				return true, nil
			}); err != nil {
			return err
		}
		table.Append([]string{
			cf,
			humanize.Comma(int64(count)),
			humanize.IBytes(keyBytes),
			humanize.IBytes(valueBytes),
			humanize.IBytes(size),
		})
	}
	table.Render()
	fmt.Fprintf(w, "corruption mark: %s\n", formatMark(s.policy))

	families, err := s.registry.Gatherer().Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "printing metrics")
		}
	}
	return nil
}

func formatMark(p *regionsnap.CorruptionPolicy) string {
	if !p.Mark.IsSet() {
		return "not set"
	}
	return fmt.Sprintf("set (%s)", p.Mark.Reason())
}

// parseKey interprets s as a Go-quoted string if it is quoted, and verbatim
// otherwise.
func parseKey(s string) (roachpb.Key, error) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing key %s", s)
		}
		return roachpb.Key(u), nil
	}
	if s == "" {
		return nil, nil
	}
	return roachpb.Key(s), nil
}

// formatKey prints b verbatim if it is printable and Go-quoted otherwise.
func formatKey(b []byte) string {
	s := string(b)
	if q := strconv.Quote(s); q[1:len(q)-1] != s {
		return q
	}
	return s
}
