package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/benhall-io/squish"
	"github.com/benhall-io/squish/audit"
	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/provider"
	"github.com/benhall-io/squish/scanner"
	"github.com/benhall-io/squish/store"
	"github.com/benhall-io/squish/types"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "squish",
		Short:         "Clone recorded AI-assistant sessions with compressed context",
		Version:       squish.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newListCmd(), newCloneCmd(), newReportCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &scanner.Scanner{}
			sessions, err := s.ScanAll()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions found")
				return nil
			}
			for _, sess := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-36s %-12s %-20s %s\n",
					sess.Source, sess.ID, sess.ModTime.Format("2006-01-02"), sess.Project, sess.Summary)
			}
			return nil
		},
	}
}

func newCloneCmd() *cobra.Command {
	var (
		configPath string
		bandFlags  []string
		cloneDir   string
		model      string
		auditPath  string
		auditHTML  bool
		dryRun     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "clone <session-id-or-path>",
		Short: "Compress a session into a new resumable session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfigFile(configPath)
			if err != nil {
				return err
			}

			bands, err := fileCfg.bands()
			if err != nil {
				return err
			}
			for _, f := range bandFlags {
				band, err := parseBandFlag(f)
				if err != nil {
					return err
				}
				bands = append(bands, band)
			}
			if len(bands) == 0 {
				// The default profile: squash the oldest half hard, the
				// next quarter lightly, keep the recent tail verbatim.
				bands = []compress.Band{
					{Start: 0, End: 50, Level: types.LevelHeavy},
					{Start: 50, End: 75, Level: types.LevelRegular},
				}
			}

			if cloneDir == "" {
				cloneDir = fileCfg.CloneDir
			}
			if model == "" {
				model = fileCfg.Model
			}

			logger := slog.New(slog.DiscardHandler)
			if verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			}

			engineCfg, err := fileCfg.engineConfig()
			if err != nil {
				return err
			}

			opts := []squish.Option{
				squish.WithBands(bands...),
				squish.WithEngineConfig(engineCfg),
				squish.WithStore(store.NewFile(cloneDir)),
				squish.WithDryRun(dryRun),
				squish.WithLogger(logger),
			}
			if !dryRun {
				if os.Getenv("ANTHROPIC_API_KEY") == "" {
					return fmt.Errorf("ANTHROPIC_API_KEY is not set (use --dry-run to test without it)")
				}
				anthropicClient := anthropic.NewClient()
				var provOpts []provider.AnthropicOption
				if model != "" {
					provOpts = append(provOpts, provider.WithModel(model))
				}
				if verbose {
					provOpts = append(provOpts, provider.WithLogger(logger))
				}
				opts = append(opts, squish.WithProvider(provider.NewAnthropic(&anthropicClient, provOpts...)))
			}

			client, err := squish.New(opts...)
			if err != nil {
				return err
			}

			started := time.Now()
			res, err := client.Clone(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "clone written: %s\n", res.Clone.Path)
			fmt.Fprintf(out, "session id:    %s\n", res.Clone.ID)
			fmt.Fprintf(out, "compressed %d, skipped %d, failed %d units in %s\n",
				res.Stats.MessagesCompressed, res.Stats.MessagesSkipped,
				res.Stats.MessagesFailed, time.Since(started).Round(time.Millisecond))
			fmt.Fprintf(out, "tokens: %d -> %d (%d%% reduction)\n",
				res.Stats.OriginalTokens, res.Stats.CompressedTokens, res.Stats.ReductionPercent)

			if auditPath != "" {
				var data []byte
				if auditHTML {
					data, err = audit.RenderHTML(res.Report)
					if err != nil {
						return err
					}
				} else {
					data = []byte(audit.Render(res.Report))
				}
				if err := os.WriteFile(auditPath, data, 0o644); err != nil {
					return fmt.Errorf("write audit report: %w", err)
				}
				fmt.Fprintf(out, "audit report:  %s\n", auditPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringArrayVarP(&bandFlags, "band", "b", nil, "compression band start:end:level (repeatable), e.g. 0:50:heavy")
	cmd.Flags().StringVar(&cloneDir, "clone-dir", "", "directory for the clone (default: beside the source)")
	cmd.Flags().StringVar(&model, "model", "", "summarizer model (default "+provider.DefaultModel+")")
	cmd.Flags().StringVar(&auditPath, "audit", "", "write a per-unit audit report to this path")
	cmd.Flags().BoolVar(&auditHTML, "audit-html", false, "render the audit report as sanitized HTML")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline without provider calls")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	return cmd
}

func newReportCmd() *cobra.Command {
	var cloneDir string

	cmd := &cobra.Command{
		Use:   "report <clone-id>",
		Short: "Show the compression summary of a stored clone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cloneDir == "" {
				return fmt.Errorf("--clone-dir is required")
			}
			s := store.NewFile(cloneDir)
			clone, err := s.GetClone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), audit.Render(audit.Report{
				SourceID: clone.SourceID,
				CloneID:  clone.ID,
				Stats:    clone.Stats,
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&cloneDir, "clone-dir", "", "directory holding the clones")
	return cmd
}
