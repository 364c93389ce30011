package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"cwp_reporting/src/export"
	"cwp_reporting/src/model"
	"cwp_reporting/src/state"
	"cwp_reporting/src/workflow"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// Request keys under which each command records its state
const (
	keyExportEnrollments = "export/enrollments"
	keyExportWorksites   = "export/worksites"
	keyStatsCharges      = "stats/charges"
	keyStatsCourtTypes   = "stats/court-types"
	keyStatsWorksites    = "stats/worksites"
)

// exportResult is what an export request leaves in its state slice
type exportResult struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cwp",
		Short:         "Community work program reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd(), newStatsCmd(), newStateCmd())
	return root
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write reports to JSON files",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enrollments",
			Short: "Export every enrollment with its participant, worksites and hours",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWorkflow(cmd, keyExportEnrollments, func(ctx context.Context, a *app, svc *workflow.Service) (exportResult, error) {
					records, err := svc.DownloadEnrollments(ctx)
					if err != nil {
						return exportResult{}, err
					}
					path, err := a.writer.WriteJSON(export.EnrollmentsFile, records)
					return exportResult{Path: path, Records: len(records)}, err
				})
			},
		},
		&cobra.Command{
			Use:   "worksites",
			Short: "Export the worksite list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWorkflow(cmd, keyExportWorksites, func(ctx context.Context, a *app, svc *workflow.Service) (exportResult, error) {
					records, err := svc.DownloadWorksites(ctx)
					if err != nil {
						return exportResult{}, err
					}
					path, err := a.writer.WriteJSON(export.WorksitesFile, records)
					return exportResult{Path: path, Records: len(records)}, err
				})
			},
		},
	)
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute program statistics",
	}

	var start, end string
	worksites := &cobra.Command{
		Use:   "worksites",
		Short: "Hours and participants per worksite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(start, end)
			if err != nil {
				return err
			}
			return runWorkflow(cmd, keyStatsWorksites, func(ctx context.Context, _ *app, svc *workflow.Service) (*workflow.WorksiteStats, error) {
				return svc.WorksiteStats(ctx, window)
			})
		},
	}
	worksites.Flags().StringVar(&start, "start", "", "first check-in date (YYYY-MM-DD)")
	worksites.Flags().StringVar(&end, "end", "", "last check-in date (YYYY-MM-DD), inclusive")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "charges",
			Short: "Arrest and court charge counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWorkflow(cmd, keyStatsCharges, func(ctx context.Context, _ *app, svc *workflow.Service) (*workflow.ChargeStats, error) {
					return svc.ChargeStats(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "court-types",
			Short: "Enrollments and repeat participants per court case type",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWorkflow(cmd, keyStatsCourtTypes, func(ctx context.Context, _ *app, svc *workflow.Service) (*workflow.CourtTypeStats, error) {
					return svc.RepeatParticipantsByCourtType(ctx)
				})
			},
		},
		worksites,
	)
	return cmd
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state [key...]",
		Short: "Show the recorded state of past requests",
		Long: `Show the recorded state of past requests.

State outlives a single invocation only when REDIS_URL is set; without it
every run starts from an empty in-memory store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			keys := args
			if len(keys) == 0 {
				if keys, err = a.store.Keys(ctx); err != nil {
					return err
				}
			}
			slices := make([]state.Slice, 0, len(keys))
			for _, key := range keys {
				slice, err := a.store.Get(ctx, key)
				if err != nil {
					return err
				}
				slices = append(slices, slice)
			}
			return printJSON(cmd.OutOrStdout(), slices)
		},
	}
}

// runWorkflow wires the app, runs fn as a tracked request under key and
// prints its result.
func runWorkflow[T any](cmd *cobra.Command, key string, fn func(ctx context.Context, a *app, svc *workflow.Service) (T, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := state.Run(ctx, a.store, key, func(ctx context.Context) (T, error) {
		svc, err := a.workflows(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx, a, svc)
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// parseWindow turns the date flags into a time range. Both empty means no
// filter; the end date covers the whole day.
func parseWindow(start, end string) (*model.TimeRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	var window model.TimeRange
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		window.Start = t
	}
	if end != "" {
		t, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return nil, fmt.Errorf("invalid --end: %w", err)
		}
		window.End = t.Add(24*time.Hour - time.Second)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return &window, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
