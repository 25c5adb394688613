package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/output"
)

// stageFlags are shared by the download, parse and run commands.
type stageFlags struct {
	publisher string
	date      string
}

func (f *stageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.publisher, "publisher", "p", "", "publisher id (default: every registered publisher)")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "partition date yyyy-mm-dd (default: today, UTC)")
}

func downloadCommand() *cobra.Command {
	var flags stageFlags
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download publisher homepages to raw storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(flags.date)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.publisherIDs(flags.publisher)
			if err != nil {
				return err
			}

			failures := map[string]error{}
			for _, id := range ids {
				if err := a.job.Download(cmd.Context(), id, date); err != nil {
					failures[id] = err
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), output.RawKey(id, date))
			}
			return joinErrors(failures, ids)
		},
	}
	flags.register(cmd)
	return cmd
}

func parseCommand() *cobra.Command {
	var flags stageFlags
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse stored homepages into headline tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(flags.date)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.publisherIDs(flags.publisher)
			if err != nil {
				return err
			}

			var summaries []headlines.RunSummary
			failures := map[string]error{}
			for _, id := range ids {
				summary, err := a.job.Parse(cmd.Context(), id, date)
				if err != nil {
					failures[id] = err
					continue
				}
				summaries = append(summaries, *summary)
			}

			printSummaries(cmd.OutOrStdout(), summaries)
			return joinErrors(failures, ids)
		},
	}
	flags.register(cmd)
	return cmd
}

func runCommand() *cobra.Command {
	var flags stageFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download and parse in one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(flags.date)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if flags.publisher == "" {
				summaries, err := a.job.RunAll(cmd.Context(), date)
				printSummaries(cmd.OutOrStdout(), summaries)
				return err
			}

			summary, err := a.job.Run(cmd.Context(), flags.publisher, date)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), []headlines.RunSummary{*summary})
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func keyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "key <publisher> <yyyy-mm-dd>",
		Short: "Print the partition key for a publisher and date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := output.ParseDate(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.Key(args[0], date))
			return nil
		},
	}
}
