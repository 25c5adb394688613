package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/headlines"
	"github.com/pevans/headlines/output"
)

func partitionsCommand() *cobra.Command {
	var publisherID string
	cmd := &cobra.Command{
		Use:   "partitions",
		Short: "List recorded partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			partitions, err := a.catalog.List(cmd.Context(), publisherID)
			if err != nil {
				return err
			}

			printPartitions(cmd.OutOrStdout(), partitions)
			return nil
		},
	}
	cmd.Flags().StringVarP(&publisherID, "publisher", "p", "", "only list this publisher")
	return cmd
}

func recordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "records <publisher> <yyyy-mm-dd>",
		Short: "Print the headlines stored for a publisher and date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := output.ParseDate(args[1])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			key := output.Key(args[0], date)
			data, err := a.store.Get(cmd.Context(), key)
			if err != nil {
				return &headlines.StorageError{Op: "get", Key: key, Err: err}
			}

			table, err := headlines.ReadCSV(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", key, err)
			}

			printRecords(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
