package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List every table in the database's catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openSession()
			if err != nil {
				return err
			}
			defer closeDB()

			names, err := s.GetTableNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
