package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExecCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run every statement in a SQL script against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			var script string
			switch {
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				script = string(b)
			case len(args) > 0:
				script = args[0]
			default:
				return fmt.Errorf("exec requires -f <file> or an inline SQL statement")
			}

			s, closeDB, err := openSession()
			if err != nil {
				return err
			}
			defer closeDB()

			for _, stmt := range splitStatements(script) {
				rs, err := s.Execute(stmt)
				if err != nil {
					return fmt.Errorf("%s: %w", stmt, err)
				}
				printResult(cmd.OutOrStdout(), rs)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a .sql script")
	return cmd
}
