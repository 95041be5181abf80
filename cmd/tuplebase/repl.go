package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read SQL statements from stdin, one at a time, and print their results",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openSession()
			if err != nil {
				return err
			}
			defer closeDB()
			return runREPL(cmd.InOrStdin(), cmd.OutOrStdout(), s)
		},
	}
}

// runREPL accumulates lines from in until a ';'-terminated statement is
// complete, executes it, and prints the result — a local process loop, not
// the wire protocol spec.md puts out of scope.
func runREPL(in io.Reader, out io.Writer, s sessionExecutor) error {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	for scanner.Scan() {
		pending.WriteString(scanner.Text())
		pending.WriteString("\n")

		buf := pending.String()
		if !strings.Contains(buf, ";") {
			continue
		}

		pending.Reset()
		for _, stmt := range splitStatements(buf) {
			if !strings.HasSuffix(stmt, ";") {
				// An unterminated trailing fragment waits for more input.
				pending.WriteString(stmt)
				pending.WriteString("\n")
				continue
			}
			rs, err := s.Execute(stmt)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			printResult(out, rs)
		}
	}
	return scanner.Err()
}
