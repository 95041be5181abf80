// Command tuplebase is a local command-line front end for an embedded
// tuplebase database: a single-node SQL engine over a bitcask-style
// append-only log, per spec §4.7's Session glue. It runs one-shot scripts,
// offers a line-oriented REPL, and inspects the catalog. It speaks no wire
// protocol and opens no sockets — every subcommand opens its own on-disk
// database file directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuplebase/tuplebase/internal/kv"
	"github.com/tuplebase/tuplebase/internal/mvcc"
	"github.com/tuplebase/tuplebase/internal/sql/engine"
	"github.com/tuplebase/tuplebase/internal/sql/executor"
)

var (
	dbPath  string
	verbose bool
)

// sessionExecutor is the narrow slice of *engine.Session the repl needs,
// kept as an interface so tests can drive runREPL against a fake.
type sessionExecutor interface {
	Execute(sql string) (executor.ResultSet, error)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tuplebase",
		Short:         "tuplebase is an embeddable relational SQL database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "tuplebase.db", "path to the database's append-only log file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log storage and MVCC events to stderr")

	root.AddCommand(newExecCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newTablesCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

// newLogger builds the SugaredLogger every subcommand hands to the storage
// layer, matching internal/kv.DiskEngineOptions's nil-falls-back-to-Nop
// convention.
func newLogger() *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// openSession opens the on-disk log at dbPath and returns a Session over it,
// along with a closer the caller must run once done.
func openSession() (*engine.Session, func() error, error) {
	log := newLogger()
	disk, err := kv.NewDiskEngine(dbPath, kv.DiskEngineOptions{Logger: log})
	if err != nil {
		return nil, nil, err
	}
	m := mvcc.New(disk)
	s := engine.NewSession(engine.NewKVEngine(m), engine.SessionOptions{Logger: log})
	return s, disk.Close, nil
}
