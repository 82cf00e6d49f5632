package main

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"runedoc/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdio",
	Long: `Serve diagnostics, completion, go-to-definition and hover to an
editor over the language server protocol. The editor owns stdin and
stdout; logs go to stderr and a session file.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLSP,
}

func init() {
	lspCmd.Flags().CountP("verbose", "v", "increase log verbosity")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return err
	}
	commonlog.Configure(verbosity+1, nil)

	// Stdout carries the protocol, so session logs go to stderr plus a
	// file the user can tail while the editor holds the process.
	logsDir := filepath.Join(os.TempDir(), "runedoc")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(
		filepath.Join(logsDir, "runedoc-lsp.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0666,
	)
	if err != nil {
		return err
	}
	defer logFile.Close()

	stdlog.SetOutput(io.MultiWriter(os.Stderr, logFile))
	stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime | stdlog.Lmicroseconds)
	stdlog.Println("Starting runedoc language server...")

	server, err := lsp.NewServer()
	if err != nil {
		return err
	}
	return server.RunStdio()
}
