package cli

import (
	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/io"
	"github.com/holly-cummins/extensions.io/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <records.json>",
		Short: "Serve a records file over HTTP",
		Long: `Serve a records file as a read-only JSON API until interrupted.

  GET /healthz
  GET /records[?owner=...]
  GET /records/{key}
  GET /entries
  GET /entries/{slug}/duplicates

Keys and slugs contain slashes; escape them as %2F.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := io.ImportResult(args[0])
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return server.New(res, loggerFromContext(cmd.Context())).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
