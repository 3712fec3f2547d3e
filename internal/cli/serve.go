package cli

import (
	"github.com/spf13/cobra"

	"github.com/vennkit/vennkit/pkg/server"
)

// serveCommand creates the serve command hosting the HTTP rendering API.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rendering API",
		Long: `Serve hosts the rendering API over HTTP. All requests share one headless
browser; concurrent requests get isolated page sessions inside it.

Endpoints:
  POST /api/render   render a diagram batch
  GET  /healthz      liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cfg, noCache)
			if err != nil {
				return err
			}

			srvCfg, err := cfg.ServerConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				srvCfg.BindAddress = listen
			}
			if srvCfg.BindAddress == "" {
				srvCfg.BindAddress = server.DefaultBindAddress
			}

			srv := server.NewServer(srvCfg, runner, c.Logger)
			printInfo("Serving on %s", srvCfg.BindAddress)
			printNextStep("Try it", `curl -X POST localhost:8410/api/render -d '{"diagrams": [[{"sets": ["A"], "size": 10}]]}'`)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "bind address (default 127.0.0.1:8410 or config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}
