package cli

import (
	"github.com/spf13/cobra"

	"github.com/vennkit/vennkit/pkg/assets"
)

// assetsCommand creates the assets management command.
func (c *CLI) assetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage the browser-side layout scripts",
	}

	cmd.AddCommand(c.assetsFetchCommand())

	return cmd
}

// assetsFetchCommand creates the "assets fetch" subcommand: download the
// layout scripts into the cache so later renders inject vendored content
// without network access.
func (c *CLI) assetsFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Prefetch venn.js and d3 into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := cfg.NewCache()
			if err != nil {
				return err
			}
			defer store.Close()

			fetcher := assets.NewFetcher(store, nil, c.Logger)

			urls := []string{assets.DefaultVennURL, assets.DefaultD3URL}
			if cfg.Assets.VennURL != "" {
				urls[0] = cfg.Assets.VennURL
			}
			if cfg.Assets.D3URL != "" {
				urls[1] = cfg.Assets.D3URL
			}

			for _, u := range urls {
				data, err := fetcher.Fetch(cmd.Context(), u)
				if err != nil {
					printError("Fetch %s failed", u)
					return err
				}
				printSuccess("Fetched %s", u)
				printDetail("%d bytes", len(data))
			}
			printNextStep("Vendored renders", "set assets.vendor = true in the config")
			return nil
		},
	}
}
