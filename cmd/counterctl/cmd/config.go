package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the loaded network configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the configuration record",
		Long: `Print the record built from L2_RPC_URL and PRIVATE_KEY:

  { compilerVersion, networks: { orderlyTestnet: { url, accounts } } }

Credentials are masked unless --reveal is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asYAML, _ := cmd.Flags().GetBool("yaml")
			reveal, _ := cmd.Flags().GetBool("reveal")

			cfg := o.loadConfig()
			if !reveal {
				cfg = cfg.Masked()
			}
			if asYAML {
				return cfg.WriteYAML(cmd.OutOrStdout())
			}
			return cfg.WriteJSON(cmd.OutOrStdout())
		},
	}
	show.Flags().Bool("yaml", false, "render as YAML instead of JSON")
	show.Flags().Bool("reveal", false, "print credentials unmasked")

	cmd.AddCommand(show)
	return cmd
}
