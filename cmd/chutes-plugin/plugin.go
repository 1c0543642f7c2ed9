package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/chutes-plugin/internal/plugin"
)

// pluginCmd exposes the host hooks so a host can drive the plugin as a
// subprocess.
func pluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Host plugin hooks",
	}
	cmd.AddCommand(pluginConfigCmd(), pluginToolCmd())
	return cmd
}

func pluginConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Read host config JSON on stdin and print it with the Chutes provider added",
		RunE: func(cmd *cobra.Command, args []string) error {
			hostConfig := map[string]any{}
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&hostConfig); err != nil {
				return fmt.Errorf("decoding host config: %w", err)
			}

			p, err := newPlugin()
			if err != nil {
				return err
			}
			if err := p.Configure(cmd.Context(), hostConfig); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(hostConfig)
		},
	}
}

func pluginToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Run one of the plugin's tools and print its markdown output",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "chutes_list_models",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPlugin()
			if err != nil {
				return err
			}
			filter, _ := cmd.Flags().GetString("filter")
			owner, _ := cmd.Flags().GetString("owned-by")
			feature, _ := cmd.Flags().GetString("feature")
			showPricing, _ := cmd.Flags().GetBool("show-pricing")

			fmt.Fprintln(cmd.OutOrStdout(), p.ListModels(cmd.Context(), plugin.ListArgs{
				Filter:      filter,
				OwnedBy:     owner,
				Feature:     feature,
				ShowPricing: &showPricing,
			}))
			return nil
		},
	}
	list.Flags().String("filter", "", "Filter models by name (substring match)")
	list.Flags().String("owned-by", "", "Filter models by owner/provider")
	list.Flags().String("feature", "", "Filter by supported feature")
	list.Flags().Bool("show-pricing", true, "Show pricing information")

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "chutes_refresh_models",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPlugin()
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			fmt.Fprintln(cmd.OutOrStdout(), p.RefreshModels(cmd.Context(), plugin.RefreshArgs{Force: force}))
			return nil
		},
	}
	refresh.Flags().Bool("force", false, "Force refresh even if cache is valid")

	status := &cobra.Command{
		Use:   "status",
		Short: "chutes_status",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPlugin()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Status())
			return nil
		},
	}

	cmd.AddCommand(list, refresh, status)
	return cmd
}
