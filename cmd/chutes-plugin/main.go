package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
	"github.com/everstacklabs/chutes-plugin/internal/config"
	"github.com/everstacklabs/chutes-plugin/internal/console"
	"github.com/everstacklabs/chutes-plugin/internal/doctor"
	"github.com/everstacklabs/chutes-plugin/internal/fetcher"
	"github.com/everstacklabs/chutes-plugin/internal/install"
	"github.com/everstacklabs/chutes-plugin/internal/plugin"
	"github.com/everstacklabs/chutes-plugin/internal/validate"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "chutes-plugin",
		Short:         "Chutes model provider for OpenCode",
		Long:          "Installs the Chutes plugin and lists, refreshes and checks the models it exposes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		installCmd(),
		statusCmd(),
		listCmd(),
		refreshCmd(),
		doctorCmd(),
		pluginCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		console.Error(os.Stderr, err)
		os.Exit(1)
	}
}

func installCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Copy the plugin bundle into the project or user plugin directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, _ := cmd.Flags().GetString("bundle")
			out := cmd.OutOrStdout()

			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}

			console.Title(out, "chutes-plugin installer")
			fmt.Fprintln(out)

			res, err := install.Run(install.Options{
				Bundle:  bundle,
				WorkDir: wd,
				HomeDir: home,
				In:      cmd.InOrStdin(),
				Out:     out,
			})
			if err != nil {
				return err
			}
			if res.Target == install.TargetCancel {
				fmt.Fprintln(out, "\nInstallation cancelled.")
				return nil
			}

			fmt.Fprintln(out)
			console.Success(out, "Successfully installed (%s)", res.Target)
			console.Hint(out, "Location: %s", res.Path)
			fmt.Fprintln(out)
			console.Section(out, "Next steps:")
			fmt.Fprintln(out, "1. Restart OpenCode if it's running")
			fmt.Fprintln(out, "2. Run: opencode")
			fmt.Fprintln(out, "3. Connect your token: /connect chutes")
			fmt.Fprintln(out, "4. Select a Chutes model from the dropdown")
			fmt.Fprintln(out)
			console.Section(out, "Available tools:")
			fmt.Fprintln(out, "   - chutes_list_models")
			fmt.Fprintln(out, "   - chutes_refresh_models")
			fmt.Fprintln(out, "   - chutes_status")
			return nil
		},
	}

	cmd.Flags().String("bundle", "dist/bundle.js", "Path to the built plugin bundle")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the plugin is installed and a token is connected",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			wd, err := os.Getwd()
			if err != nil {
				return err
			}

			console.Title(out, "chutes-plugin status")
			fmt.Fprintln(out)

			if path, ok := install.Installed(nil, wd); ok {
				console.Success(out, "Plugin installed")
				console.Hint(out, "Location: %s", path)
			} else {
				console.Failure(out, "Plugin not installed")
				console.Hint(out, "Run: chutes-plugin install")
			}

			if config.HasChutesAuth(config.AuthPath()) || os.Getenv(plugin.TokenEnv) != "" {
				console.Success(out, "API token connected")
			} else {
				console.Warning(out, "API token not connected")
				console.Hint(out, "1. Run: opencode")
				console.Hint(out, "2. Type: /connect chutes")
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available Chutes models",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPlugin()
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			filter, _ := cmd.Flags().GetString("filter")
			owner, _ := cmd.Flags().GetString("owner")
			feature, _ := cmd.Flags().GetString("feature")

			format, err := catalog.ParseFormat(output)
			if err != nil {
				return err
			}

			models, err := p.Select(cmd.Context(), plugin.ListArgs{Filter: filter, OwnedBy: owner, Feature: feature})
			if err != nil {
				return err
			}
			return catalog.Write(cmd.OutOrStdout(), format, models)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().String("filter", "", "Filter models by name (substring match)")
	cmd.Flags().String("owner", "", "Filter models by owner")
	cmd.Flags().String("feature", "", "Filter by supported feature (e.g. tools, reasoning)")

	return cmd
}

func refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the model list from the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPlugin()
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			msg := p.RefreshModels(cmd.Context(), plugin.RefreshArgs{Force: force})
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			if strings.HasPrefix(msg, "[ERROR]") {
				return fmt.Errorf("refresh failed")
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Refresh even if the cache is valid")

	return cmd
}

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check installation, credentials and API connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return err
			}

			cfg.APIToken = resolveToken(cfg)
			report := doctor.Run(cmd.Context(), doctor.Options{
				WorkDir:  wd,
				AuthPath: config.AuthPath(),
				Fetcher:  fetcher.NewFromConfig(cfg),
			})
			doctor.Render(cmd.OutOrStdout(), report)

			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose && report.Listing != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(validate.FormatResult(report.Listing), "\n"))
			}
			return nil
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Print every listing validation issue")

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// resolveToken falls back to the host auth file when no token is configured.
func resolveToken(cfg *config.Config) string {
	if config.HasAPIToken(cfg) {
		return cfg.APIToken
	}
	return config.ChutesAPIKeyFromAuth(config.AuthPath())
}

func newPlugin() (*plugin.Plugin, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.APIToken = resolveToken(cfg)
	return plugin.New(cfg), nil
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
