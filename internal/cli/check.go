package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slizzai/slizzai/pkg/config"
)

// configCommand groups configuration helpers.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	cmd.AddCommand(c.configCheckCommand())
	return cmd
}

// configCheckCommand validates the configuration and prints the values a
// run would use.
func (c *CLI) configCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and show effective values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			printConfig(cfg)
			return nil
		},
	}
}

func printConfig(cfg *config.Config) {
	printSuccess("Configuration is valid")
	printNewline()
	printKeyValue("output", cfg.OutputDir)
	printKeyValue("sampler", cfg.SuperSamplerURL)
	printKeyValue("tiles", fmt.Sprint(*cfg.NumTiles))
	printKeyValue("modulus", numbers.Sprintf("%d", cfg.FibModulus))
	printKeyValue("water", formatLitres(cfg.WaterLimit))
	printKeyValue("loop delay", fmt.Sprintf("%gs", *cfg.LoopDelay))
	printKeyValue("workers", fmt.Sprint(cfg.Workers))
	printKeyValue("retries", fmt.Sprintf("%d attempts, %gs delay", cfg.RetryAttempts, cfg.RetryDelay))
	printKeyValue("signal", cfg.Signal.Source)
	printKeyValue("cache", cfg.Cache.Backend)
	printKeyValue("store", cfg.Store.Backend)
}
