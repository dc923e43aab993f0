package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// initConfig loads ~/.isoviz.yaml if present. A missing config file is
// fine; flags and defaults cover everything.
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.SetConfigName(".isoviz")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	_ = viper.ReadInConfig()
}

// configuredGenes returns the genes map from the config file, keyed by
// display name with Ensembl gene ID values.
func configuredGenes() map[string]string {
	return viper.GetStringMapString("genes")
}

// resolveOutputDir picks the artifact root: flag, then config, then
// ./data.
func resolveOutputDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := viper.GetString("output"); v != "" {
		return v
	}
	return "data"
}

// resolveEmail picks the Clustal Omega contact email: flag, then config.
func resolveEmail(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("email")
}

// resolveHub picks the Xena hub URL: flag, then config, then the client
// default.
func resolveHub(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("xena.hub")
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage isoviz configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.isoviz.yaml.",
		Example: `  isoviz config                                   # show all config
  isoviz config set genes.CD20 ENSG00000156738    # register a gene
  isoviz config set email you@example.org         # Clustal Omega contact
  isoviz config get output                        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.isoviz.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".isoviz.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
