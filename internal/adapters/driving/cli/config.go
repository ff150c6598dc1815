package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/docsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsync/internal/config"
)

// secretKeys are masked on output and prompted for without echo.
var secretKeys = map[string]bool{
	"embedding.api_key": true,
	"index.token":       true,
	"server.token":      true,
	"github.token":      true,
	"cache.redis_url":   true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit configuration",
	Long: `Reads and edits ~/.docsync/config.toml.

Keys are dotted table paths, for example:
  docsync config set index.backend sqlite
  docsync config set embedding.provider openai
  docsync config set embedding.api_key        (prompts without echo)

Environment variables (DOCSYNC_*) and a .env file in the working
directory override the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a value stored in the configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value in the configuration file",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a value from the configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and probe the backends",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func resolvedConfigPath() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultPath()
}

func openConfigStore() (*configfile.ConfigStore, error) {
	path, err := resolvedConfigPath()
	if err != nil {
		return nil, err
	}
	return configfile.NewConfigStore(path)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	text, err := cfg.TOML()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := resolvedConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	key := args[0]
	val, ok := store.Get(key)
	if !ok {
		return fmt.Errorf("%s is not set in %s", key, store.Path())
	}
	out := fmt.Sprint(val)
	if secretKeys[key] {
		out = maskAPIKey(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	key := args[0]

	var raw string
	if len(args) == 2 {
		raw = args[1]
	} else {
		cmd.Printf("Enter value for %s: ", key)
		raw = readPassword(cmd.InOrStdin())
		cmd.Println()
	}
	if strings.TrimSpace(raw) == "" {
		return errors.New("value must not be empty")
	}

	// Secrets are always strings, even when they look numeric.
	var value any = strings.TrimSpace(raw)
	if !secretKeys[key] {
		value = configfile.ParseValue(raw)
	}
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	shown := fmt.Sprint(value)
	if secretKeys[key] {
		shown = maskAPIKey(shown)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.Unset(args[0]); err != nil {
		return fmt.Errorf("removing %s: %w", args[0], err)
	}
	cmd.Printf("Unset %s\n", args[0])
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := newPrinter(cmd)
	if err := cfg.Validate(); err != nil {
		p.check(false, "configuration: "+err.Error())
		return errors.New("configuration is invalid")
	}
	p.check(true, "configuration")

	failed := 0
	for _, c := range ai.CheckBackends(cmd.Context(), cfg) {
		label := c.Component + " (" + c.Target + ")"
		if !c.OK() {
			failed++
			label += ": " + c.Err.Error()
		}
		p.check(c.OK(), label)
	}
	if failed > 0 {
		return fmt.Errorf("%d backend checks failed", failed)
	}
	return nil
}
