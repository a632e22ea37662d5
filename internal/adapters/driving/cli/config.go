package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configList bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Settings live in ~/.carsweep/config.toml as TOML tables and are
addressed here by dotted key, e.g. search.concurrency or storage.driver.

Common keys:
  search.concurrency      jobs running at once (default 2)
  search.job_timeout      per-source limit, e.g. "3m"
  search.strategy         barrier or pool
  search.postprocessors   listing cleanup steps, e.g. clean,urls,dedupe
  storage.driver          sqlite, postgres or memory
  storage.dsn             postgres connection string
  server.addr             listen address for "carsweep serve"
  browser.headless        false shows the browser window
  scheduler.enabled       run saved sweeps while serving`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting that is set",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a setting",
	Long: `Change a setting. true/false become booleans and whole numbers become
integers; everything else is stored as text. With --list the value is split
on commas, and an empty value stores an empty list.`,
	Example: `  carsweep config set search.concurrency 4
  carsweep config set search.job_timeout 90s
  carsweep config set search.postprocessors clean,dedupe --list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset KEY",
	Short: "Remove a setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	configSetCmd.Flags().BoolVar(&configList, "list", false, "store the value as a comma-separated list")
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errNoConfig
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Printf("No settings in %s; defaults apply.\n", configStore.Path())
		return nil
	}

	tw := newTable(cmd.OutOrStdout())
	for _, k := range keys {
		v, _ := configStore.Get(k)
		fmt.Fprintf(tw, "%s\t%s\n", k, formatSetting(v))
	}
	return tw.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errNoConfig
	}

	v, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("%s is not set", args[0])
	}
	cmd.Println(formatSetting(v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errNoConfig
	}

	key := args[0]
	if !strings.Contains(key, ".") {
		return fmt.Errorf("key %q needs a section, e.g. search.%s", key, key)
	}

	value := parseSetting(args[1], configList)
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("%s = %s\n", key, formatSetting(value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errNoConfig
	}

	if err := configStore.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Unset %s\n", args[0])
	return nil
}

// parseSetting turns command-line text into the value stored in TOML.
func parseSetting(raw string, list bool) any {
	if list {
		items := []string{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	}

	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func formatSetting(v any) string {
	switch val := v.(type) {
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprint(val)
	}
}
