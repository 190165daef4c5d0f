package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/wifipilot/internal/util"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change switching preferences",
	Long: `Show or change the switching preferences stored in the config file.
A running daemon picks up changes without a restart.

Examples:
  wifipilot settings show
  wifipilot settings set sensitivity 60
  wifipilot settings set gaming_mode true`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current switching preferences",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one switching preference",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return util.SettingKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Switching Settings"))

	keys := util.SettingKeys()
	sort.Strings(keys)
	for _, k := range keys {
		printField(fmt.Sprintf("  %-28s", k), fmt.Sprint(viper.Get("settings."+k)))
	}

	fmt.Println()
	printField("  Switch threshold: ", fmt.Sprintf("%d dBm", cfg.Settings.SwitchThresholdDbm()))
	printField("  Badge threshold: ", fmt.Sprintf("%d dBm", cfg.Settings.BadgeThresholdDbm()))
	if f := viper.ConfigFileUsed(); f != "" {
		printField("  Config file: ", f)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimPrefix(strings.ToLower(args[0]), "settings.")
	if !util.IsSettingKey(key) {
		keys := util.SettingKeys()
		sort.Strings(keys)
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(keys, ", "))
	}

	if err := util.SaveSetting(cfg.DataDir, key, args[1]); err != nil {
		return err
	}

	fmt.Printf("%s = %s\n", key, viper.GetString("settings."+key))
	return nil
}
