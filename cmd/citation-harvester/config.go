// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Settings resolve in order: a flag given on the command line, the viper
// key (config file or CITATION_HARVESTER_* environment), then the flag
// default.

// fromConfig reports whether key should be read from viper.
func fromConfig(cmd *cobra.Command, flag, key string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return false
	}
	return key != "" && viper.IsSet(key)
}

func stringSetting(cmd *cobra.Command, flag, key string) string {
	if fromConfig(cmd, flag, key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	if fromConfig(cmd, flag, key) {
		return viper.GetInt(key)
	}
	v, _ := cmd.Flags().GetInt(flag)
	return v
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if fromConfig(cmd, flag, key) {
		return viper.GetBool(key)
	}
	v, _ := cmd.Flags().GetBool(flag)
	return v
}

func durationSetting(cmd *cobra.Command, flag, key string) time.Duration {
	if fromConfig(cmd, flag, key) {
		return viper.GetDuration(key)
	}
	v, _ := cmd.Flags().GetDuration(flag)
	return v
}

func stringSliceSetting(cmd *cobra.Command, flag, key string) []string {
	if fromConfig(cmd, flag, key) {
		return viper.GetStringSlice(key)
	}
	v, _ := cmd.Flags().GetStringArray(flag)
	return v
}

// secretSetting is stringSetting with the loaded secret as a last resort
// before an empty default.
func secretSetting(cmd *cobra.Command, flag, key, secret string) string {
	if v := stringSetting(cmd, flag, key); v != "" {
		return v
	}
	return loadedSecrets.Get(secret)
}
