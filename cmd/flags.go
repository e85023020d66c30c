package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags maps flag names onto viper keys, letting config files and the
// environment supply them.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag --%s is not defined", name))
		}
		cobra.CheckErr(viper.BindPFlag(key, flag))
	}
}

func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

// normalizeTables lower-cases table names and drops blanks and repeats.
func normalizeTables(values []string) []string {
	tables := lo.Uniq(lo.FilterMap(values, func(v string, _ int) (string, bool) {
		name := strings.ToLower(strings.TrimSpace(v))
		return name, name != ""
	}))
	if len(tables) == 0 {
		return nil
	}
	return tables
}
