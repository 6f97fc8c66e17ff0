package main

import (
	"fmt"
	"strconv"

	"github.com/DoyleJ11/quiz-client/internal/theme"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme [auto|light|dark|id]",
	Short: "Resolve and persist the theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requested := theme.None
		if len(args) == 1 {
			id, err := parseThemeArg(args[0])
			if err != nil {
				return err
			}
			requested = theme.Some(id)
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		fmt.Fprintln(cmd.OutOrStdout(), int(d.themes.Resolve(cmd.Context(), requested)))
		return nil
	},
}

var themeNames = map[string]theme.ID{
	"auto":  theme.Auto,
	"light": theme.Light,
	"dark":  theme.Dark,
}

// parseThemeArg takes a name, since "-1" reads as a flag on the command line.
func parseThemeArg(arg string) (theme.ID, error) {
	if id, ok := themeNames[arg]; ok {
		return id, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("theme %q: want auto, light, dark or an id", arg)
	}
	return theme.ID(n), nil
}
