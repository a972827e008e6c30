package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func routesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Validate the project file and list its routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := loadSite(cmd.Context(), *configPath, discardLogger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "%s is valid", cfg.Path())
			fmt.Fprintln(out)

			for _, rt := range st.Routes {
				marker := " "
				if rt.Path == st.Default {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %-20s %s (%d bytes)\n", marker, rt.Path, rt.Title, len(rt.Content))
			}
			if len(st.Triggers) > 0 {
				fmt.Fprintln(out)
				triggers := append(st.Triggers[:0:0], st.Triggers...)
				sort.Slice(triggers, func(i, j int) bool { return triggers[i].ID < triggers[j].ID })
				for _, tr := range triggers {
					info(out, "#%s → %s", tr.ID, tr.Path)
				}
			}
			if st.Default == "" {
				fmt.Fprintln(out)
				warn(out, "no default route: unknown paths %s", notFoundBehavior(st.NotFound))
			}
			return nil
		},
	}
}

func notFoundBehavior(page string) string {
	if page == "" {
		return "fail to resolve"
	}
	return "show the not-found page"
}
