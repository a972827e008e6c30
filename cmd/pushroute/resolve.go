package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pushroute/pkg/browser"
	"github.com/vango-dev/pushroute/pkg/router"
)

func resolveCmd(configPath *string) *cobra.Command {
	var (
		navigate []string
		clicks   []string
		back     int
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path in a headless tab",
		Long: `Open a headless tab on path, resolve it the way a browser tab
would, then replay the given steps and print the resulting page.

Steps run in order: every --navigate, then every --click, then --back
history steps.

Examples:
  pushroute resolve /
  pushroute resolve / --click about --click contact --back 1
  pushroute resolve /about --navigate /unknown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := loadSite(cmd.Context(), *configPath, discardLogger())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(st.Triggers))
			for _, tr := range st.Triggers {
				ids = append(ids, tr.ID)
			}
			tab := browser.NewWindow(args[0], ids...)
			r := tab.NewRouter(append(st.RouterOptions(),
				router.WithLogger(discardLogger()))...)
			triggers, err := st.Mount(r)
			if err != nil {
				return err
			}
			if err := tab.BindTriggers(triggers); err != nil {
				return err
			}

			if err := r.ResolveCurrentContext(cmd.Context()); err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			for _, p := range navigate {
				if err := r.NavigateContext(cmd.Context(), p); err != nil {
					return fmt.Errorf("navigate %s: %w", p, err)
				}
			}
			for _, id := range clicks {
				if err := tab.Document.Click(id); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for i := 0; i < back; i++ {
				if !tab.History.Back() {
					warn(out, "start of history reached after %d back steps", i)
					break
				}
			}

			printTab(out, tab)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&navigate, "navigate", "n", nil, "Navigate to a path (repeatable)")
	cmd.Flags().StringArrayVar(&clicks, "click", nil, "Click the element with this id (repeatable)")
	cmd.Flags().IntVarP(&back, "back", "b", 0, "Go back this many history entries")

	return cmd
}

func printTab(w io.Writer, tab *browser.Window) {
	fmt.Fprintf(w, "  Address:  %s\n", tab.Location.Href())
	fmt.Fprintf(w, "  Title:    %s\n", tab.Document.Title)
	fmt.Fprintf(w, "  Content:  %s\n", tab.Document.Content())
	fmt.Fprintf(w, "  History:\n")
	for i, e := range tab.History.Entries() {
		marker := " "
		if i == tab.History.Index() {
			marker = ">"
		}
		fmt.Fprintf(w, "    %s %d %s\n", marker, i, e.URL)
	}
}
