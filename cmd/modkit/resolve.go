package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wippyai/modkit/resolver"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		from string
		typ  string
	)
	cmd := &cobra.Command{
		Use:   "resolve <specifier>...",
		Short: "Resolve module specifiers against the project root",
		Example: `  modkit resolve ./util --from src/main.ts
  modkit resolve react lodash/fp --type require`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rtyp, err := resolver.ParseResolutionType(typ)
			if err != nil {
				return err
			}

			rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			h, root, err := rt.NewResolver(a.cfg.Resolver)
			if err != nil {
				return err
			}

			referrer := from
			if referrer != "" && !filepath.IsAbs(referrer) {
				referrer = filepath.Join(root, referrer)
			}

			out := cmd.OutOrStdout()
			for _, spec := range args {
				path, err := rt.Resolve(h, spec, referrer, rtyp)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(out, path)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", spec, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "referrer file (default: the project root)")
	cmd.Flags().StringVarP(&typ, "type", "t", "import", "resolution type: import or require")
	return cmd
}
