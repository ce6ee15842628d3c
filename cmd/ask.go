package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func askCMD(cfgPath *string) *cobra.Command {
	var bullets int
	var ask = &cobra.Command{
		Use:   "ask <query>",
		Short: "Research a single query and print the JSON result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			if !cmd.Flags().Changed("bullets") {
				bullets = a.cfg.Research.Bullets
			}
			res, err := a.pipeline.Answer(ctx, strings.Join(args, " "), bullets)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res)
		},
	}
	ask.Flags().IntVarP(&bullets, "bullets", "n", 6, "number of answer bullets")

	return ask
}
