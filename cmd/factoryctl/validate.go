package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gridfactory.dev/internal/sim/factory"
	"gridfactory.dev/internal/sim/level"
)

var validateCmd = &cobra.Command{
	Use:   "validate <level.yaml>...",
	Short: "Check level files against the schema and build a session from each",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		failed := 0
		for _, path := range args {
			lv, err := level.Load(path)
			if err == nil {
				_, err = factory.NewSession(lv.ToConfig())
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s name=%q grid=%dx%d tick=%s inputs=%d digest=%s\n",
				path, lv.Name, lv.WorldSize[0], lv.WorldSize[1], lv.TickPeriod(), len(lv.Inputs), lv.Digest()[:12])
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d level files invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
