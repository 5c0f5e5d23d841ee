package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unirag/campus-rag/router"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [question]",
	Short: "Show the routing decision for a question without retrieving anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.NewRouter(cfg.Router, cfg.HTTP)
		decision, err := r.Route(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
