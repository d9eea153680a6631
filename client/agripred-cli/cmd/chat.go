package cmd

import (
	"fmt"
	"strings"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/inference"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Ask the plant-care assistant a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := inference.NewClient(modelURL, nil).Chat(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
