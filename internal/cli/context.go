package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/selfgate/internal/model"
	"github.com/rcliao/selfgate/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Assemble stored rules for a prompt",
		Long:  "Score stored rules by confidence, utility, recurrence and recency, then greedily pack them into a token budget.",
		Run:   runContext,
	}

	cmd.Flags().String("kind", "", "Filter by kind")
	cmd.Flags().IntP("budget", "n", 1000, "Max tokens in output")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	budget, _ := cmd.Flags().GetInt("budget")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := store.Context(cmd.Context(), s, store.ContextParams{
		Kind:   model.Kind(kind),
		Budget: budget,
	})
	if err != nil {
		exitErr("context", err)
	}

	if formatFlag == "text" {
		for _, r := range result.Rules {
			fmt.Printf("- %s\n", r.Claim)
		}
		return
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
