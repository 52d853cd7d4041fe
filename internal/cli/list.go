package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/selfgate/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored rules",
		Run:   runList,
	}

	cmd.Flags().String("kind", "", "Filter by kind: belief, style, format")
	cmd.Flags().Bool("keys-only", false, "Only output about/key pairs")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := s.List(cmd.Context())
	if err != nil {
		exitErr("list", err)
	}

	filtered := make([]model.MemoryItem, 0, len(items))
	for _, it := range items {
		if kind == "" || string(it.Kind) == kind {
			filtered = append(filtered, it)
		}
	}

	if keysOnly {
		for _, it := range filtered {
			fmt.Printf("%s/%s\n", it.About, it.Key)
		}
		return
	}

	if formatFlag == "text" {
		for _, it := range filtered {
			fmt.Printf("%s: %s (x%d, seen %s)\n", it.Key, it.Claim, it.Recurrence, it.LastSeenAt)
		}
		return
	}

	b, _ := json.MarshalIndent(filtered, "", "  ")
	fmt.Println(string(b))
}
