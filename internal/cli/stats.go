package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/selfgate/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rule-set statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := store.Summarize(cmd.Context(), s)
	if err != nil {
		exitErr("stats", err)
	}
	stats.Backend = cfg.Store.Backend
	if cfg.Store.Backend != store.BackendMemory {
		stats.Path = cfg.Store.Path
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}
