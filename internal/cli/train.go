package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/selfgate/internal/extract"
	"github.com/rcliao/selfgate/internal/gate"
	"github.com/rcliao/selfgate/internal/transcript"
)

func init() {
	cmd := &cobra.Command{
		Use:   "train <chat.jsonl>",
		Short: "Run the write gate over a chat log",
		Long: "Read a JSON Lines chat log ({role, content, time?, user_lang?} per line), feed every " +
			"assistant turn through the write gate and print the stored rules.",
		Args: cobra.ExactArgs(1),
		Run:  runTrain,
	}

	RootCmd.AddCommand(cmd)
}

func runTrain(cmd *cobra.Command, args []string) {
	f, err := os.Open(args[0])
	if err != nil {
		exitErr("open transcript", err)
	}
	defer f.Close()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	g := gate.New(s, extract.New(cfg.ExtractSettings()), cfg.GateSettings(), gate.WithLogger(logger))

	var prev transcript.Features
	saved := 0
	reasons := map[string]int{}
	stats, err := transcript.Read(f, func(t transcript.Turn) error {
		switch t.Role {
		case transcript.RoleUser:
			prev = transcript.FromUserTurn(t)
		case transcript.RoleAssistant:
			items, err := g.ProcessAssistantTurn(ctx, t.Content, t.Meta(prev))
			if err != nil {
				return err
			}
			reasons[g.LastDecision().Reason]++
			for _, it := range items {
				saved++
				logger.Info("rule saved", zap.String("key", it.Key), zap.String("at", it.CreatedAt))
			}
		}
		return nil
	})
	if err != nil {
		exitErr("train", err)
	}

	logger.Info("transcript processed",
		zap.Int("lines", stats.Lines),
		zap.Int("malformed", stats.Malformed),
		zap.Int("assistant_turns", stats.Assistant),
		zap.Int("saved", saved),
		zap.Int("skipped_turn_gap", reasons[gate.ReasonTurnGap]),
		zap.Int("skipped_no_candidates", reasons[gate.ReasonNoCandidates]),
		zap.Int("skipped_daily_quota", reasons[gate.ReasonDailyQuota]))

	items, err := s.List(ctx)
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, it := range items {
			fmt.Printf("%s: %s\n", it.Key, it.Claim)
		}
		return
	}
	b, _ := json.MarshalIndent(items, "", "  ")
	fmt.Println(string(b))
}
