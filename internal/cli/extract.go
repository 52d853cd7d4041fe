package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/selfgate/internal/extract"
	"github.com/rcliao/selfgate/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract [reply]",
		Short: "Show the candidate rules a reply would produce",
		Long:  "Run the pattern extractor on one reply. The reply can be a positional arg or piped via stdin. Nothing is stored.",
		Run:   runExtract,
	}

	cmd.Flags().String("time", "", "ISO-8601 timestamp for the evidence (default: now)")
	cmd.Flags().StringP("lang", "l", "", "User language hint: ru or en")

	RootCmd.AddCommand(cmd)
}

func runExtract(cmd *cobra.Command, args []string) {
	when, _ := cmd.Flags().GetString("time")
	lang, _ := cmd.Flags().GetString("lang")

	// Get content: positional arg first, then check stdin
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("extract", fmt.Errorf("reply text is required (positional arg or stdin)"))
	}

	candidates := extract.New(cfg.ExtractSettings()).Extract(text, model.Meta{Time: when, UserLang: lang})

	if formatFlag == "text" {
		for _, c := range candidates {
			fmt.Printf("%s\t%s\n", c.Key, c.Claim)
		}
		return
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	b, _ := json.MarshalIndent(candidates, "", "  ")
	fmt.Println(string(b))
}
