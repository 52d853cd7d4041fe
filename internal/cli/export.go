package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/selfgate/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rules as JSON",
		Long:  `Export every stored rule in the {"items": [...]} document layout, whatever the backend.`,
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	doc, err := store.Export(cmd.Context(), s)
	if err != nil {
		exitErr("export", err)
	}

	b, err := doc.Encode()
	if err != nil {
		exitErr("export", err)
	}
	os.Stdout.Write(b)
}
