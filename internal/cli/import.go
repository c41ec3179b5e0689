package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import stored state from JSON",
		Long:  "Import entries from JSON on stdin. Expects the format produced by export. Existing keys are overwritten.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var entries []store.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		exitErr("parse json", err)
	}

	cfg := loadConfig()
	s := openStore(cmd.Context(), cfg)
	defer s.Close()

	imported, err := store.Import(cmd.Context(), s, entries)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
