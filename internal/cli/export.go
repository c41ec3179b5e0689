package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored state as JSON",
		Long:  "Export every key-value entry as JSON. Limit to one course with -c.",
		Run:   runExport,
	}

	addCourseFlag(cmd)

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	prefix := ""
	if courseFlag != "" {
		prefix = store.CoursePrefix(courseFlag)
	}

	cfg := loadConfig()
	s := openStore(cmd.Context(), cfg)
	defer s.Close()

	entries, err := store.ExportAll(cmd.Context(), s, prefix)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(entries)
}
