package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the grounding context the next chat turn would use",
		Long: "Print the system instruction assembled from the course details and every analyzed material, " +
			"grouped by folder. Useful for checking what the tutor knows.",
		Args: cobra.NoArgs,
		Run:  runContext,
	}
	addCourseFlag(cmd)

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	text, err := a.svc.Context(cmd.Context(), id)
	if err != nil {
		exitErr("context", err)
	}
	if textFormat() {
		fmt.Println(text)
		return
	}
	printJSON(map[string]string{"course_id": id, "context": text})
}
