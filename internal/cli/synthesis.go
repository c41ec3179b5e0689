package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	synthCmd := &cobra.Command{
		Use:   "synthesis",
		Short: "Show or regenerate the course synthesis",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored synthesis",
		Args:  cobra.NoArgs,
		Run:   runSynthesisShow,
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Synthesize every material into a study guide, replacing the stored one",
		Args:  cobra.NoArgs,
		Run:   runSynthesisGenerate,
	}

	for _, c := range []*cobra.Command{showCmd, generateCmd} {
		addCourseFlag(c)
		synthCmd.AddCommand(c)
	}
	RootCmd.AddCommand(synthCmd)
}

func printSynthesis(id, text string) {
	if textFormat() {
		fmt.Println(text)
		return
	}
	printJSON(map[string]string{"course_id": id, "synthesis": text})
}

func runSynthesisShow(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	text, err := a.svc.Synthesis(cmd.Context(), id)
	if err != nil {
		exitErr("synthesis", err)
	}
	printSynthesis(id, text)
}

func runSynthesisGenerate(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	text, err := a.svc.GenerateSynthesis(cmd.Context(), id)
	if err != nil {
		exitErr("generate synthesis", err)
	}
	printSynthesis(id, text)
}
