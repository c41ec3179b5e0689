package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Render text as speech into a WAV file",
		Args:  cobra.ExactArgs(1),
		Run:   runSpeak,
	}
	cmd.Flags().StringP("output", "o", "speech.wav", "Output file")

	RootCmd.AddCommand(cmd)
}

func runSpeak(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("output")

	a := openApp(cmd.Context())
	defer a.close()

	wav, err := a.svc.Speak(cmd.Context(), args[0])
	if err != nil {
		exitErr("speak", err)
	}
	if err := os.WriteFile(out, wav, 0o644); err != nil {
		exitErr("write audio", err)
	}
	fmt.Printf(`{"ok":true,"file":%q,"bytes":%d}`+"\n", out, len(wav))
}
