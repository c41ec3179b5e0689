package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/tutor"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the tutor a question",
		Long: "Send one message to the tutor, or with no argument read one message per line from stdin " +
			"until EOF. Every turn is grounded in the course's current materials.",
		Args: cobra.MaximumNArgs(1),
		Run:  runChat,
	}
	addCourseFlag(cmd)
	cmd.Flags().StringP("session", "s", "", "Session id (default: the active session)")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	sessionID, _ := cmd.Flags().GetString("session")
	id := courseID()

	a := openApp(cmd.Context())
	defer a.close()

	send := func(text string) {
		reply, err := a.svc.SendMessage(cmd.Context(), tutor.SendParams{
			CourseID:  id,
			SessionID: sessionID,
			Text:      text,
		})
		if err != nil {
			exitErr("chat", err)
		}
		sessionID = reply.SessionID
		if reply.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", reply.Err)
		}
		if textFormat() {
			fmt.Printf("%s\n\n", reply.Model.Content)
			return
		}
		printJSON(reply)
	}

	if len(args) == 1 {
		send(args[0])
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		send(line)
	}
	if err := scanner.Err(); err != nil {
		exitErr("read stdin", err)
	}
}
