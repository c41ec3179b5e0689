package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage chat sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently used first",
		Args:  cobra.NoArgs,
		Run:   runSessionList,
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new session and make it active",
		Args:  cobra.NoArgs,
		Run:   runSessionNew,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionRm,
	}

	useCmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Make a session active",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionUse,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		Run:   runSessionRename,
	}

	transcriptCmd := &cobra.Command{
		Use:   "transcript [id]",
		Short: "Print a session transcript (default: the active session)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSessionTranscript,
	}
	transcriptCmd.Flags().Bool("save", false, "Write to <course>_chat.txt instead of stdout")

	for _, c := range []*cobra.Command{listCmd, newCmd, rmCmd, useCmd, renameCmd, transcriptCmd} {
		addCourseFlag(c)
		sessionCmd.AddCommand(c)
	}
	RootCmd.AddCommand(sessionCmd)
}

func sessionRows(sessions []model.ChatSession, active string) func() [][]string {
	return func() [][]string {
		rows := make([][]string, len(sessions))
		for i, s := range sessions {
			mark := ""
			if s.ID == active {
				mark = "*"
			}
			rows[i] = []string{s.ID, s.Title, strconv.Itoa(len(s.Messages)), mark}
		}
		return rows
	}
}

func runSessionList(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	sessions, active, err := a.svc.SessionList(cmd.Context(), id)
	if err != nil {
		exitErr("list sessions", err)
	}
	printOut(sessions, []string{"Session", "Title", "Messages", "Active"}, sessionRows(sessions, active))
}

func runSessionNew(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	sess, err := a.svc.CreateSession(cmd.Context(), id)
	if err != nil {
		exitErr("create session", err)
	}
	printOut(sess, []string{"Session", "Title", "Messages", "Active"}, sessionRows([]model.ChatSession{*sess}, sess.ID))
}

func runSessionRm(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.DeleteSession(cmd.Context(), id, args[0]); err != nil {
		exitErr("delete session", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}

func runSessionUse(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.ActivateSession(cmd.Context(), id, args[0]); err != nil {
		exitErr("activate session", err)
	}
	fmt.Printf(`{"ok":true,"active":%q}`+"\n", args[0])
}

func runSessionRename(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.RenameSession(cmd.Context(), id, args[0], args[1]); err != nil {
		exitErr("rename session", err)
	}
	fmt.Printf(`{"ok":true,"renamed":%q}`+"\n", args[0])
}

func runSessionTranscript(cmd *cobra.Command, args []string) {
	save, _ := cmd.Flags().GetBool("save")
	id := courseID()
	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	}

	a := openApp(cmd.Context())
	defer a.close()

	text, err := a.svc.Transcript(cmd.Context(), id, sessionID)
	if err != nil {
		exitErr("transcript", err)
	}
	if !save {
		fmt.Print(text)
		return
	}
	course, err := a.svc.Course(cmd.Context(), id)
	if err != nil {
		exitErr("transcript", err)
	}
	name := tutor.TranscriptFilename(course.Title)
	if err := os.WriteFile(name, []byte(text), 0o644); err != nil {
		exitErr("write transcript", err)
	}
	fmt.Printf(`{"ok":true,"file":%q}`+"\n", name)
}
