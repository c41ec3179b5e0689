package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

func init() {
	courseCmd := &cobra.Command{
		Use:   "course",
		Short: "Manage courses",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		Run:   runCourseList,
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a course",
		Args:  cobra.ExactArgs(1),
		Run:   runCourseAdd,
	}
	addCmd.Flags().String("description", "", "Course description")

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a course's title or description",
		Args:  cobra.ExactArgs(1),
		Run:   runCourseEdit,
	}
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("description", "", "New description")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a course and everything it owns",
		Args:  cobra.ExactArgs(1),
		Run:   runCourseRm,
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a course workspace",
		Args:  cobra.ExactArgs(1),
		Run:   runCourseShow,
	}

	courseCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, showCmd)
	RootCmd.AddCommand(courseCmd)
}

func courseRows(courses []model.Course) func() [][]string {
	return func() [][]string {
		rows := make([][]string, len(courses))
		for i, c := range courses {
			rows[i] = []string{c.ID, c.Title, truncate(c.Description, 50)}
		}
		return rows
	}
}

func runCourseList(cmd *cobra.Command, args []string) {
	a := openApp(cmd.Context())
	defer a.close()

	courses, err := a.svc.Courses(cmd.Context())
	if err != nil {
		exitErr("list courses", err)
	}
	printOut(courses, []string{"ID", "Title", "Description"}, courseRows(courses))
}

func runCourseAdd(cmd *cobra.Command, args []string) {
	desc, _ := cmd.Flags().GetString("description")

	a := openApp(cmd.Context())
	defer a.close()

	course, err := a.svc.CreateCourse(cmd.Context(), tutor.CourseParams{Title: args[0], Description: desc})
	if err != nil {
		exitErr("create course", err)
	}
	printOut(course, []string{"ID", "Title", "Description"}, courseRows([]model.Course{*course}))
}

func runCourseEdit(cmd *cobra.Command, args []string) {
	a := openApp(cmd.Context())
	defer a.close()

	current, err := a.svc.Course(cmd.Context(), args[0])
	if err != nil {
		exitErr("edit course", err)
	}
	p := tutor.CourseParams{Title: current.Title, Description: current.Description}
	if cmd.Flags().Changed("title") {
		p.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("description") {
		p.Description, _ = cmd.Flags().GetString("description")
	}

	course, err := a.svc.UpdateCourse(cmd.Context(), args[0], p)
	if err != nil {
		exitErr("edit course", err)
	}
	printOut(course, []string{"ID", "Title", "Description"}, courseRows([]model.Course{*course}))
}

func runCourseRm(cmd *cobra.Command, args []string) {
	a := openApp(cmd.Context())
	defer a.close()

	if err := a.svc.DeleteCourse(cmd.Context(), args[0]); err != nil {
		exitErr("delete course", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}

func runCourseShow(cmd *cobra.Command, args []string) {
	a := openApp(cmd.Context())
	defer a.close()

	ws, err := a.svc.Workspace(cmd.Context(), args[0])
	if err != nil {
		exitErr("show course", err)
	}
	if !textFormat() {
		printJSON(ws)
		return
	}
	fmt.Printf("%s (%s)\n%s\n\n", ws.Course.Title, ws.Course.ID, ws.Course.Description)
	fmt.Println(renderTable([]string{"Folder", "Materials", "Expanded", "Target"}, folderRows(ws.Folders, ws.Materials, ws.View)))
	fmt.Println(renderTable([]string{"Session", "Title", "Messages", "Active"}, sessionRows(ws.Sessions, ws.ActiveSession)()))
	if ws.Synthesis != "" {
		fmt.Printf("\nSynthesis:\n%s\n", ws.Synthesis)
	}
}
