package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/model"
)

func init() {
	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage a course's folders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List folders with material counts",
		Args:  cobra.NoArgs,
		Run:   runFolderList,
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderAdd,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a folder and move its materials",
		Args:  cobra.ExactArgs(2),
		Run:   runFolderRename,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a folder and every material in it",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderRm,
	}

	targetCmd := &cobra.Command{
		Use:   "target <name>",
		Short: "Select the folder new uploads go to",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderTarget,
	}

	for _, c := range []*cobra.Command{listCmd, addCmd, renameCmd, rmCmd, targetCmd} {
		addCourseFlag(c)
		folderCmd.AddCommand(c)
	}
	RootCmd.AddCommand(folderCmd)
}

func folderRows(folders []string, mats []model.Material, view model.View) [][]string {
	counts := map[string]int{}
	for _, m := range mats {
		counts[m.Folder]++
	}
	rows := make([][]string, len(folders))
	for i, f := range folders {
		target := ""
		if f == view.TargetFolder {
			target = "*"
		}
		expanded := ""
		if view.IsExpanded(f) {
			expanded = "yes"
		}
		rows[i] = []string{f, strconv.Itoa(counts[f]), expanded, target}
	}
	return rows
}

func printFolders(a *app, cmd *cobra.Command, folders []string) {
	if !textFormat() {
		printJSON(folders)
		return
	}
	mats, err := a.svc.Materials(cmd.Context(), courseFlag)
	if err != nil {
		exitErr("list materials", err)
	}
	view, err := a.svc.View(cmd.Context(), courseFlag)
	if err != nil {
		exitErr("load view", err)
	}
	printOut(folders, []string{"Folder", "Materials", "Expanded", "Target"}, func() [][]string {
		return folderRows(folders, mats, view)
	})
}

func runFolderList(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	folders, err := a.svc.Folders(cmd.Context(), id)
	if err != nil {
		exitErr("list folders", err)
	}
	printFolders(a, cmd, folders)
}

func runFolderAdd(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	folders, err := a.svc.CreateFolder(cmd.Context(), id, args[0])
	if err != nil {
		exitErr("create folder", err)
	}
	printFolders(a, cmd, folders)
}

func runFolderRename(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	folders, err := a.svc.RenameFolder(cmd.Context(), id, args[0], args[1])
	if err != nil {
		exitErr("rename folder", err)
	}
	printFolders(a, cmd, folders)
}

func runFolderRm(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	folders, err := a.svc.DeleteFolder(cmd.Context(), id, args[0])
	if err != nil {
		exitErr("delete folder", err)
	}
	printFolders(a, cmd, folders)
}

func runFolderTarget(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	view, err := a.svc.SetTargetFolder(cmd.Context(), id, args[0])
	if err != nil {
		exitErr("set target folder", err)
	}
	printJSON(view)
}
