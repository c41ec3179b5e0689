package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

func init() {
	materialCmd := &cobra.Command{
		Use:   "material",
		Short: "Manage analyzed course materials",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List materials, newest first",
		Args:  cobra.NoArgs,
		Run:   runMaterialList,
	}
	listCmd.Flags().String("folder", "", "Only materials in this folder")

	uploadCmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Analyze a file (or --text) and add the summary as a material",
		Long: "Send a video, audio or document file to Gemini for analysis and file the summary under the " +
			"target folder. Pass --text instead of a file to analyze pasted text as a document.",
		Args: cobra.MaximumNArgs(1),
		Run:  runMaterialUpload,
	}
	uploadCmd.Flags().StringP("type", "t", "", "Material type: video, audio or document (required)")
	uploadCmd.Flags().String("title", "", "Title (default: file name)")
	uploadCmd.Flags().String("folder", "", "Folder (default: the target folder)")
	uploadCmd.Flags().String("text", "", "Analyze this text instead of a file")
	uploadCmd.MarkFlagRequired("type")

	researchCmd := &cobra.Command{
		Use:   "research <query>",
		Short: "Research a topic on the web and add the overview as a material",
		Args:  cobra.ExactArgs(1),
		Run:   runMaterialResearch,
	}
	researchCmd.Flags().String("folder", "", "Folder (default: the target folder)")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a material",
		Args:  cobra.ExactArgs(1),
		Run:   runMaterialRm,
	}

	for _, c := range []*cobra.Command{listCmd, uploadCmd, researchCmd, rmCmd} {
		addCourseFlag(c)
		materialCmd.AddCommand(c)
	}
	RootCmd.AddCommand(materialCmd)
}

func materialRows(mats []model.Material) func() [][]string {
	return func() [][]string {
		rows := make([][]string, len(mats))
		for i, m := range mats {
			rows[i] = []string{m.ID, string(m.Type), m.Folder, m.Title, truncate(m.Summary, 60)}
		}
		return rows
	}
}

var materialHeaders = []string{"ID", "Type", "Folder", "Title", "Summary"}

func runMaterialList(cmd *cobra.Command, args []string) {
	folder, _ := cmd.Flags().GetString("folder")
	id := courseID()

	a := openApp(cmd.Context())
	defer a.close()

	var (
		mats []model.Material
		err  error
	)
	if cmd.Flags().Changed("folder") {
		mats, err = a.svc.MaterialsByFolder(cmd.Context(), id, folder)
	} else {
		mats, err = a.svc.Materials(cmd.Context(), id)
	}
	if err != nil {
		exitErr("list materials", err)
	}
	printOut(mats, materialHeaders, materialRows(mats))
}

func runMaterialUpload(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	title, _ := cmd.Flags().GetString("title")
	folder, _ := cmd.Flags().GetString("folder")
	text, _ := cmd.Flags().GetString("text")
	id := courseID()

	p := tutor.AnalyzeParams{
		CourseID: id,
		Type:     model.MaterialType(typ),
		Title:    title,
		Text:     text,
		Folder:   folder,
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			exitErr("read file", err)
		}
		p.Data = data
		p.MimeType = mime.TypeByExtension(filepath.Ext(args[0]))
		if p.Title == "" {
			p.Title = filepath.Base(args[0])
		}
	}

	a := openApp(cmd.Context())
	defer a.close()

	mat, err := a.svc.Analyze(cmd.Context(), p)
	if err != nil {
		exitErr("analyze", err)
	}
	printOut(mat, materialHeaders, materialRows([]model.Material{*mat}))
}

func runMaterialResearch(cmd *cobra.Command, args []string) {
	folder, _ := cmd.Flags().GetString("folder")
	id := courseID()

	a := openApp(cmd.Context())
	defer a.close()

	mat, err := a.svc.Research(cmd.Context(), tutor.ResearchParams{CourseID: id, Query: args[0], Folder: folder})
	if err != nil {
		exitErr("research", err)
	}
	printOut(mat, materialHeaders, materialRows([]model.Material{*mat}))
}

func runMaterialRm(cmd *cobra.Command, args []string) {
	id := courseID()
	a := openApp(cmd.Context())
	defer a.close()

	removed, err := a.svc.RemoveMaterial(cmd.Context(), id, args[0])
	if err != nil {
		exitErr("remove material", err)
	}
	fmt.Printf(`{"ok":true,"removed":%t}`+"\n", removed)
}
