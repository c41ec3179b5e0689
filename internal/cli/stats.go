package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cmd.Context(), cfg)
	defer s.Close()

	stats, err := store.CollectStats(cmd.Context(), cfg.Store.Driver, s)
	if err != nil {
		exitErr("stats", err)
	}

	if !textFormat() {
		printJSON(stats)
		return
	}
	fmt.Printf("driver: %s  keys: %d  bytes: %d\n", stats.Driver, stats.TotalKeys, stats.ValueBytes)
	fmt.Println(renderTable([]string{"Course", "Keys", "Bytes"}, func() [][]string {
		rows := make([][]string, len(stats.Courses))
		for i, c := range stats.Courses {
			rows[i] = []string{c.CourseID, strconv.Itoa(c.Keys), strconv.FormatInt(c.ValueBytes, 10)}
		}
		return rows
	}()))
}
