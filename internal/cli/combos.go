package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"grade-planner/backend/internal/timetable"
)

type combosOptions struct {
	catalog string
	courses []string
	limit   int
	top     int
}

var combosOpts combosOptions

var combosCmd = &cobra.Command{
	Use:   "combos",
	Short: "生成并排序无冲突的开班组合",
	Long: `从目录文件中选取课程（默认全部，按 --courses 给定顺序），
枚举互不冲突的开班组合，按总学分降序输出。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCombos(cmd.OutOrStdout(), combosOpts)
	},
}

func init() {
	combosCmd.Flags().StringVarP(&combosOpts.catalog, "file", "f", "catalog.yaml", "课程目录文件")
	combosCmd.Flags().StringSliceVarP(&combosOpts.courses, "courses", "c", nil, "参与组合的课程代码，逗号分隔")
	combosCmd.Flags().IntVar(&combosOpts.limit, "limit", timetable.DefaultCap, "组合数量上限")
	combosCmd.Flags().IntVar(&combosOpts.top, "top", 10, "最多展示前 N 个组合，0 表示全部")
}

func runCombos(w io.Writer, opts combosOptions) error {
	all, err := LoadCatalog(opts.catalog)
	if err != nil {
		return err
	}
	courses, err := selectCourses(all, opts.courses)
	if err != nil {
		return err
	}

	limit := opts.limit
	if limit < 1 {
		limit = timetable.DefaultCap
	}
	result := timetable.Rank(timetable.GenerateCombinations(courses, limit))

	if jsonOutput {
		return outputJSON(w, result)
	}
	printCombos(w, courses, result, limit, opts.top)
	return nil
}

func printCombos(w io.Writer, courses []timetable.Course, result timetable.RankResult, limit, top int) {
	codes := make(map[string]string, len(courses))
	for _, c := range courses {
		codes[c.ID] = c.Code
	}

	if result.Stats.Count == 0 {
		printWarning(w, "所选课程不存在无冲突组合")
		return
	}

	header := fmt.Sprintf("共 %d 个组合", result.Stats.Count)
	if timetable.Truncated(result.Stats.Count, limit) {
		header += fmt.Sprintf("（已达上限 %d，结果按输入顺序截断）", limit)
	}
	printHeader(w, header)
	printLabelValue(w, "讲授学分", fmt.Sprintf("%d-%d", result.Stats.MinLecture, result.Stats.MaxLecture))
	printLabelValue(w, "实践学分", fmt.Sprintf("%d-%d", result.Stats.MinWork, result.Stats.MaxWork))
	fmt.Fprintln(w)

	for _, combo := range result.Ranked {
		if top > 0 && combo.Rank > top {
			fmt.Fprintf(w, "... 其余 %d 个组合未展示\n", len(result.Ranked)-top)
			break
		}
		_, _ = labelColor.Fprintf(w, "#%d", combo.Rank)
		fmt.Fprintf(w, "  总学分 %d（讲授 %d / 实践 %d）\n", combo.Total(), combo.LectureCredits, combo.WorkCredits)
		for _, s := range combo.Sections {
			fmt.Fprintf(w, "    %-14s %s\n", sectionLabel(codes[s.CourseID], s.Code), formatSlots(s.Slots))
		}
	}
}
