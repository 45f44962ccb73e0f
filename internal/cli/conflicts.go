package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"grade-planner/backend/internal/timetable"
)

var conflictsCatalog string

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <课程代码:开班代码>...",
	Short: "检查若干开班之间的时间冲突",
	Long: `检查给定开班两两之间是否存在时间重叠。
存在冲突时以非零状态退出，便于脚本使用。`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConflicts(cmd.OutOrStdout(), conflictsCatalog, args)
	},
}

func init() {
	conflictsCmd.Flags().StringVarP(&conflictsCatalog, "file", "f", "catalog.yaml", "课程目录文件")
}

func runConflicts(w io.Writer, catalog string, refs []string) error {
	courses, err := LoadCatalog(catalog)
	if err != nil {
		return err
	}

	items := make([]timetable.ScheduleItem, 0, len(refs))
	labels := make(map[string]string, len(refs))
	for _, ref := range refs {
		course, sec, err := findSection(courses, ref)
		if err != nil {
			return err
		}
		items = append(items, timetable.ScheduleItem{
			ID:        sec.ID,
			Kind:      timetable.ItemKindSection,
			SectionID: sec.ID,
			CourseID:  course.ID,
			Label:     sectionLabel(course.Code, sec.Code),
			Slots:     sec.Slots,
			Visible:   true,
		})
		labels[sec.ID] = sectionLabel(course.Code, sec.Code)
	}

	report := timetable.DetectConflicts(items)
	if jsonOutput {
		if err := outputJSON(w, report); err != nil {
			return err
		}
	} else if len(report.Conflicts) == 0 {
		printSuccess(w, fmt.Sprintf("%d 个开班之间没有时间冲突", len(items)))
	} else {
		for _, c := range report.Conflicts {
			printError(w, fmt.Sprintf("%s 与 %s 时间重叠", labels[c.A], labels[c.B]))
		}
	}

	if len(report.Conflicts) > 0 {
		return fmt.Errorf("发现 %d 处冲突", len(report.Conflicts))
	}
	return nil
}
