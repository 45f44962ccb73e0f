package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/repository"
	"grade-planner/backend/internal/service"
	"grade-planner/backend/internal/timetable"
	"grade-planner/backend/pkg/database"
	applogger "grade-planner/backend/pkg/logger"
)

var (
	importCatalog string
	importDryRun  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "把目录文件导入数据库（按课程代码覆盖）",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		courses, err := LoadCatalog(importCatalog)
		if err != nil {
			return err
		}
		if importDryRun {
			return printImportPlan(cmd.OutOrStdout(), courses)
		}
		return runImport(cmd.Context(), cmd.OutOrStdout(), configPath, courses)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importCatalog, "file", "f", "catalog.yaml", "课程目录文件")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "只校验并列出将导入的课程")
}

func runImport(ctx context.Context, w io.Writer, cfgPath string, courses []timetable.Course) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, false, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return err
	}

	catalog := service.NewCatalogService(repository.NewRepository(db), logger.Named("import"))
	n, err := catalog.ImportCourses(ctx, courses)
	if err != nil {
		logger.Error("导入失败", zap.Error(err))
		return err
	}

	if jsonOutput {
		return outputJSON(w, map[string]int{"imported": n})
	}
	printSuccess(w, fmt.Sprintf("已导入 %d 门课程", n))
	return nil
}

func printImportPlan(w io.Writer, courses []timetable.Course) error {
	if jsonOutput {
		return outputJSON(w, courses)
	}
	printHeader(w, fmt.Sprintf("将导入 %d 门课程", len(courses)))
	for _, c := range courses {
		printLabelValue(w, c.Code, fmt.Sprintf("%s（%d 个开班）", c.Name, len(c.Sections)))
		for _, s := range c.Sections {
			if timetable.SelfConflicting(s) {
				printWarning(w, fmt.Sprintf("%s 自身时间段重叠", sectionLabel(c.Code, s.Code)))
			}
		}
	}
	return nil
}
