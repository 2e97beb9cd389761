package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/database"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Attendance ledger operations",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceList,
}

var attendanceSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show known identities and present count for a day",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceSummary,
}

var attendanceDeleteDayCmd = &cobra.Command{
	Use:   "delete-day <YYYY-MM-DD>",
	Short: "Delete every record of one date",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceDeleteDay,
}

var attendanceDeleteIdentityCmd = &cobra.Command{
	Use:   "delete-identity <name>",
	Short: "Delete every record of one identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceDeleteIdentity,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd, attendanceSummaryCmd, attendanceDeleteDayCmd, attendanceDeleteIdentityCmd)

	attendanceListCmd.Flags().String("date", "", "Only records of this date (YYYY-MM-DD)")
	attendanceListCmd.Flags().Bool("json", false, "Output as JSON")
	attendanceSummaryCmd.Flags().String("date", "", "Date to summarize (default today)")
	attendanceSummaryCmd.Flags().Bool("json", false, "Output as JSON")
	attendanceDeleteDayCmd.Flags().Bool("yes", false, "Confirm deletion")
	attendanceDeleteIdentityCmd.Flags().Bool("yes", false, "Confirm deletion")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	records, err := eng.ListAttendance(ctx, mustGetString(cmd, "date"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		if records == nil {
			records = []database.AttendanceRecord{}
		}
		return outputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records.")
		return nil
	}
	fmt.Printf("%-30s %-10s %s\n", "NAME", "DATE", "TIME")
	for _, r := range records {
		fmt.Printf("%-30s %-10s %s\n", r.Name, r.Date, r.Time)
	}
	return nil
}

func runAttendanceSummary(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	var summary database.Summary
	if date := mustGetString(cmd, "date"); date != "" {
		summary, err = eng.SummaryForDate(ctx, date)
	} else {
		summary, err = eng.GetDashboardSummary(ctx, eng.Now())
	}
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(summary)
	}
	fmt.Printf("Date:           %s\n", summary.Date)
	fmt.Printf("Total Students: %d\n", summary.TotalKnownIdentities)
	fmt.Printf("Present Today:  %d\n", summary.PresentCount)
	return nil
}

func runAttendanceDeleteDay(cmd *cobra.Command, args []string) error {
	if _, err := database.ParseDate(args[0]); err != nil {
		return err
	}
	if err := requireConfirmation(cmd, "delete attendance for "+args[0]); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	n, err := eng.DeleteAttendanceForDate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d record(s) for %s\n", n, args[0])
	return nil
}

func runAttendanceDeleteIdentity(cmd *cobra.Command, args []string) error {
	if err := requireConfirmation(cmd, "delete attendance of "+args[0]); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, backend, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer backend.Close()

	n, err := eng.DeleteAttendanceForIdentity(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d record(s) for %s\n", n, args[0])
	return nil
}
