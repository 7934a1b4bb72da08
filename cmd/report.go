package cmd

import (
	"fmt"
	"strings"

	"github.com/burnwise/burnwise/internal/cli"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/analytics"
	"github.com/burnwise/burnwise/pkg/dataservice"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagUser      string
	flagProject   int
	flagGroupBy   string
	flagStartDate string
	flagEndDate   string
	flagPerson    string
	flagBillable  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print burn rate health and the grouped time report of a project",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&flagServer, "server", "", "Base URL of the burnwise server (defaults to dataservice.baseurl)")
	reportCmd.Flags().StringVar(&flagUser, "user", "", "User id sent as X-User-Id")
	reportCmd.Flags().IntVarP(&flagProject, "project", "p", 0, "Project ID")
	reportCmd.Flags().StringVarP(&flagGroupBy, "group-by", "g", "none", "Grouping: none, month, workstream or stage")
	reportCmd.Flags().StringVar(&flagStartDate, "start", "", "Inclusive start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&flagEndDate, "end", "", "Inclusive end date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&flagPerson, "person", timeentry.AllPeople, "Person ID or 'all'")
	reportCmd.Flags().StringVar(&flagBillable, "billable", "all", "all, billable or non-billable")
	_ = reportCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagServer != "" {
		cfg.DataService.BaseURL = flagServer
	}
	if flagUser != "" {
		cfg.DataService.UserId = flagUser
	}

	dim, err := timeentry.ParseGroupingDimension(flagGroupBy)
	if err != nil {
		return err
	}
	criteria, err := reportCriteria(flagStartDate, flagEndDate, flagPerson, flagBillable)
	if err != nil {
		return err
	}

	service := analytics.NewService(dataservice.NewClient(cfg.DataService), &utils.SystemClock{}, nil)
	ctx := cmd.Context()

	result, err := service.GetProjectAnalytics(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("failed to load analytics of project %d: %w", flagProject, err)
	}
	report, err := service.GetTimeEntryReport(ctx, flagProject, criteria, dim)
	if err != nil {
		return fmt.Errorf("failed to load time report of project %d: %w", flagProject, err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(strings.ToUpper(result.Project.Name)))
	fmt.Println()
	fmt.Print(renderAnalytics(result))
	fmt.Println()
	fmt.Print(renderReport(report))
	return nil
}

// reportCriteria builds the report filter from the command flags. A date flag
// that is set but not a date is an error rather than no bound.
func reportCriteria(start, end, person, billable string) (timeentry.FilterCriteria, error) {
	billableFilter, err := timeentry.ParseBillableFilter(billable)
	if err != nil {
		return timeentry.FilterCriteria{}, err
	}
	startDate, err := dateFlag("start", start)
	if err != nil {
		return timeentry.FilterCriteria{}, err
	}
	endDate, err := dateFlag("end", end)
	if err != nil {
		return timeentry.FilterCriteria{}, err
	}
	return timeentry.FilterCriteria{
		StartDate: startDate,
		EndDate:   endDate,
		PersonId:  person,
		Billable:  billableFilter,
	}, nil
}

func dateFlag(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	date := timeentry.NormalizeDate(value)
	if date == "" {
		return "", fmt.Errorf("%w: --%s %q is not a date", timeentry.ErrInvalidCriteria, name, value)
	}
	return date, nil
}

func renderAnalytics(a analytics.ProjectAnalytics) string {
	burn := a.BurnRate
	pct, _ := burn.BurnRatePercentage.Float64()
	completion := "n/a"
	if burn.ProjectedCompletion != nil {
		completion = burn.ProjectedCompletion.Format(timeentry.DateLayout)
	}

	var b strings.Builder
	b.WriteString(cli.RenderTable(cli.Table{
		Title:   "Burn Rate",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Health", cli.RenderHealth(a.Health)},
			{"Burn", fmt.Sprintf("%s %s%%", cli.RenderBar(pct, 20, a.Health), burn.BurnRatePercentage.StringFixed(1))},
			{"Total budget", burn.TotalBudget.StringFixed(2)},
			{"Consumed", burn.ConsumedBudget.StringFixed(2)},
			{"Projected completion", completion},
			{"Estimated hours", burn.EstimatedHours.StringFixed(2)},
			{"Actual hours", burn.ActualHours.StringFixed(2)},
			{"Hours variance", burn.HoursVariance.StringFixed(2)},
			{"Approved amendments", fmt.Sprintf("%d of %d", a.Budget.ApprovedCount, a.Budget.AmendmentCount)},
			{"Unbilled expenses", fmt.Sprintf("%d (%s)", a.UnbilledExpenses.Count, a.UnbilledExpenses.Amount.StringFixed(2))},
		},
	}))
	if len(a.MissingTimeThisMonth) > 0 {
		b.WriteString("  ")
		b.WriteString(cli.RenderMuted("No time logged this month: " + strings.Join(a.MissingTimeThisMonth, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderReport(r timeentry.Report) string {
	if r.Overall == nil {
		return "  " + cli.RenderMuted("No time entries match the filters") + "\n"
	}
	rows := make([][]string, 0, len(r.Groups)+1)
	for _, g := range r.Groups {
		rows = append(rows, summaryRow(g.Name, len(g.Entries), g.Summary))
	}
	rows = append(rows, summaryRow("Total", r.Overall.LockedCount+r.Overall.UnlockedCount, r.Overall.Summary))

	title := "Time Entries"
	if r.Overall.DateRange != nil {
		title = fmt.Sprintf("Time Entries %s to %s", r.Overall.DateRange.Start, r.Overall.DateRange.End)
	}
	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Group", "Entries", "Hours", "Billable", "Non-billable", "Revenue"},
		Rows:    rows,
	})
}

func summaryRow(name string, count int, s timeentry.Summary) []string {
	return []string{
		name,
		fmt.Sprintf("%d", count),
		s.TotalHours.StringFixed(2),
		s.BillableHours.StringFixed(2),
		s.NonBillableHours.StringFixed(2),
		s.TotalRevenue.StringFixed(2),
	}
}
