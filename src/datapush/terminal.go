package datapush

import (
	"AgroStats/src/processor"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-gota/gota/dataframe"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

// RenderTable 以表格形式输出一个DataFrame，第一行为列名
func RenderTable(w io.Writer, title string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return df.Err
	}

	records := df.Records()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(records[0]...).
		Rows(records[1:]...)

	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(title), t.Render())
	return err
}

// RenderReport 依次输出年度极值表和作物平均值表
func RenderReport(w io.Writer, report *processor.Report) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", titleStyle.Render(processor.PageTitle)); err != nil {
		return err
	}
	if err := RenderTable(w, processor.YearlyTitle, report.YearlyFrame()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return RenderTable(w, processor.AveragesTitle, report.AveragesFrame())
}
