package processor

import (
	"AgroStats/src/config"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/errgroup"
)

// 页面/表格标题
const (
	PageTitle     = "Indian Agriculture Data Analysis"
	YearlyTitle   = "Yearly Max and Min Production"
	AveragesTitle = "Average Yield and Cultivation Area"
)

// Logger 流水线使用的日志接口，storage.Logger 实现了它
type Logger interface {
	Info(msg string, keyvals ...any)
	Warning(msg string, keyvals ...any)
}

// Report 一次完整运行的结果
type Report struct {
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Records     int            `json:"records"`
	Yearly      []YearExtremum `json:"yearly"`
	Averages    []CropAverage  `json:"averages"`
}

// Pipeline 获取 -> 规范化 -> 聚合，每次 Run 都是一次独立的同步流程
type Pipeline struct {
	Source  Source
	Fields  *config.DataConfig
	Logger  Logger
	Metrics *Metrics
}

// NewPipeline 创建流水线，logger 和 metrics 可以为nil
func NewPipeline(src Source, fields *config.DataConfig, logger Logger, metrics *Metrics) *Pipeline {
	return &Pipeline{
		Source:  src,
		Fields:  fields,
		Logger:  logger,
		Metrics: metrics,
	}
}

// Run 执行一次完整流程。数据获取失败时直接返回错误，不会进入聚合。
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report, err := p.run(ctx)
	p.Metrics.observe(report, time.Since(start).Seconds(), err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context) (*Report, error) {
	if p.Source == nil {
		return nil, errors.New("未配置数据源")
	}

	rows, err := p.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取数据失败(%s): %w", p.Source, err)
	}

	if missing := p.missingColumns(rows); len(missing) > 0 {
		p.warn("数据集中缺少列，对应字段将按空值处理", "columns", missing)
	}

	records := Normalize(rows, p.Fields)

	// 两个聚合互不依赖，只读同一份记录
	var (
		yearly   []YearExtremum
		averages []CropAverage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		yearly = YearlyExtrema(records)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		averages = CropAverages(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Source:      p.Source.String(),
		GeneratedAt: time.Now(),
		Records:     len(records),
		Yearly:      yearly,
		Averages:    averages,
	}
	p.info("数据处理完成",
		"source", report.Source,
		"records", report.Records,
		"years", len(yearly),
		"crops", len(averages))
	return report, nil
}

// missingColumns 返回在所有行中都不存在的列名
func (p *Pipeline) missingColumns(rows []RawRecord) []string {
	if len(rows) == 0 {
		return nil
	}
	fields := []string{
		config.FieldCountry, config.FieldYear, config.FieldCrop,
		config.FieldProduction, config.FieldYield, config.FieldArea,
	}

	var missing []string
	for _, f := range fields {
		col := p.Fields.GetField(f)
		found := false
		for _, row := range rows {
			if _, ok := row[col]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	return missing
}

func (p *Pipeline) info(msg string, keyvals ...any) {
	if p.Logger != nil {
		p.Logger.Info(msg, keyvals...)
	}
}

func (p *Pipeline) warn(msg string, keyvals ...any) {
	if p.Logger != nil {
		p.Logger.Warning(msg, keyvals...)
	}
}

// YearlyFrame 年度极值表，列为 Year / Max Crop / Min Crop
func (r *Report) YearlyFrame() dataframe.DataFrame {
	years := make([]string, len(r.Yearly))
	maxCrops := make([]string, len(r.Yearly))
	minCrops := make([]string, len(r.Yearly))
	for i, row := range r.Yearly {
		years[i] = row.Year
		maxCrops[i] = row.MaxCrop
		minCrops[i] = row.MinCrop
	}
	return dataframe.New(
		series.New(years, series.String, "Year"),
		series.New(maxCrops, series.String, "Max Crop"),
		series.New(minCrops, series.String, "Min Crop"),
	)
}

// AveragesFrame 作物平均值表，列为 Crop / Average Yield / Average Area
func (r *Report) AveragesFrame() dataframe.DataFrame {
	crops := make([]string, len(r.Averages))
	yields := make([]string, len(r.Averages))
	areas := make([]string, len(r.Averages))
	for i, row := range r.Averages {
		crops[i] = row.Crop
		yields[i] = row.AvgYield
		areas[i] = row.AvgArea
	}
	return dataframe.New(
		series.New(crops, series.String, "Crop"),
		series.New(yields, series.String, "Average Yield"),
		series.New(areas, series.String, "Average Area"),
	)
}
