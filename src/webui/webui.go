package webui

import (
	"AgroStats/src/processor"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LogSource 提供实时日志订阅，storage.Logger 实现了它
type LogSource interface {
	Subscribe() <-chan string
	Unsubscribe(<-chan string)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
.table-container { margin: 1em 0; }
.table { border-collapse: collapse; }
.table th, .table td { border: 1px solid #ccc; padding: 4px 12px; text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Report}}<p>{{.Report.Source}}, {{.Report.Records}} records, {{.Report.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
<p class="updated">updated {{.UpdatedAt.Format "2006-01-02 15:04:05"}}</p>{{end}}
<h2>{{.YearlyTitle}}</h2>
<div class="table-container">
<table class="table">
<thead><tr><th>Year</th><th>Max Crop</th><th>Min Crop</th></tr></thead>
<tbody>
{{range .Yearly}}<tr><td>{{.Year}}</td><td>{{.MaxCrop}}</td><td>{{.MinCrop}}</td></tr>
{{end}}</tbody>
</table>
</div>
<h2>{{.AveragesTitle}}</h2>
<div class="table-container">
<table class="table">
<thead><tr><th>Crop</th><th>Average Yield</th><th>Average Area</th></tr></thead>
<tbody>
{{range .Averages}}<tr><td>{{.Crop}}</td><td>{{.AvgYield}}</td><td>{{.AvgArea}}</td></tr>
{{end}}</tbody>
</table>
</div>
</body>
</html>
`))

type pageData struct {
	Title         string
	YearlyTitle   string
	AveragesTitle string
	Report        *processor.Report
	UpdatedAt     time.Time
	Yearly        []processor.YearExtremum
	Averages      []processor.CropAverage
}

// NewHandler 注册页面、JSON接口、实时日志和指标路由。
// logs 和 gatherer 可以为nil，对应路由不注册。
func NewHandler(store *processor.ReportWrapper, logs LogSource, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		report := store.GetReport()
		data := pageData{
			Title:         processor.PageTitle,
			YearlyTitle:   processor.YearlyTitle,
			AveragesTitle: processor.AveragesTitle,
			Report:        report,
			UpdatedAt:     store.UpdatedAt(),
		}
		if report != nil {
			data.Yearly = report.Yearly
			data.Averages = report.Averages
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("GET /api/yearly", func(w http.ResponseWriter, r *http.Request) {
		report := store.GetReport()
		if report == nil {
			http.Error(w, "数据尚未加载", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, report.Yearly)
	})

	mux.HandleFunc("GET /api/averages", func(w http.ResponseWriter, r *http.Request) {
		report := store.GetReport()
		if report == nil {
			http.Error(w, "数据尚未加载", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, report.Averages)
	})

	if logs != nil {
		mux.HandleFunc("GET /logs", streamLogs(logs))
	}
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// streamLogs 持续向客户端输出日志，直到客户端断开
func streamLogs(logs LogSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		logChan := logs.Subscribe()
		defer logs.Unsubscribe(logChan)

		flusher, _ := w.(http.Flusher)
		if flusher != nil {
			flusher.Flush()
		}

		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}
