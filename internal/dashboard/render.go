package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/ticker-pulse/internal/domain"
	"github.com/qepting91/ticker-pulse/internal/filter"
)

var liveTmpl = template.Must(template.New("live").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Live Market Pulse</title>
{{if .RefreshSeconds}}<meta http-equiv="refresh" content="{{.RefreshSeconds}}">{{end}}
</head><body>
<h1>Live Market Pulse</h1>
<p>Real-time sentiment tracking from <strong>{{.Display}}</strong></p>
<form method="post" action="/apply">
  <label>Subreddit
    <select name="subreddit">{{range .Subreddits}}
      <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Display}}</option>{{end}}
    </select>
  </label>
  <label>Time Period
    <input type="number" name="time_value" min="1" max="{{.Max}}" value="{{.State.Pending.TimeValue}}">
    <select name="time_unit">{{range .Units}}
      <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}
    </select>
  </label>
  <button type="submit"{{if .ApplyDisabled}} disabled{{end}}>Apply Filters</button>
</form>
<form method="post" action="/refresh"><button type="submit"{{if .State.IsLoading}} disabled{{end}}>Refresh</button></form>
<dl>
  <dt>Total Mentions</dt><dd>{{.State.Result.TotalMentions}}</dd>
  <dt>Time Range</dt><dd>Last {{.TimeText}}</dd>
  <dt>Last Updated</dt><dd>{{.Updated}}</dd>
</dl>
{{if .State.LastError}}<p class="error">Latest fetch failed ({{.State.LastError}}); showing no data.</p>{{end}}
<p>Live counting in progress. Charts update automatically every {{.Cadence}}.</p>
<p><a href="/home">Latest batch</a></p>
</body></html>
`))

var stockTmpl = template.Must(template.New("stock").Funcs(template.FuncMap{
	"deref": func(p *int) int { return *p },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Symbol}}</title></head><body>
<p><a href="/">Back</a></p>
<h1>{{.Symbol}}</h1>
<dl>
  <dt>Total Mentions</dt><dd>{{.TotalMentions}}</dd>
  <dt>Positive</dt><dd>{{if .PositiveMentions}}{{deref .PositiveMentions}}{{else}}N/A{{end}}</dd>
  <dt>Negative</dt><dd>{{if .NegativeMentions}}{{deref .NegativeMentions}}{{else}}N/A{{end}}</dd>
  <dt>Analysis Date</dt><dd>{{if .AnalysisDate}}{{.AnalysisDate}}{{else}}N/A{{end}}</dd>
</dl>
<pre>{{.Analysis}}</pre>
</body></html>
`))

type option struct {
	Value    string
	Label    string
	Display  string
	Selected bool
}

type liveView struct {
	State          domain.EngineState
	Display        string
	TimeText       string
	Updated        string
	Max            int
	ApplyDisabled  bool
	RefreshSeconds int
	Cadence        string
	Subreddits     []option
	Units          []option
}

func newLiveView(st domain.EngineState, refresh time.Duration) liveView {
	v := liveView{
		State:          st,
		Display:        filter.DisplayName(st.Applied.Subreddit),
		TimeText:       filter.Label(st.Applied.TimeUnit, st.Applied.TimeValue),
		Updated:        "...",
		Max:            filter.Bounds(st.Pending.TimeUnit).Max,
		ApplyDisabled:  !st.ApplyEnabled || st.IsLoading,
		RefreshSeconds: int(refresh / time.Second),
		Cadence:        "minute",
	}
	if refresh > 0 && refresh != time.Minute {
		v.Cadence = refresh.String()
	}
	if !st.LastUpdatedAt.IsZero() {
		v.Updated = st.LastUpdatedAt.Local().Format("15:04:05")
	}
	for _, s := range filter.Subreddits {
		v.Subreddits = append(v.Subreddits, option{Value: string(s.Value), Label: s.Label, Display: s.Display, Selected: s.Value == st.Pending.Subreddit})
	}
	for _, u := range filter.Units {
		v.Units = append(v.Units, option{Value: string(u.Value), Label: u.Label, Selected: u.Value == st.Pending.TimeUnit})
	}
	return v
}

func rankingBar(title, subtitle string, items []domain.TickerMention) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	x := make([]string, 0, len(items))
	y := make([]opts.BarData, 0, len(items))
	for _, it := range items {
		x = append(x, it.Symbol)
		y = append(y, opts.BarData{Value: it.MentionCount})
	}
	bar.SetXAxis(x).AddSeries("Mentions", y)
	return bar
}

func historyLine(history []domain.Snapshot) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Total Mentions Over Time"}))
	x := make([]string, 0, len(history))
	y := make([]opts.LineData, 0, len(history))
	for _, s := range history {
		x = append(x, s.FetchedAt.Local().Format("15:04"))
		y = append(y, opts.LineData{Value: s.TotalMentions})
	}
	line.SetXAxis(x).AddSeries("Total", y)
	return line
}

func renderLive(w io.Writer, st domain.EngineState, history []domain.Snapshot, refresh time.Duration) error {
	if err := liveTmpl.Execute(w, newLiveView(st, refresh)); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = "Live Market Pulse"
	page.AddCharts(rankingBar(filter.Title(st.Applied), "", st.Result.Items))
	if len(history) > 0 {
		page.AddCharts(historyLine(history))
	}
	return page.Render(w)
}

func renderHome(w io.Writer, home domain.HomeSnapshot) error {
	subtitle := "Total mentions: " + strconv.Itoa(home.Result.TotalMentions)
	if home.Batch != nil {
		subtitle += fmt.Sprintf(" | Batch %s - %s", home.Batch.Start, home.Batch.End)
	}
	page := components.NewPage()
	page.PageTitle = "Market Intelligence"
	page.AddCharts(rankingBar("Latest Batch Top Mentions", subtitle, home.Result.Items))
	return page.Render(w)
}

func renderStock(w io.Writer, d domain.StockDetail) error {
	if err := stockTmpl.Execute(w, d); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = d.Symbol
	page.AddCharts(rankingBar(d.Symbol+" Mention History (Last 7 Days)", "", d.History))
	return page.Render(w)
}
