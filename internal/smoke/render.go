package smoke

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/okian/highlights/internal/domain/model"
)

// Render writes the report as tables.
func Render(w io.Writer, r *Report) {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleRounded)
	summary.SetTitle("Smoke run")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	for _, o := range []Outcome{OutcomeAccepted, OutcomeDuplicate, OutcomeRejected, OutcomeBusy, OutcomeFailed} {
		if n := r.Submitted[o]; n > 0 {
			summary.AppendRow(table.Row{"submitted " + string(o), n})
		}
	}
	summary.AppendRow(table.Row{"completed", r.Finished[model.SegmentCompleted]})
	summary.AppendRow(table.Row{"failed", r.Finished[model.SegmentFailed]})
	summary.AppendRow(table.Row{"unfinished", len(r.Unfinished)})
	summary.AppendSeparator()
	summary.AppendRow(table.Row{"highlights", r.Highlights})
	summary.AppendRow(table.Row{"clips ready", r.ClipsReady})
	summary.AppendRow(table.Row{"duration", r.Duration.Round(1e6).String()})
	summary.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	summary.Render()

	if len(r.Personalized) > 0 {
		fmt.Fprintln(w)
		RenderPersonalized(w, r.Personalized)
	}
}

// RenderHighlights writes one row per highlight.
func RenderHighlights(w io.Writer, hs []model.EnrichedHighlight) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Source", "Window", "Conf", "Title", "Clip"})
	for _, h := range hs {
		t.AppendRow(table.Row{
			shortID(h.ID), h.SourceID,
			fmt.Sprintf("%.0fs-%.0fs", h.StartTimeSec, h.EndTimeSec),
			strconv.FormatFloat(h.Confidence, 'f', 1, 64),
			text.Trim(h.Title, 48), string(h.Clip.Status),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	t.Render()
}

// RenderPersonalized writes a ranked list.
func RenderPersonalized(w io.Writer, ps []model.PersonalizedHighlight) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Personalized")
	t.AppendHeader(table.Row{"#", "ID", "Sport", "Teams", "Score", "Title"})
	for i, p := range ps {
		t.AppendRow(table.Row{i + 1, shortID(p.ID), p.Sport, fmt.Sprint(p.Teams), strconv.FormatFloat(p.PersonalizedScore, 'f', 2, 64), text.Trim(p.Title, 40)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}})
	t.Render()
}

// RenderStats writes a stats map sorted by key.
func RenderStats(w io.Writer, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Stat", "Value"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, fmt.Sprint(stats[k])})
	}
	t.Render()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
