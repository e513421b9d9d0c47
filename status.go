package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"auto_x_thread_publisher/history"
	"auto_x_thread_publisher/scheduler"
	"auto_x_thread_publisher/textmetrics"
)

const statusTextWidth = 40

// printStatus renders the operator overview: recent posts, rotation
// counters, and per-slot guard state.
func printStatus(w io.Writer, a *app, store *history.Store) error {
	heading := color.New(color.FgCyan, color.Bold)

	records, err := store.RecentRecords(statusRecent)
	if err != nil {
		return err
	}
	total, err := store.Count()
	if err != nil {
		return err
	}
	heading.Fprintf(w, "Recent Posts (%d of %d)\n", len(records), total)
	table := newStatusTable(w, []string{"ID", "POSTED AT", "RUNES", "TEXT"})
	for _, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", r.ID),
			r.CreatedAt.In(a.loc).Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", textmetrics.RuneLen(r.Text)),
			oneLine(r.Text, statusTextWidth),
		})
	}
	table.Render()
	fmt.Fprintln(w)

	rotations, err := store.Rotations()
	if err != nil {
		return err
	}
	heading.Fprintln(w, "Rotation Counters")
	table = newStatusTable(w, []string{"NAME", "INDEX"})
	names := make([]string, 0, len(rotations))
	for name := range rotations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%d", rotations[name])})
	}
	table.Render()
	fmt.Fprintln(w)

	states, err := store.States()
	if err != nil {
		return err
	}
	heading.Fprintln(w, "Slot Guards")
	table = newStatusTable(w, []string{"SLOT", "AT", "LAST SUCCESS", "LAST ATTEMPT", "DUE NOW"})
	now := time.Now().In(a.loc)
	for _, slot := range a.slots() {
		guard, err := scheduler.NewGuard(store, slot, a.loc, a.logger)
		if err != nil {
			return err
		}
		due := color.GreenString("no")
		if guard.Due(now) {
			due = color.YellowString("yes")
		}
		table.Append([]string{
			slot.Name,
			slot.At,
			orDash(states["last_success:"+slot.Name]),
			orDash(states["last_attempt:"+slot.Name]),
			due,
		})
	}
	table.Render()
	return nil
}

// slots lists every configured slot without building the bots behind them.
func (a *app) slots() []scheduler.Slot {
	catchUp := time.Duration(a.cfg.Post.CatchUpMinutes) * time.Minute
	var slots []scheduler.Slot
	for _, at := range a.cfg.Post.SlotTimes {
		slots = append(slots, scheduler.Slot{Name: "post:" + at, At: at, CatchUp: catchUp})
	}
	if a.cfg.Forecast.Enabled {
		slots = append(slots, scheduler.Slot{
			Name:    "forecast",
			At:      a.cfg.Forecast.SlotTime,
			CatchUp: time.Duration(a.cfg.Forecast.CatchUpMinutes) * time.Minute,
		})
	}
	return slots
}

type statusTable struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

func newStatusTable(w io.Writer, headers []string) *statusTable {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	return &statusTable{table: table, header: headers}
}

func (t *statusTable) Append(row []string) { t.rows = append(t.rows, row) }

func (t *statusTable) Render() {
	t.table.Header(t.header)
	t.table.Bulk(t.rows)
	t.table.Render()
}

func oneLine(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	return textmetrics.TruncateRunes(text, width)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
