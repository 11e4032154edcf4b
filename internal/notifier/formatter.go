package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"MarketETL/internal/model"
)

// FormatStaleAlert lists every stale symbol with its last available date.
// It returns "" when nothing is stale.
func FormatStaleAlert(fresh map[string]model.FreshnessRecord, staleAfterDays int) string {
	var symbols []string
	for sym, f := range fresh {
		if f.IsStale {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		return ""
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ <b>MarketETL stale data</b> (&gt; %d days)\n\n", staleAfterDays))
	for _, sym := range symbols {
		f := fresh[sym]
		b.WriteString(fmt.Sprintf("%s: last %s (%d days ago)\n", html.EscapeString(sym), f.LastAvailableDate, f.DaysSinceUpdate))
	}
	return b.String()
}

// FormatRunFailure formats a run that aborted before producing outputs.
func FormatRunFailure(err error) string {
	return fmt.Sprintf("❌ <b>MarketETL run failed</b>\n%s", html.EscapeString(err.Error()))
}
