package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Report is the outcome of one Run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Bronze   []string
	Silver   SilverSummary
	Gold     GoldSummary
}

// SilverSummary counts what ProcessSilver did.
type SilverSummary struct {
	Files      int
	Skipped    int
	Processed  int
	Failed     int
	Duplicates int
	Valid      int
	Rejected   int
	Inserted   int
	Ignored    int
}

func (s *SilverSummary) add(o SilverSummary) {
	s.Duplicates += o.Duplicates
	s.Valid += o.Valid
	s.Rejected += o.Rejected
	s.Inserted += o.Inserted
	s.Ignored += o.Ignored
}

// GoldSummary describes the gold outputs.
type GoldSummary struct {
	Skipped        bool
	Symbols        int
	Stale          []string
	AggregatesPath string
	FreshnessPath  string
}

// Summary renders the report as a few plain lines.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", r.RunID)
	fmt.Fprintf(&b, "bronze: %d files\n", len(r.Bronze))
	fmt.Fprintf(&b, "silver: %d processed, %d skipped, %d failed, %d inserted, %d ignored, %d rejected\n",
		r.Silver.Processed, r.Silver.Skipped, r.Silver.Failed, r.Silver.Inserted, r.Silver.Ignored, r.Silver.Rejected)
	switch {
	case r.Gold.Skipped:
		b.WriteString("gold: skipped, no data\n")
	case len(r.Gold.Stale) > 0:
		fmt.Fprintf(&b, "gold: %d symbols, stale: %s\n", r.Gold.Symbols, strings.Join(r.Gold.Stale, ", "))
	default:
		fmt.Fprintf(&b, "gold: %d symbols\n", r.Gold.Symbols)
	}
	return b.String()
}
