package model

// Provider-native bronze column names.
const (
	ColDate   = "Date"
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
	ColSymbol = "symbol"
)

// BronzeColumns is the column order of a bronze file.
var BronzeColumns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume, ColSymbol}

// RawRecord is one untyped row keyed by the column name as the provider wrote it.
type RawRecord map[string]string

// RawBatch is an ordered set of raw records from one fetch or one bronze file.
type RawBatch struct {
	Source  string // bronze file name or "<provider>:<symbol>"
	Columns []string
	Records []RawRecord
}

// Len returns the number of records.
func (b RawBatch) Len() int { return len(b.Records) }

// Empty reports whether the batch has no records.
func (b RawBatch) Empty() bool { return len(b.Records) == 0 }
