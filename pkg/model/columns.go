// pkg/model/columns.go
package model

import "strings"

// Mode selects which business rule set the pipeline applies.
type Mode string

const (
	ModeWSA      Mode = "WSA"
	ModeModoroso Mode = "MODOROSO"
	ModeWAPPR    Mode = "WAPPR"
)

// ParseMode normalizes a mode string. Unknown values fall back to WSA,
// matching the permissive behavior of the upstream order feeds.
func ParseMode(s string) Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ModeModoroso):
		return ModeModoroso
	case string(ModeWAPPR):
		return ModeWAPPR
	default:
		return ModeWSA
	}
}

// Load-bearing column names. The column set is otherwise open: whatever
// the upstream feed carries rides along untouched.
const (
	ColOrderNo      = "SC Order No/Track ID/CSRM No"
	ColWorkorder    = "Workorder"
	ColDateCreated  = "Date Created"
	ColServiceNo    = "Service No."
	ColCRMOrderType = "CRM Order Type"
	ColStatus       = "Status"
	ColAddress      = "Address"
	ColCustomerName = "Customer Name"
	ColWorkzone     = "Workzone"
	ColBookingDate  = "Booking Date"
	ColContact      = "Contact Number"
	ColMitra        = "Mitra"
)

// Working columns introduced during cleaning and dropped at finalize.
const (
	ColDateCreatedParsed  = "Date Created DT"
	ColDateCreatedDisplay = "Date Created Display"
)

// RequiredColumns are the columns a feed must carry for a full
// processing run; missing ones degrade individual stages, they do not
// abort the pipeline.
var RequiredColumns = []string{
	ColOrderNo,
	ColWorkorder,
	ColDateCreated,
	ColServiceNo,
	ColStatus,
}

// OptionalColumns are recognized but not required.
var OptionalColumns = []string{
	ColCRMOrderType,
	ColAddress,
	ColCustomerName,
	ColWorkzone,
	ColBookingDate,
	ColContact,
	ColMitra,
}

var outputColumns = map[Mode][]string{
	ModeWSA: {
		ColDateCreated, ColWorkorder, ColOrderNo,
		ColServiceNo, ColCRMOrderType, ColStatus, ColAddress,
		ColCustomerName, ColWorkzone, ColBookingDate, ColContact,
	},
	ModeModoroso: {
		ColDateCreated, ColWorkorder, ColOrderNo,
		ColServiceNo, ColCRMOrderType, ColStatus, ColAddress,
		ColCustomerName, ColWorkzone, ColContact, ColMitra,
	},
	ModeWAPPR: {
		ColDateCreated, ColWorkorder, ColOrderNo,
		ColServiceNo, ColCRMOrderType, ColStatus, ColAddress,
		ColCustomerName, ColWorkzone, ColBookingDate, ColContact,
	},
}

// OutputColumns returns the target column order for a mode.
func OutputColumns(mode Mode) []string {
	cols := outputColumns[mode]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// MissingColumns returns the subset of required that the table lacks.
func MissingColumns(t *Table, required []string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
