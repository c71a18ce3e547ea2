// pkg/normalize/months.go
package normalize

var monthNames = map[int]string{
	1: "Januari", 2: "Februari", 3: "Maret", 4: "April",
	5: "Mei", 6: "Juni", 7: "Juli", 8: "Agustus",
	9: "September", 10: "Oktober", 11: "November", 12: "Desember",
}

var monthAbbrev = map[int]string{
	1: "Jan", 2: "Feb", 3: "Mar", 4: "Apr",
	5: "Mei", 6: "Jun", 7: "Jul", 8: "Agu",
	9: "Sep", 10: "Okt", 11: "Nov", 12: "Des",
}

// MonthName returns the Indonesian month name for 1-12, "Unknown"
// otherwise.
func MonthName(month int) string {
	if name, ok := monthNames[month]; ok {
		return name
	}
	return "Unknown"
}

// MonthAbbrev returns the short Indonesian month name for 1-12,
// "Unknown" otherwise.
func MonthAbbrev(month int) string {
	if name, ok := monthAbbrev[month]; ok {
		return name
	}
	return "Unknown"
}
