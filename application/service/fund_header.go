package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fundsight/fundsight/domain/fund"
)

var (
	fundNamePattern   = regexp.MustCompile(`Fund Name:\s*(.+)`)
	gpNamePattern     = regexp.MustCompile(`GP:\s*(.+)`)
	vintagePattern    = regexp.MustCompile(`Vintage Year:\s*(\d{4})`)
	fundSizePattern   = regexp.MustCompile(`Fund Size:\s*\$([\d,]+)`)
	reportDatePattern = regexp.MustCompile(`Report Date:\s*(.+)`)
)

// ParseFundHeader extracts fund attributes from a report's first-page
// text. Every field matches independently; absent patterns leave zero
// values.
func ParseFundHeader(text string) fund.Header {
	header := fund.Header{}
	if m := fundNamePattern.FindStringSubmatch(text); m != nil {
		header.Name = strings.TrimSpace(m[1])
	}
	if m := gpNamePattern.FindStringSubmatch(text); m != nil {
		header.GPName = strings.TrimSpace(m[1])
	}
	if m := vintagePattern.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			header.VintageYear = year
		}
	}
	if m := fundSizePattern.FindStringSubmatch(text); m != nil {
		digits := strings.ReplaceAll(strings.TrimSpace(m[1]), ",", "")
		if size, err := strconv.ParseInt(digits, 10, 64); err == nil {
			header.CommittedSize = size
		}
	}
	if m := reportDatePattern.FindStringSubmatch(text); m != nil {
		header.ReportDate = strings.TrimSpace(m[1])
	}
	return header
}
