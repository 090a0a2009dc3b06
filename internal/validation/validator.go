package validation

import (
	"regexp"
	"strings"

	"github.com/identity-admin-api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s is a validly-formed email address
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ParseUserList parses delimited user-list text into records. The format is
// one record per line, comma-separated email,firstName,lastName,password with
// trailing fields optional. Blank lines and lines without a validly-formed
// email are discarded silently; filtering is a pre-condition of starting a
// job, never a per-record runtime failure.
func ParseUserList(input string) []models.UserRecord {
	var records []models.UserRecord

	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		email := strings.TrimSpace(fields[0])
		if !IsValidEmail(email) {
			continue
		}

		record := models.UserRecord{Email: email}
		if len(fields) > 1 {
			record.FirstName = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			record.LastName = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			record.Password = strings.TrimSpace(fields[3])
		}

		records = append(records, record)
	}

	return records
}

// CountRecords returns the number of valid records in user-list text
func CountRecords(input string) int {
	return len(ParseUserList(input))
}
