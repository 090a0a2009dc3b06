package validation

import (
	"testing"
)

func TestParseUserList(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCount  int
		wantEmails []string
	}{
		{
			name:       "two valid records",
			input:      "a@x.com,A,One\nb@x.com,B,Two",
			wantCount:  2,
			wantEmails: []string{"a@x.com", "b@x.com"},
		},
		{
			name:       "malformed line discarded silently",
			input:      "not-an-email\nb@x.com,B,Two",
			wantCount:  1,
			wantEmails: []string{"b@x.com"},
		},
		{
			name:      "empty input",
			input:     "",
			wantCount: 0,
		},
		{
			name:      "blank lines skipped",
			input:     "\n\n  \n",
			wantCount: 0,
		},
		{
			name:       "email only",
			input:      "solo@x.com",
			wantCount:  1,
			wantEmails: []string{"solo@x.com"},
		},
		{
			name:       "fields trimmed",
			input:      "  a@x.com , A , One , secret ",
			wantCount:  1,
			wantEmails: []string{"a@x.com"},
		},
		{
			name:      "missing at sign",
			input:     "ax.com,A,One",
			wantCount: 0,
		},
		{
			name:      "missing domain suffix",
			input:     "a@x,A,One",
			wantCount: 0,
		},
		{
			name:       "windows line endings",
			input:      "a@x.com,A,One\r\nb@x.com,B,Two\r\n",
			wantCount:  2,
			wantEmails: []string{"a@x.com", "b@x.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := ParseUserList(tt.input)
			if len(records) != tt.wantCount {
				t.Fatalf("Expected %d records, got %d", tt.wantCount, len(records))
			}
			for i, email := range tt.wantEmails {
				if records[i].Email != email {
					t.Errorf("Record %d: expected email %q, got %q", i, email, records[i].Email)
				}
			}
		})
	}
}

func TestParseUserList_Fields(t *testing.T) {
	records := ParseUserList("a@x.com,Ada,Lovelace,s3cret")
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.FirstName != "Ada" {
		t.Errorf("Expected first name 'Ada', got %q", r.FirstName)
	}
	if r.LastName != "Lovelace" {
		t.Errorf("Expected last name 'Lovelace', got %q", r.LastName)
	}
	if r.Password != "s3cret" {
		t.Errorf("Expected password 's3cret', got %q", r.Password)
	}
}

func TestParseUserList_TrailingFieldsOptional(t *testing.T) {
	records := ParseUserList("a@x.com,Ada")
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].LastName != "" || records[0].Password != "" {
		t.Errorf("Expected empty optional fields, got %+v", records[0])
	}
}

func TestCountRecords(t *testing.T) {
	count := CountRecords("a@x.com,A\nbad-line\nb@x.com,B")
	if count != 2 {
		t.Errorf("Expected 2 records, got %d", count)
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@sub.example.org", "user+tag@example.co"}
	invalid := []string{"", "not-an-email", "a@x", "@x.com", "a @x.com"}

	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("Expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}
