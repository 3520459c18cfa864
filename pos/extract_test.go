package pos

import "testing"

func TestExtractRecords(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"a":1},{"a":2}]`, 2},
		{"results wrapper", `{"results":[{"a":1}]}`, 1},
		{"Results wrapper", `{"Results":[{"a":1},{"a":2},{"a":3}]}`, 3},
		{"Items wrapper", `{"Items":[{"a":1}],"TotalPages":4}`, 1},
		{"data wrapper", `{"data":[]}`, 0},
		{"d wrapper", `{"d":[{"a":1}]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ExtractRecords([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("got %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestExtractRecordsMalformed(t *testing.T) {
	for _, body := range []string{
		`{"something":"else"}`,
		`"just a string"`,
		`not json at all`,
		`{"results":"not an array"}`,
	} {
		if _, err := ExtractRecords([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		} else if _, ok := err.(*MalformedResponseError); !ok {
			t.Fatalf("expected MalformedResponseError for %q, got %T", body, err)
		}
	}
}

func TestExtractTotalPages(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"Items":[],"TotalPages":7}`, 7},
		{`{"results":[],"totalPages":3}`, 3},
		{`{"results":[],"total_pages":2}`, 2},
		{`{"results":[]}`, 0},
		{`[1,2,3]`, 0},
		{`{"TotalPages":"not a number"}`, 0},
	}
	for _, tt := range tests {
		if got := ExtractTotalPages([]byte(tt.body)); got != tt.want {
			t.Fatalf("ExtractTotalPages(%q) = %d, want %d", tt.body, got, tt.want)
		}
	}
}
