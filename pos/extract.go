package pos

import "encoding/json"

// Vendor list endpoints disagree about where the record array lives. Each
// extractor handles one shape; they are tried in order and the first match
// wins, which keeps the quirk handling declarative and testable.
type recordExtractor func([]byte) ([]json.RawMessage, bool)

var recordExtractors = []recordExtractor{
	extractBareArray,
	extractWrapped("results"),
	extractWrapped("Results"),
	extractWrapped("Items"),
	extractWrapped("items"),
	extractWrapped("data"),
	extractWrapped("Data"),
	extractWrapped("d"),
	extractWrapped("value"),
}

func extractBareArray(body []byte) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func extractWrapped(field string) recordExtractor {
	return func(body []byte) ([]json.RawMessage, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, false
		}
		raw, ok := obj[field]
		if !ok {
			return nil, false
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, false
		}
		return arr, true
	}
}

// ExtractRecords locates the record array in a vendor list response.
func ExtractRecords(body []byte) ([]json.RawMessage, error) {
	for _, extract := range recordExtractors {
		if records, ok := extract(body); ok {
			return records, nil
		}
	}
	return nil, &MalformedResponseError{Body: string(body)}
}

// ExtractTotalPages reads a vendor-reported page count out of a list
// response, returning 0 when the vendor does not signal one.
func ExtractTotalPages(body []byte) int {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0
	}
	for _, field := range []string{"TotalPages", "totalPages", "total_pages", "PageCount", "pageCount"} {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
