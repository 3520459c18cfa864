package pos

import (
	"encoding/json"
	"fmt"
	"testing"
)

func pageBody(n int) []byte {
	records := make([]map[string]int, n)
	for i := range records {
		records[i] = map[string]int{"a": i}
	}
	body, _ := json.Marshal(records)
	return body
}

func TestFetchAllPagesStopsOnShortPage(t *testing.T) {
	const pageSize = 10
	const fullPages = 3

	var requested []int
	fetch := func(page int) ([]byte, error) {
		requested = append(requested, page)
		if page <= fullPages {
			return pageBody(pageSize), nil
		}
		return pageBody(pageSize - 1), nil
	}

	records, capped, err := FetchAllPages(fetch, pageSize, DefaultPageCap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capped {
		t.Fatal("cap should not be hit")
	}
	want := fullPages*pageSize + pageSize - 1
	if len(records) != want {
		t.Fatalf("got %d records, want %d", len(records), want)
	}
	if len(requested) != fullPages+1 {
		t.Fatalf("expected %d page requests, got %d", fullPages+1, len(requested))
	}
}

func TestFetchAllPagesHonorsTotalPages(t *testing.T) {
	const pageSize = 5
	fetch := func(page int) ([]byte, error) {
		return []byte(fmt.Sprintf(`{"Items":[{"a":1},{"a":2},{"a":3},{"a":4},{"a":5}],"TotalPages":%d}`, 2)), nil
	}

	records, capped, err := FetchAllPages(fetch, pageSize, DefaultPageCap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capped {
		t.Fatal("cap should not be hit")
	}
	if len(records) != 2*pageSize {
		t.Fatalf("got %d records, want %d", len(records), 2*pageSize)
	}
}

func TestFetchAllPagesSafetyCap(t *testing.T) {
	const pageSize = 4
	const pageCap = 7

	calls := 0
	fetch := func(page int) ([]byte, error) {
		calls++
		return pageBody(pageSize), nil
	}

	records, capped, err := FetchAllPages(fetch, pageSize, pageCap)
	if err != nil {
		t.Fatalf("cap hit must be partial success, got error: %v", err)
	}
	if !capped {
		t.Fatal("expected cap to be reported")
	}
	if calls != pageCap {
		t.Fatalf("expected %d requests, got %d", pageCap, calls)
	}
	if len(records) != pageCap*pageSize {
		t.Fatalf("got %d records, want %d", len(records), pageCap*pageSize)
	}
}

func TestFetchAllPagesFailsWholeSyncOnError(t *testing.T) {
	fetch := func(page int) ([]byte, error) {
		if page == 2 {
			return nil, &NetworkError{Op: "list", Status: 500}
		}
		return pageBody(10), nil
	}

	records, _, err := FetchAllPages(fetch, 10, DefaultPageCap)
	if err == nil {
		t.Fatal("expected error")
	}
	if records != nil {
		t.Fatal("no partial results on mid-sync failure")
	}
}

func TestFetchAllPagesMalformedBody(t *testing.T) {
	fetch := func(page int) ([]byte, error) {
		return []byte(`{"weird":"shape"}`), nil
	}
	_, _, err := FetchAllPages(fetch, 10, DefaultPageCap)
	if _, ok := err.(*MalformedResponseError); !ok {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}
