package pos

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// DefaultPageCap bounds runaway pagination against vendors that never signal
// completion. Empirically chosen, hence configurable per adapter.
const DefaultPageCap = 50

// DefaultPageSize is the page size requested from vendor list endpoints.
const DefaultPageSize = 100

// FetchAllPages drives a vendor list endpoint from page 1 until a short
// page, a vendor-reported last page, or pageCap. Any non-2xx page fails the
// whole fetch; hitting the cap is partial success, not failure. The second
// return reports whether the cap was hit.
func FetchAllPages(fetch func(page int) ([]byte, error), pageSize, pageCap int) ([]json.RawMessage, bool, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}

	var all []json.RawMessage
	for page := 1; ; page++ {
		if page > pageCap {
			log.Warn().
				Str("component", "pos").
				Int("page_cap", pageCap).
				Int("records", len(all)).
				Msg("pagination safety cap reached, returning partial results")
			return all, true, nil
		}

		body, err := fetch(page)
		if err != nil {
			return nil, false, err
		}

		records, err := ExtractRecords(body)
		if err != nil {
			return nil, false, err
		}
		all = append(all, records...)

		if len(records) < pageSize {
			return all, false, nil
		}
		if total := ExtractTotalPages(body); total > 0 && page >= total {
			return all, false, nil
		}
	}
}
