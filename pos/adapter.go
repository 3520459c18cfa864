package pos

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"invotrack/models"
)

// ConnectionConfig carries the per-call credentials for a vendor account.
// Nothing here is stored by this package.
type ConnectionConfig struct {
	SystemID string `json:"systemid"`
	User     string `json:"user"`
	Pwd      string `json:"pwd"`
	TaxID    string `json:"taxid"` // osek morshe / company tax id
	APIKey   string `json:"apikey"`
}

// SyncResult is the uniform outcome of every bulk fetch, regardless of
// vendor.
type SyncResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	ItemsSynced int               `json:"itemsSynced"`
	Dropped     int               `json:"dropped,omitempty"`
	Products    []models.Product  `json:"products,omitempty"`
	Suppliers   []models.Supplier `json:"suppliers,omitempty"`
	Data        interface{}       `json:"data,omitempty"`
}

// DocumentRecord is the vendor-neutral shape a synced sales/purchase
// document is reduced to.
type DocumentRecord struct {
	ExternalID string  `json:"externalId,omitempty"`
	DocNumber  string  `json:"docNumber,omitempty"`
	Date       string  `json:"date,omitempty"`
	Party      string  `json:"party,omitempty"`
	Total      float64 `json:"total"`
}

// OperationResult is the uniform outcome of a single create/update/delete
// call.
type OperationResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	ExternalID string   `json:"externalId,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// Adapter is the capability set every vendor integration implements. Each
// method is independently callable and independently failable: a failure in
// one capability never aborts an unrelated call, and no method lets a vendor
// error escape as a Go error to the caller.
type Adapter interface {
	TestConnection(ctx context.Context, cfg ConnectionConfig) OperationResult
	SyncProducts(ctx context.Context, cfg ConnectionConfig) SyncResult
	SyncSuppliers(ctx context.Context, cfg ConnectionConfig) SyncResult
	SyncSales(ctx context.Context, cfg ConnectionConfig) SyncResult
	SyncDocuments(ctx context.Context, cfg ConnectionConfig) SyncResult
	CreateOrUpdateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult
	DeactivateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult
	CreateOrUpdateSupplier(ctx context.Context, cfg ConnectionConfig, supplier *models.Supplier) OperationResult
	CreateDocument(ctx context.Context, cfg ConnectionConfig, doc *models.InvoiceHistoryItem, supplier *models.Supplier) OperationResult
}

func failSync(err error) SyncResult {
	return SyncResult{Success: false, Message: userMessage(err)}
}

func failOp(err error) OperationResult {
	return OperationResult{Success: false, Message: userMessage(err)}
}

// userMessage keeps raw vendor bodies out of client-visible messages; the
// detail goes to the server log where the error is produced.
func userMessage(err error) string {
	switch err.(type) {
	case *AuthError:
		return "authentication with the POS failed, check the connection details"
	case *MalformedResponseError:
		return "the POS returned an unexpected response"
	case *ValidationError:
		return err.Error()
	case *NetworkError:
		return "could not reach the POS service"
	}
	return err.Error()
}

func readBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body
}

// firstString returns the first present, non-empty string among the given
// vendor field names.
func firstString(rec map[string]interface{}, fields ...string) string {
	for _, f := range fields {
		switch v := rec[f].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstFloat returns the first present numeric value among the given vendor
// field names. Vendors ship numbers as numbers or as strings.
func firstFloat(rec map[string]interface{}, fields ...string) (float64, bool) {
	for _, f := range fields {
		switch v := rec[f].(type) {
		case float64:
			return v, true
		case string:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func decodeRecord(raw json.RawMessage) map[string]interface{} {
	var rec map[string]interface{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return rec
}
