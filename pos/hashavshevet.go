package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"invotrack/models"
)

const hashBaseURL = "https://api.hashavshevet.co.il/v1"

// Hashavshevet document classification codes.
const (
	hashDocPurchaseInvoice = 405
	hashDocGoodsReceived   = 410
)

// Hashavshevet payment-term codes.
const (
	hashTermCash    = "C"
	hashTermEOM     = "E"
	hashTermNetDays = "N"
)

// HashavshevetAdapter talks to a Hashavshevet-style REST API. Unlike Caspit
// it carries the token in an Authorization header, wraps list responses in
// an Items array with a TotalPages field, lets the server assign record
// keys, and upserts through POST for both create and update.
type HashavshevetAdapter struct {
	BaseURL  string
	Client   HTTPDoer
	Tokens   *TokenCache
	PageSize int
	PageCap  int

	log zerolog.Logger
}

func NewHashavshevetAdapter(client HTTPDoer) *HashavshevetAdapter {
	return &HashavshevetAdapter{
		BaseURL:  hashBaseURL,
		Client:   client,
		Tokens:   NewTokenCache(),
		PageSize: DefaultPageSize,
		PageCap:  DefaultPageCap,
		log:      log.With().Str("component", "pos").Str("vendor", "hashavshevet").Logger(),
	}
}

func (a *HashavshevetAdapter) token(ctx context.Context, cfg ConnectionConfig) (string, error) {
	return a.Tokens.Token(cfg.TaxID, func() (string, error) {
		creds, _ := json.Marshal(map[string]string{
			"apiKey": cfg.APIKey,
			"user":   cfg.User,
			"pwd":    cfg.Pwd,
			"taxId":  cfg.TaxID,
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/token", bytes.NewBuffer(creds))
		if err != nil {
			return "", &NetworkError{Op: "hashavshevet token", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.Client.Do(req)
		if err != nil {
			return "", &NetworkError{Op: "hashavshevet token", Err: err}
		}
		body := readBody(resp)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			a.log.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("token request rejected")
			return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
		}
		token, ok := ParseToken(body)
		if !ok {
			a.log.Error().Str("body", string(body)).Msg("token response unparseable")
			return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
		}
		return token, nil
	})
}

func (a *HashavshevetAdapter) request(ctx context.Context, cfg ConnectionConfig, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	token, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}

	target := a.BaseURL + path
	if query != nil {
		target += "?" + query.Encode()
	}

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &NetworkError{Op: "hashavshevet " + path, Err: err}
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &NetworkError{Op: "hashavshevet " + path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "hashavshevet " + path, Err: err}
	}
	respBody := readBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		a.Tokens.Evict(cfg.TaxID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.Error().Int("status", resp.StatusCode).Str("path", path).Str("body", string(respBody)).Msg("vendor call failed")
		return nil, &NetworkError{Op: "hashavshevet " + path, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (a *HashavshevetAdapter) listPage(ctx context.Context, cfg ConnectionConfig, path string, page int) ([]byte, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(a.PageSize))
	return a.request(ctx, cfg, http.MethodGet, path, q, nil)
}

func (a *HashavshevetAdapter) TestConnection(ctx context.Context, cfg ConnectionConfig) OperationResult {
	if _, err := a.token(ctx, cfg); err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "connected to Hashavshevet"}
}

func (a *HashavshevetAdapter) SyncProducts(ctx context.Context, cfg ConnectionConfig) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		return a.listPage(ctx, cfg, "/items", page)
	}, a.PageSize, a.PageCap)
	if err != nil {
		return failSync(err)
	}

	var products []models.Product
	dropped := 0
	for _, raw := range records {
		p := a.itemToInternal(raw)
		if p == nil {
			dropped++
			continue
		}
		products = append(products, *p)
	}

	msg := fmt.Sprintf("synced %d products from Hashavshevet", len(products))
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(products), Dropped: dropped, Products: products}
}

func (a *HashavshevetAdapter) SyncSuppliers(ctx context.Context, cfg ConnectionConfig) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		return a.listPage(ctx, cfg, "/accounts", page)
	}, a.PageSize, a.PageCap)
	if err != nil {
		return failSync(err)
	}

	var suppliers []models.Supplier
	dropped := 0
	for _, raw := range records {
		s := a.accountToInternal(raw)
		if s == nil {
			dropped++
			continue
		}
		suppliers = append(suppliers, *s)
	}

	msg := fmt.Sprintf("synced %d suppliers from Hashavshevet", len(suppliers))
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(suppliers), Dropped: dropped, Suppliers: suppliers}
}

func (a *HashavshevetAdapter) SyncSales(ctx context.Context, cfg ConnectionConfig) SyncResult {
	return a.syncDocumentList(ctx, cfg, "/documents/sales", "sales documents")
}

func (a *HashavshevetAdapter) SyncDocuments(ctx context.Context, cfg ConnectionConfig) SyncResult {
	return a.syncDocumentList(ctx, cfg, "/documents", "documents")
}

func (a *HashavshevetAdapter) syncDocumentList(ctx context.Context, cfg ConnectionConfig, path, what string) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		return a.listPage(ctx, cfg, path, page)
	}, a.PageSize, a.PageCap)
	if err != nil {
		return failSync(err)
	}

	docs := make([]DocumentRecord, 0, len(records))
	for _, raw := range records {
		rec := decodeRecord(raw)
		if rec == nil {
			continue
		}
		total, _ := firstFloat(rec, "Total", "TotalSum", "Sum", "total")
		docs = append(docs, DocumentRecord{
			ExternalID: firstString(rec, "RecordKey", "DocId", "Id", "id"),
			DocNumber:  firstString(rec, "DocNumber", "Number", "number"),
			Date:       firstString(rec, "DocDate", "Date", "date"),
			Party:      firstString(rec, "AccountName", "FullName", "CustomerName"),
			Total:      models.Round2(total),
		})
	}

	msg := fmt.Sprintf("synced %d %s from Hashavshevet", len(docs), what)
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(docs), Data: docs}
}

func (a *HashavshevetAdapter) CreateOrUpdateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult {
	// Hashavshevet upserts through POST; the record key is server-assigned
	// on create and must ride along on update.
	payload := a.itemPayload(product, true)

	body, err := a.request(ctx, cfg, http.MethodPost, "/items", nil, payload)
	if err != nil {
		return failOp(err)
	}

	externalID := product.ExternalProductID
	if rec := decodeRecord(body); rec != nil {
		if id := firstString(rec, "RecordKey", "ItemID", "Id", "id"); id != "" {
			externalID = id
		}
	}
	return OperationResult{Success: true, Message: "product synced to Hashavshevet", ExternalID: externalID}
}

func (a *HashavshevetAdapter) DeactivateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult {
	if product.ExternalProductID == "" {
		return failOp(&ValidationError{Field: "externalproductid", Reason: "product was never synced to Hashavshevet"})
	}
	payload := a.itemPayload(product, false)
	if _, err := a.request(ctx, cfg, http.MethodPost, "/items", nil, payload); err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "product deactivated in Hashavshevet", ExternalID: product.ExternalProductID}
}

func (a *HashavshevetAdapter) CreateOrUpdateSupplier(ctx context.Context, cfg ConnectionConfig, supplier *models.Supplier) OperationResult {
	payload := map[string]interface{}{
		"AccountName": supplier.Name,
		"TaxFileNum":  supplier.TaxID,
		"SortGroup":   "supplier",
		"Phone":       supplier.Phone,
		"Email":       supplier.Email,
		"Address":     supplier.Address,
	}
	if supplier.ExternalAccountID != "" {
		payload["AccountKey"] = supplier.ExternalAccountID
	}
	switch kind, days := ParsePaymentTerms(supplier.PaymentTerms); kind {
	case TermCash:
		payload["PayTerms"] = hashTermCash
	case TermEOM:
		payload["PayTerms"] = hashTermEOM
	case TermNetDays:
		payload["PayTerms"] = hashTermNetDays
		payload["PayTermsDays"] = days
	}

	body, err := a.request(ctx, cfg, http.MethodPost, "/accounts", nil, payload)
	if err != nil {
		return failOp(err)
	}

	externalID := supplier.ExternalAccountID
	if rec := decodeRecord(body); rec != nil {
		if id := firstString(rec, "AccountKey", "Id", "id"); id != "" {
			externalID = id
		}
	}
	return OperationResult{Success: true, Message: "supplier synced to Hashavshevet", ExternalID: externalID}
}

func (a *HashavshevetAdapter) CreateDocument(ctx context.Context, cfg ConnectionConfig, doc *models.InvoiceHistoryItem, supplier *models.Supplier) OperationResult {
	if supplier == nil || supplier.ExternalAccountID == "" {
		return failOp(&ValidationError{Field: "supplier", Reason: "supplier has no Hashavshevet account key"})
	}
	if len(doc.Lines) == 0 {
		return failOp(&ValidationError{Field: "lines", Reason: "document has no lines"})
	}

	docType := hashDocPurchaseInvoice
	if doc.DocType == models.DocTypeDeliveryNote {
		docType = hashDocGoodsReceived
	}

	lines := make([]map[string]interface{}, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, map[string]interface{}{
			"ItemKey":  l.CatalogNumber,
			"ItemName": l.Name,
			"Quantity": l.Quantity,
			"Price":    l.UnitPrice,
			"RowSum":   l.LineTotal,
		})
	}

	payload := map[string]interface{}{
		"DocType":    docType,
		"AccountKey": supplier.ExternalAccountID,
		"DocNumber":  doc.DocNumber,
		"DocDate":    doc.IssuedAt,
		"TotalSum":   doc.Total,
		"Rows":       lines,
	}

	body, err := a.request(ctx, cfg, http.MethodPost, "/documents", nil, payload)
	if err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "document created in Hashavshevet", ExternalID: extractDocumentID(body)}
}

func (a *HashavshevetAdapter) itemToInternal(raw json.RawMessage) *models.Product {
	rec := decodeRecord(raw)
	if rec == nil {
		return nil
	}

	catalog := firstString(rec, "ItemKey", "itemKey", "Key", "CatalogNumber")
	name := firstString(rec, "ItemName", "itemName", "Name", "Description")
	if catalog == "" && name == "" {
		return nil
	}
	if name == "" {
		name = "Item " + catalog
	}

	qty, _ := firstFloat(rec, "Quantity", "Qty", "BalanceQty", "quantity")
	price, ok := firstFloat(rec, "PurchPrice", "CostPrice", "Price", "price")
	if !ok {
		total, _ := firstFloat(rec, "RowSum", "Total", "total")
		price = models.UnitPriceFrom(total, qty)
	}
	sale, _ := firstFloat(rec, "SalesPrice", "SalePrice", "salesPrice")

	p := &models.Product{
		ExternalProductID: firstString(rec, "RecordKey", "ItemID", "Id", "id"),
		CatalogNumber:     catalog,
		Name:              name,
		Quantity:          qty,
		UnitPrice:         models.Round2(price),
		SalePrice:         models.Round2(sale),
		Barcode:           firstString(rec, "Barcode", "BarCode", "barcode"),
	}
	p.Recalc()
	return p
}

func (a *HashavshevetAdapter) accountToInternal(raw json.RawMessage) *models.Supplier {
	rec := decodeRecord(raw)
	if rec == nil {
		return nil
	}

	name := firstString(rec, "AccountName", "FullName", "Name", "name")
	if name == "" {
		return nil
	}
	return &models.Supplier{
		Name:              name,
		ExternalAccountID: firstString(rec, "AccountKey", "accountKey", "Id", "id"),
		TaxID:             firstString(rec, "TaxFileNum", "OsekNumber", "TaxId"),
		Phone:             firstString(rec, "Phone", "phone"),
		Email:             firstString(rec, "Email", "email"),
		Address:           firstString(rec, "Address", "address"),
		Status:            "Active",
	}
}

func (a *HashavshevetAdapter) itemPayload(product *models.Product, active bool) map[string]interface{} {
	payload := map[string]interface{}{
		"ItemKey":    product.CatalogNumber,
		"ItemName":   product.Name,
		"Quantity":   product.Quantity,
		"PurchPrice": models.Round2(product.UnitPrice),
		"Active":     "Y",
	}
	if product.ExternalProductID != "" {
		payload["RecordKey"] = product.ExternalProductID
	}
	if product.SalePrice > 0 {
		payload["SalesPrice"] = models.Round2(product.SalePrice)
	}
	if product.Barcode != "" {
		payload["Barcode"] = product.Barcode
	}
	if !active {
		payload["Active"] = "N"
	}
	return payload
}
