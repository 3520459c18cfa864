package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"invotrack/models"
)

const caspitBaseURL = "https://app.caspit.biz/api/v1"

// Caspit document classification codes, chosen by internal document type.
const (
	caspitTrxPurchaseInvoice = 300
	caspitTrxGoodsReceived   = 305
)

// Caspit payment-term codes.
const (
	caspitTermCash    = 1
	caspitTermEOM     = 2
	caspitTermNetDays = 3
)

// CaspitAdapter talks to the Caspit REST API. Caspit authenticates with a
// short-lived token passed as a query parameter, paginates with page/pageSize
// query parameters, and expects client-assigned primary keys on create.
type CaspitAdapter struct {
	BaseURL  string
	Client   HTTPDoer
	Tokens   *TokenCache
	PageSize int
	PageCap  int

	log zerolog.Logger
}

func NewCaspitAdapter(client HTTPDoer) *CaspitAdapter {
	return &CaspitAdapter{
		BaseURL:  caspitBaseURL,
		Client:   client,
		Tokens:   NewTokenCache(),
		PageSize: DefaultPageSize,
		PageCap:  DefaultPageCap,
		log:      log.With().Str("component", "pos").Str("vendor", "caspit").Logger(),
	}
}

func (a *CaspitAdapter) token(ctx context.Context, cfg ConnectionConfig) (string, error) {
	return a.Tokens.Token(cfg.TaxID, func() (string, error) {
		q := url.Values{}
		q.Set("user", cfg.User)
		q.Set("pwd", cfg.Pwd)
		q.Set("osekMorshe", cfg.TaxID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/token?"+q.Encode(), nil)
		if err != nil {
			return "", &NetworkError{Op: "caspit token", Err: err}
		}
		resp, err := a.Client.Do(req)
		if err != nil {
			return "", &NetworkError{Op: "caspit token", Err: err}
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

// request performs one authenticated call. Caspit carries the token in the
// query string on every request.
func (a *CaspitAdapter) request(ctx context.Context, cfg ConnectionConfig, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	token, err := a.token(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("token", token)

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &NetworkError{Op: "caspit " + path, Err: err}
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path+"?"+query.Encode(), body)
	if err != nil {
		return nil, &NetworkError{Op: "caspit " + path, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "caspit " + path, Err: err}
	}
	respBody := readBody(resp)
	if resp.StatusCode == http.StatusUnauthorized {
		a.Tokens.Evict(cfg.TaxID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.Error().Int("status", resp.StatusCode).Str("path", path).Str("body", string(respBody)).Msg("vendor call failed")
		return nil, &NetworkError{Op: "caspit " + path, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (a *CaspitAdapter) listPage(ctx context.Context, cfg ConnectionConfig, path string, page int) ([]byte, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(a.PageSize))
	return a.request(ctx, cfg, http.MethodGet, path, q, nil)
}

func (a *CaspitAdapter) TestConnection(ctx context.Context, cfg ConnectionConfig) OperationResult {
	if _, err := a.token(ctx, cfg); err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "connected to Caspit"}
}

func (a *CaspitAdapter) SyncProducts(ctx context.Context, cfg ConnectionConfig) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		return a.listPage(ctx, cfg, "/products", page)
	}, a.PageSize, a.PageCap)
	if err != nil {
		return failSync(err)
	}

	var products []models.Product
	dropped := 0
	for _, raw := range records {
		p := a.productToInternal(raw)
		if p == nil {
			dropped++
			continue
		}
		products = append(products, *p)
	}

	msg := fmt.Sprintf("synced %d products from Caspit", len(products))
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(products), Dropped: dropped, Products: products}
}

func (a *CaspitAdapter) SyncSuppliers(ctx context.Context, cfg ConnectionConfig) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		return a.listPage(ctx, cfg, "/contacts", page)
	}, a.PageSize, a.PageCap)
	if err != nil {
		return failSync(err)
	}

	var suppliers []models.Supplier
	dropped := 0
	for _, raw := range records {
		s := a.contactToInternal(raw)
		if s == nil {
			dropped++
			continue
		}
		suppliers = append(suppliers, *s)
	}

	msg := fmt.Sprintf("synced %d suppliers from Caspit", len(suppliers))
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(suppliers), Dropped: dropped, Suppliers: suppliers}
}

func (a *CaspitAdapter) SyncSales(ctx context.Context, cfg ConnectionConfig) SyncResult {
	return a.syncDocumentList(ctx, cfg, "/documents", url.Values{"type": {"sale"}}, "sales documents")
}

func (a *CaspitAdapter) SyncDocuments(ctx context.Context, cfg ConnectionConfig) SyncResult {
	return a.syncDocumentList(ctx, cfg, "/documents", nil, "documents")
}

func (a *CaspitAdapter) syncDocumentList(ctx context.Context, cfg ConnectionConfig, path string, extra url.Values, what string) SyncResult {
	records, capped, err := FetchAllPages(func(page int) ([]byte, error) {
		q := url.Values{}
		for k, vs := range extra {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		q.Set("page", fmt.Sprint(page))
		q.Set("pageSize", fmt.Sprint(a.PageSize))
		return a.request(ctx, cfg, http.MethodGet, path, q, nil)
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
		total, _ := firstFloat(rec, "Total", "total", "TotalAmount", "Sum")
		docs = append(docs, DocumentRecord{
			ExternalID: firstString(rec, "DocumentId", "documentId", "Id", "id"),
			DocNumber:  firstString(rec, "Number", "number", "DocNumber"),
			Date:       firstString(rec, "Date", "date", "TrxDate"),
			Party:      firstString(rec, "CustomerName", "ContactName", "customerName"),
			Total:      models.Round2(total),
		})
	}

	msg := fmt.Sprintf("synced %d %s from Caspit", len(docs), what)
	if capped {
		msg += " (page cap reached, partial list)"
	}
	return SyncResult{Success: true, Message: msg, ItemsSynced: len(docs), Data: docs}
}

func (a *CaspitAdapter) CreateOrUpdateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult {
	isUpdate := product.ExternalProductID != ""

	externalID := product.ExternalProductID
	if !isUpdate {
		// Caspit primary keys are client-assigned.
		externalID = uuid.NewString()
	}
	payload := a.productPayload(product, externalID, true)

	var err error
	if isUpdate {
		_, err = a.request(ctx, cfg, http.MethodPut, "/products/"+externalID, nil, payload)
	} else {
		_, err = a.request(ctx, cfg, http.MethodPost, "/products", nil, payload)
	}
	if err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "product synced to Caspit", ExternalID: externalID}
}

func (a *CaspitAdapter) DeactivateProduct(ctx context.Context, cfg ConnectionConfig, product *models.Product) OperationResult {
	if product.ExternalProductID == "" {
		return failOp(&ValidationError{Field: "externalproductid", Reason: "product was never synced to Caspit"})
	}
	// Caspit wants the full record on deactivation, not a partial patch.
	payload := a.productPayload(product, product.ExternalProductID, false)
	if _, err := a.request(ctx, cfg, http.MethodPut, "/products/"+product.ExternalProductID, nil, payload); err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "product deactivated in Caspit", ExternalID: product.ExternalProductID}
}

func (a *CaspitAdapter) CreateOrUpdateSupplier(ctx context.Context, cfg ConnectionConfig, supplier *models.Supplier) OperationResult {
	isUpdate := supplier.ExternalAccountID != ""
	externalID := supplier.ExternalAccountID
	if !isUpdate {
		externalID = uuid.NewString()
	}

	payload := map[string]interface{}{
		"ContactId":   externalID,
		"Name":        supplier.Name,
		"OsekMorshe":  supplier.TaxID,
		"ContactType": "supplier",
		"Phone":       supplier.Phone,
		"Email":       supplier.Email,
		"Address":     supplier.Address,
	}
	switch kind, days := ParsePaymentTerms(supplier.PaymentTerms); kind {
	case TermCash:
		payload["PaymentTermsId"] = caspitTermCash
	case TermEOM:
		payload["PaymentTermsId"] = caspitTermEOM
	case TermNetDays:
		payload["PaymentTermsId"] = caspitTermNetDays
		payload["PaymentTermsDays"] = days
	}

	var err error
	if isUpdate {
		_, err = a.request(ctx, cfg, http.MethodPut, "/contacts/"+externalID, nil, payload)
	} else {
		_, err = a.request(ctx, cfg, http.MethodPost, "/contacts", nil, payload)
	}
	if err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "supplier synced to Caspit", ExternalID: externalID}
}

func (a *CaspitAdapter) CreateDocument(ctx context.Context, cfg ConnectionConfig, doc *models.InvoiceHistoryItem, supplier *models.Supplier) OperationResult {
	if supplier == nil || supplier.ExternalAccountID == "" {
		return failOp(&ValidationError{Field: "supplier", Reason: "supplier has no Caspit account id"})
	}
	if len(doc.Lines) == 0 {
		return failOp(&ValidationError{Field: "lines", Reason: "document has no lines"})
	}

	trxType := caspitTrxPurchaseInvoice
	if doc.DocType == models.DocTypeDeliveryNote {
		trxType = caspitTrxGoodsReceived
	}

	lines := make([]map[string]interface{}, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, map[string]interface{}{
			"ProductId":   l.ProductID,
			"CatalogNum":  l.CatalogNumber,
			"Description": l.Name,
			"Quantity":    l.Quantity,
			"UnitPrice":   l.UnitPrice,
			"Total":       l.LineTotal,
		})
	}

	payload := map[string]interface{}{
		"TrxTypeId": trxType,
		"ContactId": supplier.ExternalAccountID,
		"Number":    doc.DocNumber,
		"Date":      doc.IssuedAt,
		"Total":     doc.Total,
		"Details":   lines,
	}

	body, err := a.request(ctx, cfg, http.MethodPost, "/documents", nil, payload)
	if err != nil {
		return failOp(err)
	}
	return OperationResult{Success: true, Message: "document created in Caspit", ExternalID: extractDocumentID(body)}
}

// extractDocumentID pulls the vendor-assigned document id out of a creation
// response, which may be JSON or a bare quoted string.
func extractDocumentID(body []byte) string {
	if rec := decodeRecord(body); rec != nil {
		if id := firstString(rec, "DocumentId", "documentId", "Id", "id"); id != "" {
			return id
		}
		return ""
	}
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}

// productToInternal maps a Caspit product record to the internal shape,
// trying each historical field name in order. Records with neither a catalog
// number nor a name are unusable and map to nil; the caller counts them as
// dropped instead of failing the batch.
func (a *CaspitAdapter) productToInternal(raw json.RawMessage) *models.Product {
	rec := decodeRecord(raw)
	if rec == nil {
		return nil
	}

	catalog := firstString(rec, "CatalogNumber", "catalogNumber", "CatalogNum", "Sku", "sku")
	name := firstString(rec, "Name", "name", "Description", "description", "ProductName")
	if catalog == "" && name == "" {
		return nil
	}
	if name == "" {
		name = "Item " + catalog
	}

	qty, _ := firstFloat(rec, "QtyInStock", "qtyInStock", "Quantity", "quantity", "Stock")
	price, ok := firstFloat(rec, "PurchasePrice", "purchasePrice", "Price", "price", "Cost")
	if !ok {
		// Some Caspit exports only carry a line total.
		total, _ := firstFloat(rec, "Total", "total")
		price = models.UnitPriceFrom(total, qty)
	}
	sale, _ := firstFloat(rec, "SalePrice1", "salePrice1", "SalePrice", "salePrice")

	p := &models.Product{
		ExternalProductID: firstString(rec, "ProductId", "productId", "Id", "id"),
		CatalogNumber:     catalog,
		Name:              name,
		Quantity:          qty,
		UnitPrice:         models.Round2(price),
		SalePrice:         models.Round2(sale),
		Barcode:           firstString(rec, "Barcode", "barcode", "BarCode"),
	}
	p.Recalc()
	return p
}

func (a *CaspitAdapter) contactToInternal(raw json.RawMessage) *models.Supplier {
	rec := decodeRecord(raw)
	if rec == nil {
		return nil
	}

	name := firstString(rec, "Name", "name", "BusinessName", "ContactName")
	if name == "" {
		return nil
	}
	return &models.Supplier{
		Name:              name,
		ExternalAccountID: firstString(rec, "ContactId", "contactId", "Id", "id"),
		TaxID:             firstString(rec, "OsekMorshe", "osekMorshe", "TaxId", "taxId"),
		Phone:             firstString(rec, "Phone", "phone", "Mobile"),
		Email:             firstString(rec, "Email", "email"),
		Address:           firstString(rec, "Address", "address"),
		Status:            "Active",
	}
}

// productPayload mirrors productToInternal: it emits the field names Caspit
// expects, with the primary key always present (client-assigned convention).
func (a *CaspitAdapter) productPayload(product *models.Product, externalID string, active bool) map[string]interface{} {
	payload := map[string]interface{}{
		"ProductId":     externalID,
		"CatalogNumber": product.CatalogNumber,
		"Name":          product.Name,
		"QtyInStock":    product.Quantity,
		"PurchasePrice": models.Round2(product.UnitPrice),
		"Status":        1,
	}
	if product.SalePrice > 0 {
		payload["SalePrice1"] = models.Round2(product.SalePrice)
	}
	if product.Barcode != "" {
		payload["Barcode"] = product.Barcode
	}
	if !active {
		payload["Status"] = 0
	}
	return payload
}
