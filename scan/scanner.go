// Package scan extracts structured line items from invoice and delivery-note
// photos through an AI vision model.
package scan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"invotrack/models"
)

const scanPrompt = `You are reading a photo of a Hebrew or English supplier invoice, delivery note or receipt.
Return ONLY a JSON object, no prose, with this exact shape:
{
  "docType": "invoice" | "delivery_note" | "receipt",
  "docNumber": "...",
  "supplierName": "...",
  "supplierTaxId": "...",
  "date": "YYYY-MM-DD",
  "total": 0,
  "items": [
    {"catalogNumber": "...", "description": "...", "quantity": 0, "totalPrice": 0, "barcode": "..."}
  ]
}
Use null or omit fields you cannot read. quantity and totalPrice are numbers.`

// Output is the structured result of one scanned document.
type Output struct {
	DocType       string               `json:"doctype"`
	DocNumber     string               `json:"docnumber,omitempty"`
	SupplierName  string               `json:"suppliername,omitempty"`
	SupplierTaxID string               `json:"suppliertaxid,omitempty"`
	Date          string               `json:"date,omitempty"`
	Total         float64              `json:"total"`
	Lines         []models.InvoiceLine `json:"lines"`
}

// Scanner wraps the vision model behind a single ScanImage call.
type Scanner struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func NewScanner() (*Scanner, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4o
	}
	return &Scanner{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.With().Str("component", "scan").Logger(),
	}, nil
}

// ScanImage sends the image to the vision model and parses the structured
// reply. Malformed model output fails the scan; it never returns partial
// garbage.
func (s *Scanner) ScanImage(ctx context.Context, image []byte, mimeType string) (*Output, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 2000,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: scanPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision model returned no choices")
	}

	out, err := parseScanResponse(resp.Choices[0].Message.Content)
	if err != nil {
		s.log.Error().Err(err).Str("content", resp.Choices[0].Message.Content).Msg("unparseable vision output")
		return nil, err
	}
	s.log.Info().Str("doctype", out.DocType).Int("lines", len(out.Lines)).Msg("document scanned")
	return out, nil
}

type scanItem struct {
	CatalogNumber string  `json:"catalogNumber"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	TotalPrice    float64 `json:"totalPrice"`
	Barcode       string  `json:"barcode"`
}

type scanPayload struct {
	DocType       string     `json:"docType"`
	DocNumber     string     `json:"docNumber"`
	SupplierName  string     `json:"supplierName"`
	SupplierTaxID string     `json:"supplierTaxId"`
	Date          string     `json:"date"`
	Total         float64    `json:"total"`
	Items         []scanItem `json:"items"`
}

// parseScanResponse decodes the model reply, tolerating markdown code
// fences, and derives unit prices from line totals (unit = total / quantity,
// zero quantity guarded, 2-decimal rounding).
func parseScanResponse(content string) (*Output, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var payload scanPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	docType := payload.DocType
	switch docType {
	case models.DocTypeInvoice, models.DocTypeDeliveryNote, models.DocTypeReceipt:
	default:
		docType = models.DocTypeInvoice
	}

	out := &Output{
		DocType:       docType,
		DocNumber:     payload.DocNumber,
		SupplierName:  payload.SupplierName,
		SupplierTaxID: payload.SupplierTaxID,
		Date:          payload.Date,
		Total:         models.Round2(payload.Total),
	}
	for _, item := range payload.Items {
		if item.Description == "" && item.CatalogNumber == "" {
			continue
		}
		unit := models.UnitPriceFrom(item.TotalPrice, item.Quantity)
		out.Lines = append(out.Lines, models.InvoiceLine{
			CatalogNumber: item.CatalogNumber,
			Name:          item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     unit,
			LineTotal:     models.Round2(item.Quantity * unit),
			Barcode:       item.Barcode,
		})
	}
	if len(out.Lines) == 0 {
		return nil, errors.New("no readable line items in document")
	}
	return out, nil
}
