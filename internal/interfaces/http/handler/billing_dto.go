package handler

import (
	"time"

	"github.com/nhatro/backend/internal/domain/billing"
	"github.com/nhatro/backend/internal/domain/rental"
)

// ValidateReadingRequest represents a dry-run validation of a meter reading
// @Description Request body for validating a meter reading without saving it
type ValidateReadingRequest struct {
	OldIndex      *int64 `json:"old_index" binding:"required,min=0" example:"120"`
	NewIndex      *int64 `json:"new_index" binding:"required,min=0" example:"145"`
	IsMeterReset  bool   `json:"is_meter_reset" example:"false"`
	MaxMeterValue int64  `json:"max_meter_value" binding:"omitempty,min=1" example:"9999"`
}

// RecordReadingRequest represents a request to record a meter reading
// @Description Request body for recording one contract-service-month reading
type RecordReadingRequest struct {
	ContractID    string   `json:"contract_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ServiceID     string   `json:"service_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Month         string   `json:"month" binding:"required,billingmonth" example:"08-2026"`
	OldIndex      *int64   `json:"old_index" binding:"omitempty,min=0" example:"120"`
	NewIndex      *int64   `json:"new_index" binding:"required,min=0" example:"145"`
	IsMeterReset  bool     `json:"is_meter_reset" example:"false"`
	MaxMeterValue int64    `json:"max_meter_value" binding:"omitempty,min=1" example:"9999"`
	Evidence      []string `json:"evidence" binding:"omitempty,dive,max=500"`
}

// ExtraChargeRequest is one operator-supplied charge on an invoice
// @Description Ad hoc non-negative charge added to an invoice
type ExtraChargeRequest struct {
	Name   string  `json:"name" binding:"required,min=1,max=200" example:"Parking fee"`
	Amount float64 `json:"amount" binding:"required,gte=0" example:"150000"`
	Note   string  `json:"note" binding:"max=500" example:"Motorbike slot B3"`
}

// GenerateInvoiceRequest represents a request to generate or refresh an invoice
// @Description Request body for generating the invoice of one contract-month
type GenerateInvoiceRequest struct {
	ContractID string               `json:"contract_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Month      string               `json:"month" binding:"required,billingmonth" example:"08-2026"`
	Extras     []ExtraChargeRequest `json:"extras" binding:"omitempty,dive"`
	Discount   float64              `json:"discount" binding:"omitempty,gte=0" example:"100000"`
	Finalize   bool                 `json:"finalize" example:"true"`
}

// RecordPaymentRequest represents a request to record a payment
// @Description Request body for recording a payment against an invoice
type RecordPaymentRequest struct {
	Amount         float64 `json:"amount" binding:"required,gt=0" example:"3500000"`
	Method         string  `json:"method" binding:"required,oneof=CASH BANK MOMO ZALOPAY OTHER" example:"BANK"`
	PaidAt         string  `json:"paid_at" binding:"omitempty" example:"2026-08-05T10:30:00Z"`
	Note           string  `json:"note" binding:"max=500" example:"Transfer ref 8821"`
	IdempotencyKey string  `json:"idempotency_key" binding:"omitempty,min=1,max=100" example:"pay-8821-a"`
}

// ReadingResponse represents a meter reading in API responses
// @Description Meter reading details returned by the API
type ReadingResponse struct {
	ID            string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ContractID    string   `json:"contract_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ServiceID     string   `json:"service_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Month         string   `json:"month" example:"08-2026"`
	OldIndex      int64    `json:"old_index" example:"120"`
	NewIndex      int64    `json:"new_index" example:"145"`
	IsMeterReset  bool     `json:"is_meter_reset" example:"false"`
	MaxMeterValue int64    `json:"max_meter_value" example:"9999"`
	Consumption   int64    `json:"consumption" example:"25"`
	Confirmed     bool     `json:"confirmed" example:"false"`
	Evidence      []string `json:"evidence,omitempty"`
	CreatedAt     string   `json:"created_at" example:"2026-08-01T08:00:00Z"`
	UpdatedAt     string   `json:"updated_at" example:"2026-08-01T08:00:00Z"`
}

// LineItemResponse represents one invoice line in API responses
type LineItemResponse struct {
	Type      string  `json:"type" example:"SERVICE" enums:"RENT,SERVICE,EXTRA,DISCOUNT,DEBT"`
	Name      string  `json:"name" example:"Electricity"`
	Quantity  string  `json:"quantity" example:"25"`
	Unit      string  `json:"unit,omitempty" example:"kWh"`
	UnitPrice string  `json:"unit_price" example:"3500"`
	Amount    string  `json:"amount" example:"87500"`
	Note      string  `json:"note,omitempty"`
	ServiceID *string `json:"service_id,omitempty"`
	ReadingID *string `json:"reading_id,omitempty"`
}

// PaymentRecordResponse represents one payment in an invoice's history
type PaymentRecordResponse struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440003"`
	Amount     string  `json:"amount" example:"3500000"`
	Method     string  `json:"method" example:"BANK" enums:"CASH,BANK,MOMO,ZALOPAY,OTHER"`
	PaidAt     string  `json:"paid_at" example:"2026-08-05T10:30:00Z"`
	Note       string  `json:"note,omitempty"`
	RecordedBy *string `json:"recorded_by,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
// @Description Invoice details returned by the API
type InvoiceResponse struct {
	ID          string                  `json:"id" example:"550e8400-e29b-41d4-a716-446655440004"`
	Code        string                  `json:"code" example:"INV-20260801-00001"`
	PropertyID  string                  `json:"property_id" example:"550e8400-e29b-41d4-a716-446655440005"`
	ContractID  string                  `json:"contract_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RoomID      string                  `json:"room_id" example:"550e8400-e29b-41d4-a716-446655440006"`
	Month       string                  `json:"month" example:"08-2026"`
	LineItems   []LineItemResponse      `json:"line_items"`
	Discount    string                  `json:"discount" example:"0"`
	TotalAmount string                  `json:"total_amount" example:"3587500"`
	PaidAmount  string                  `json:"paid_amount" example:"0"`
	Outstanding string                  `json:"outstanding" example:"3587500"`
	Status      string                  `json:"status" example:"PENDING" enums:"DRAFT,PENDING,PARTIAL,PAID"`
	DueDate     string                  `json:"due_date,omitempty" example:"2026-09-05T00:00:00Z"`
	Payments    []PaymentRecordResponse `json:"payments,omitempty"`
	Note        string                  `json:"note,omitempty"`
	CreatedAt   string                  `json:"created_at" example:"2026-08-01T08:00:00Z"`
	UpdatedAt   string                  `json:"updated_at" example:"2026-08-01T08:00:00Z"`
	Version     int                     `json:"version" example:"1"`
}

// GenerateInvoiceResponse is the generated invoice plus the services the
// builder could not bill yet for lack of a confirmed reading
type GenerateInvoiceResponse struct {
	Invoice         InvoiceResponse `json:"invoice"`
	PendingServices []string        `json:"pending_services,omitempty"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440007"`
	Code       string  `json:"code" example:"TXN-20260805-00001"`
	Type       string  `json:"type" example:"INVOICE_PAYMENT" enums:"INVOICE_PAYMENT,DEPOSIT,OTHER"`
	Source     string  `json:"source" example:"ORGANIC" enums:"ORGANIC,BACKFILL"`
	Amount     string  `json:"amount" example:"3500000"`
	Method     string  `json:"method" example:"BANK"`
	Date       string  `json:"date" example:"2026-08-05T10:30:00Z"`
	ContractID *string `json:"contract_id,omitempty"`
	InvoiceID  *string `json:"invoice_id,omitempty"`
	PaymentID  *string `json:"payment_id,omitempty"`
	Note       string  `json:"note,omitempty"`
	CreatedAt  string  `json:"created_at" example:"2026-08-05T10:30:00Z"`
}

// RecordPaymentResponse is the outcome of recording a payment
type RecordPaymentResponse struct {
	Invoice     InvoiceResponse        `json:"invoice"`
	Payment     *PaymentRecordResponse `json:"payment,omitempty"`
	Transaction *TransactionResponse   `json:"transaction,omitempty"`
	Duplicate   bool                   `json:"duplicate" example:"false"`
}

func toReadingResponse(r *rental.ServiceReading) ReadingResponse {
	consumption, _ := r.Consumption()
	return ReadingResponse{
		ID:            r.ID.String(),
		ContractID:    r.ContractID.String(),
		ServiceID:     r.ServiceID.String(),
		Month:         r.Month.String(),
		OldIndex:      r.OldIndex,
		NewIndex:      r.NewIndex,
		IsMeterReset:  r.IsMeterReset,
		MaxMeterValue: r.MaxMeterValue,
		Consumption:   consumption,
		Confirmed:     r.Confirmed,
		Evidence:      r.Evidence,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}

func toLineItemResponses(items billing.LineItems) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		resp := LineItemResponse{
			Type:      string(item.Type),
			Name:      item.Name,
			Quantity:  item.Quantity.String(),
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice.String(),
			Amount:    item.Amount.String(),
			Note:      item.Note,
		}
		if item.ServiceID != nil {
			s := item.ServiceID.String()
			resp.ServiceID = &s
		}
		if item.ReadingID != nil {
			s := item.ReadingID.String()
			resp.ReadingID = &s
		}
		out = append(out, resp)
	}
	return out
}

func toPaymentRecordResponse(p billing.PaymentRecord) PaymentRecordResponse {
	resp := PaymentRecordResponse{
		ID:     p.ID.String(),
		Amount: p.Amount.String(),
		Method: string(p.Method),
		PaidAt: p.PaidAt.Format(time.RFC3339),
		Note:   p.Note,
	}
	if p.RecordedBy != nil {
		s := p.RecordedBy.String()
		resp.RecordedBy = &s
	}
	return resp
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	payments := make([]PaymentRecordResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, toPaymentRecordResponse(p))
	}

	resp := InvoiceResponse{
		ID:          inv.ID.String(),
		Code:        inv.Code,
		PropertyID:  inv.PropertyID.String(),
		ContractID:  inv.ContractID.String(),
		RoomID:      inv.RoomID.String(),
		Month:       inv.Month.String(),
		LineItems:   toLineItemResponses(inv.LineItems),
		Discount:    inv.Discount.String(),
		TotalAmount: inv.TotalAmount.String(),
		PaidAmount:  inv.PaidAmount.String(),
		Outstanding: inv.Outstanding().String(),
		Status:      string(inv.Status),
		Payments:    payments,
		Note:        inv.Note,
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   inv.UpdatedAt.Format(time.RFC3339),
		Version:     inv.Version,
	}
	if !inv.DueDate.IsZero() {
		resp.DueDate = inv.DueDate.Format(time.RFC3339)
	}
	return resp
}

func toInvoiceResponses(invoices []*billing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out
}

func toTransactionResponse(txn *billing.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        txn.ID.String(),
		Code:      txn.Code,
		Type:      string(txn.Type),
		Source:    string(txn.Source),
		Amount:    txn.Amount.String(),
		Method:    string(txn.Method),
		Date:      txn.Date.Format(time.RFC3339),
		Note:      txn.Note,
		CreatedAt: txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.ContractID != nil {
		s := txn.ContractID.String()
		resp.ContractID = &s
	}
	if txn.InvoiceID != nil {
		s := txn.InvoiceID.String()
		resp.InvoiceID = &s
	}
	if txn.PaymentID != nil {
		s := txn.PaymentID.String()
		resp.PaymentID = &s
	}
	return resp
}

func toTransactionResponses(txns []*billing.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	return out
}
