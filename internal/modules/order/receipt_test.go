package order

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRenderReceiptPDF(t *testing.T) {
	o := &Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        StatusPending,
		PaymentMethod: MethodStripe,
		PaymentStatus: PaymentPaid,
		TotalAmount:   37.49,
		CreatedAt:     time.Now(),
		Items: []*OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 2, UnitPrice: 12.50},
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: 12.49},
		},
	}

	pdf, err := renderReceiptPDF(o)
	if err != nil {
		t.Fatalf("renderReceiptPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header: %q", pdf[:min(len(pdf), 8)])
	}
	if len(pdf) < 500 {
		t.Errorf("suspiciously small document: %d bytes", len(pdf))
	}
}

func TestRenderReceiptPDFNoItems(t *testing.T) {
	o := &Order{
		ID:            uuid.New(),
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     time.Now(),
	}
	pdf, err := renderReceiptPDF(o)
	if err != nil {
		t.Fatalf("renderReceiptPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}
