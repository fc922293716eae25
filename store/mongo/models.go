package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/biwswalker/movemate-ledger/adjustment"
	"github.com/biwswalker/movemate-ledger/artifact"
	"github.com/biwswalker/movemate-ledger/billing"
	"github.com/biwswalker/movemate-ledger/customer"
	"github.com/biwswalker/movemate-ledger/id"
	"github.com/biwswalker/movemate-ledger/invoice"
	"github.com/biwswalker/movemate-ledger/payment"
	"github.com/biwswalker/movemate-ledger/types"
)

// ==================== Shared models ====================

// Money persists as an exact decimal string; float64 would corrupt
// sub-satang tax fractions.
type moneyModel struct {
	Amount   string `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyModel(m types.Money) moneyModel {
	return moneyModel{Amount: m.Amount.String(), Currency: m.Currency}
}

func fromMoneyModel(m moneyModel) (types.Money, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return types.Money{}, fmt.Errorf("ledger/mongo: parse amount %q: %w", m.Amount, err)
	}

	return types.New(amount, m.Currency), nil
}

type artifactModel struct {
	ID          string    `bson:"id"`
	Kind        string    `bson:"kind"`
	FileName    string    `bson:"file_name"`
	FilePath    string    `bson:"file_path"`
	ContentType string    `bson:"content_type"`
	GeneratedAt time.Time `bson:"generated_at"`
}

func toArtifactModel(a *artifact.Artifact) *artifactModel {
	if a == nil {
		return nil
	}

	return &artifactModel{
		ID:          a.ID.String(),
		Kind:        string(a.Kind),
		FileName:    a.FileName,
		FilePath:    a.FilePath,
		ContentType: a.ContentType,
		GeneratedAt: a.GeneratedAt,
	}
}

func fromArtifactModel(m *artifactModel) (*artifact.Artifact, error) {
	if m == nil {
		return nil, nil
	}
	artID, err := id.ParseArtifactID(m.ID)
	if err != nil {
		return nil, err
	}

	return &artifact.Artifact{
		ID:          artID,
		Kind:        artifact.DocumentKind(m.Kind),
		FileName:    m.FileName,
		FilePath:    m.FilePath,
		ContentType: m.ContentType,
		GeneratedAt: m.GeneratedAt,
	}, nil
}

// ==================== Sequence models ====================

type counterModel struct {
	ID    string `bson:"_id"` // counter type
	Value int64  `bson:"value"`
}

// ==================== Customer models ====================

type customerModel struct {
	ID         string            `bson:"_id"`
	UserNumber string            `bson:"user_number"`
	UserType   string            `bson:"user_type"`
	Status     string            `bson:"status"`
	Title      string            `bson:"title,omitempty"`
	FullName   string            `bson:"full_name"`
	Email      string            `bson:"email"`
	Phone      string            `bson:"phone,omitempty"`
	TaxID      string            `bson:"tax_id,omitempty"`
	Address    string            `bson:"address,omitempty"`
	Province   string            `bson:"province,omitempty"`
	District   string            `bson:"district,omitempty"`
	PostalCode string            `bson:"postal_code,omitempty"`
	Metadata   map[string]string `bson:"metadata,omitempty"`
	CreatedAt  time.Time         `bson:"created_at"`
	UpdatedAt  time.Time         `bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:         c.ID.String(),
		UserNumber: c.UserNumber,
		UserType:   string(c.UserType),
		Status:     string(c.Status),
		Title:      c.Title,
		FullName:   c.FullName,
		Email:      c.Email,
		Phone:      c.Phone,
		TaxID:      c.TaxID,
		Address:    c.Address,
		Province:   c.Province,
		District:   c.District,
		PostalCode: c.PostalCode,
		Metadata:   c.Metadata,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	custID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: customer id: %w", err)
	}

	return &customer.Customer{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         custID,
		UserNumber: m.UserNumber,
		UserType:   customer.UserType(m.UserType),
		Status:     customer.Status(m.Status),
		Title:      m.Title,
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		TaxID:      m.TaxID,
		Address:    m.Address,
		Province:   m.Province,
		District:   m.District,
		PostalCode: m.PostalCode,
		Metadata:   m.Metadata,
	}, nil
}

// ==================== Billing models ====================

type billingModel struct {
	ID                string            `bson:"_id"`
	CustomerID        string            `bson:"customer_id"`
	InvoiceID         string            `bson:"invoice_id"`
	Status            string            `bson:"status"`
	State             string            `bson:"state"`
	PaymentMethod     string            `bson:"payment_method"`
	Currency          string            `bson:"currency"`
	SubTotal          moneyModel        `bson:"sub_total"`
	TaxAmount         moneyModel        `bson:"tax_amount"`
	Total             moneyModel        `bson:"total"`
	AdjustmentNoteIDs []string          `bson:"adjustment_note_ids,omitempty"`
	LatestPaymentID   string            `bson:"latest_payment_id,omitempty"`
	PeriodStart       time.Time         `bson:"period_start"`
	PeriodEnd         time.Time         `bson:"period_end"`
	IssueDate         time.Time         `bson:"issue_date"`
	DueDate           time.Time         `bson:"due_date"`
	PaidAt            *time.Time        `bson:"paid_at,omitempty"`
	CancelledAt       *time.Time        `bson:"cancelled_at,omitempty"`
	RefundedAt        *time.Time        `bson:"refunded_at,omitempty"`
	Remark            string            `bson:"remark,omitempty"`
	Metadata          map[string]string `bson:"metadata,omitempty"`
	CreatedAt         time.Time         `bson:"created_at"`
	UpdatedAt         time.Time         `bson:"updated_at"`
}

func toBillingModel(rec *billing.Record) *billingModel {
	noteIDs := make([]string, len(rec.AdjustmentNoteIDs))
	for i, noteID := range rec.AdjustmentNoteIDs {
		noteIDs[i] = noteID.String()
	}

	return &billingModel{
		ID:                rec.ID.String(),
		CustomerID:        rec.CustomerID.String(),
		InvoiceID:         rec.InvoiceID.String(),
		Status:            string(rec.Status),
		State:             string(rec.State),
		PaymentMethod:     string(rec.PaymentMethod),
		Currency:          rec.Currency,
		SubTotal:          toMoneyModel(rec.SubTotal),
		TaxAmount:         toMoneyModel(rec.TaxAmount),
		Total:             toMoneyModel(rec.Total),
		AdjustmentNoteIDs: noteIDs,
		LatestPaymentID:   rec.LatestPaymentID.String(),
		PeriodStart:       rec.PeriodStart,
		PeriodEnd:         rec.PeriodEnd,
		IssueDate:         rec.IssueDate,
		DueDate:           rec.DueDate,
		PaidAt:            rec.PaidAt,
		CancelledAt:       rec.CancelledAt,
		RefundedAt:        rec.RefundedAt,
		Remark:            rec.Remark,
		Metadata:          rec.Metadata,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func fromBillingModel(m *billingModel) (*billing.Record, error) {
	billingID, err := id.ParseBillingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: billing id: %w", err)
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: billing customer id: %w", err)
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: billing invoice id: %w", err)
	}

	noteIDs := make([]id.AdjustmentID, len(m.AdjustmentNoteIDs))
	for i, raw := range m.AdjustmentNoteIDs {
		noteIDs[i], err = id.ParseAdjustmentID(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger/mongo: billing note id: %w", err)
		}
	}

	var paymentID id.PaymentID
	if m.LatestPaymentID != "" {
		paymentID, err = id.ParsePaymentID(m.LatestPaymentID)
		if err != nil {
			return nil, fmt.Errorf("ledger/mongo: billing payment id: %w", err)
		}
	}

	subTotal, err := fromMoneyModel(m.SubTotal)
	if err != nil {
		return nil, err
	}
	taxAmount, err := fromMoneyModel(m.TaxAmount)
	if err != nil {
		return nil, err
	}
	total, err := fromMoneyModel(m.Total)
	if err != nil {
		return nil, err
	}

	return &billing.Record{
		Entity:            types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                billingID,
		CustomerID:        custID,
		InvoiceID:         invID,
		Status:            billing.Status(m.Status),
		State:             billing.State(m.State),
		PaymentMethod:     billing.PaymentMethod(m.PaymentMethod),
		Currency:          m.Currency,
		SubTotal:          subTotal,
		TaxAmount:         taxAmount,
		Total:             total,
		AdjustmentNoteIDs: noteIDs,
		LatestPaymentID:   paymentID,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		RefundedAt:        m.RefundedAt,
		Remark:            m.Remark,
		Metadata:          m.Metadata,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	ID            string              `bson:"_id"`
	InvoiceNumber string              `bson:"invoice_number"`
	BillingID     string              `bson:"billing_id"`
	CustomerID    string              `bson:"customer_id"`
	Currency      string              `bson:"currency"`
	SubTotal      moneyModel          `bson:"sub_total"`
	TaxAmount     moneyModel          `bson:"tax_amount"`
	Total         moneyModel          `bson:"total"`
	LineItems     []invoiceLineModel  `bson:"line_items,omitempty"`
	IssueDate     time.Time           `bson:"issue_date"`
	DueDate       *time.Time          `bson:"due_date,omitempty"`
	Document      *artifactModel      `bson:"document,omitempty"`
	Metadata      map[string]string   `bson:"metadata,omitempty"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

type invoiceLineModel struct {
	Description string     `bson:"description"`
	Quantity    int64      `bson:"quantity"`
	UnitAmount  moneyModel `bson:"unit_amount"`
	Amount      moneyModel `bson:"amount"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	lines := make([]invoiceLineModel, len(inv.LineItems))
	for i, li := range inv.LineItems {
		lines[i] = invoiceLineModel{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitAmount:  toMoneyModel(li.UnitAmount),
			Amount:      toMoneyModel(li.Amount),
		}
	}

	return &invoiceModel{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		BillingID:     inv.BillingID.String(),
		CustomerID:    inv.CustomerID.String(),
		Currency:      inv.Currency,
		SubTotal:      toMoneyModel(inv.SubTotal),
		TaxAmount:     toMoneyModel(inv.TaxAmount),
		Total:         toMoneyModel(inv.Total),
		LineItems:     lines,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Document:      toArtifactModel(inv.Document),
		Metadata:      inv.Metadata,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: invoice id: %w", err)
	}
	billingID, err := id.ParseBillingID(m.BillingID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: invoice billing id: %w", err)
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: invoice customer id: %w", err)
	}

	subTotal, err := fromMoneyModel(m.SubTotal)
	if err != nil {
		return nil, err
	}
	taxAmount, err := fromMoneyModel(m.TaxAmount)
	if err != nil {
		return nil, err
	}
	total, err := fromMoneyModel(m.Total)
	if err != nil {
		return nil, err
	}

	lines := make([]invoice.LineItem, len(m.LineItems))
	for i, lm := range m.LineItems {
		unit, err := fromMoneyModel(lm.UnitAmount)
		if err != nil {
			return nil, err
		}
		amount, err := fromMoneyModel(lm.Amount)
		if err != nil {
			return nil, err
		}
		lines[i] = invoice.LineItem{
			Description: lm.Description,
			Quantity:    lm.Quantity,
			UnitAmount:  unit,
			Amount:      amount,
		}
	}

	doc, err := fromArtifactModel(m.Document)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            invID,
		InvoiceNumber: m.InvoiceNumber,
		BillingID:     billingID,
		CustomerID:    custID,
		Currency:      m.Currency,
		SubTotal:      subTotal,
		TaxAmount:     taxAmount,
		Total:         total,
		LineItems:     lines,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		Document:      doc,
		Metadata:      m.Metadata,
	}, nil
}

// ==================== Adjustment note models ====================

type adjustmentModel struct {
	ID               string         `bson:"_id"`
	DocumentNumber   string         `bson:"document_number"`
	Type             string         `bson:"type"`
	BillingID        string         `bson:"billing_id"`
	CustomerID       string         `bson:"customer_id"`
	PrevDocNumber    string         `bson:"prev_doc_number"`
	PrevDocType      string         `bson:"prev_doc_type"`
	LineItems        []adjLineModel `bson:"line_items,omitempty"`
	AdjustmentAmount moneyModel     `bson:"adjustment_amount"`
	PreviousSubTotal moneyModel     `bson:"previous_sub_total"`
	SubTotal         moneyModel     `bson:"sub_total"`
	TaxAmount        moneyModel     `bson:"tax_amount"`
	Total            moneyModel     `bson:"total"`
	IssueDate        time.Time      `bson:"issue_date"`
	Remark           string         `bson:"remark,omitempty"`
	Document         *artifactModel `bson:"document,omitempty"`
	CreatedAt        time.Time      `bson:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at"`
}

type adjLineModel struct {
	Description string     `bson:"description"`
	Amount      moneyModel `bson:"amount"`
}

func toAdjustmentModel(note *adjustment.Note) *adjustmentModel {
	lines := make([]adjLineModel, len(note.LineItems))
	for i, li := range note.LineItems {
		lines[i] = adjLineModel{Description: li.Description, Amount: toMoneyModel(li.Amount)}
	}

	return &adjustmentModel{
		ID:               note.ID.String(),
		DocumentNumber:   note.DocumentNumber,
		Type:             string(note.Type),
		BillingID:        note.BillingID.String(),
		CustomerID:       note.CustomerID.String(),
		PrevDocNumber:    note.PreviousDocument.DocumentNumber,
		PrevDocType:      string(note.PreviousDocument.DocumentType),
		LineItems:        lines,
		AdjustmentAmount: toMoneyModel(note.AdjustmentAmount),
		PreviousSubTotal: toMoneyModel(note.PreviousSubTotal),
		SubTotal:         toMoneyModel(note.SubTotal),
		TaxAmount:        toMoneyModel(note.TaxAmount),
		Total:            toMoneyModel(note.Total),
		IssueDate:        note.IssueDate,
		Remark:           note.Remark,
		Document:         toArtifactModel(note.Document),
		CreatedAt:        note.CreatedAt,
		UpdatedAt:        note.UpdatedAt,
	}
}

func fromAdjustmentModel(m *adjustmentModel) (*adjustment.Note, error) {
	noteID, err := id.ParseAdjustmentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: adjustment id: %w", err)
	}
	billingID, err := id.ParseBillingID(m.BillingID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: adjustment billing id: %w", err)
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: adjustment customer id: %w", err)
	}

	lines := make([]adjustment.LineItem, len(m.LineItems))
	for i, lm := range m.LineItems {
		amount, err := fromMoneyModel(lm.Amount)
		if err != nil {
			return nil, err
		}
		lines[i] = adjustment.LineItem{Description: lm.Description, Amount: amount}
	}

	adjAmount, err := fromMoneyModel(m.AdjustmentAmount)
	if err != nil {
		return nil, err
	}
	prevSubTotal, err := fromMoneyModel(m.PreviousSubTotal)
	if err != nil {
		return nil, err
	}
	subTotal, err := fromMoneyModel(m.SubTotal)
	if err != nil {
		return nil, err
	}
	taxAmount, err := fromMoneyModel(m.TaxAmount)
	if err != nil {
		return nil, err
	}
	total, err := fromMoneyModel(m.Total)
	if err != nil {
		return nil, err
	}

	doc, err := fromArtifactModel(m.Document)
	if err != nil {
		return nil, err
	}

	return &adjustment.Note{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             noteID,
		DocumentNumber: m.DocumentNumber,
		Type:           adjustment.NoteType(m.Type),
		BillingID:      billingID,
		CustomerID:     custID,
		PreviousDocument: adjustment.DocumentRef{
			DocumentNumber: m.PrevDocNumber,
			DocumentType:   adjustment.DocumentType(m.PrevDocType),
		},
		LineItems:        lines,
		AdjustmentAmount: adjAmount,
		PreviousSubTotal: prevSubTotal,
		SubTotal:         subTotal,
		TaxAmount:        taxAmount,
		Total:            total,
		IssueDate:        m.IssueDate,
		Remark:           m.Remark,
		Document:         doc,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	ID            string            `bson:"_id"`
	PaymentNumber string            `bson:"payment_number"`
	BillingID     string            `bson:"billing_id"`
	CustomerID    string            `bson:"customer_id"`
	Status        string            `bson:"status"`
	Method        string            `bson:"method"`
	Currency      string            `bson:"currency"`
	SubTotal      moneyModel        `bson:"sub_total"`
	TaxAmount     moneyModel        `bson:"tax_amount"`
	Total         moneyModel        `bson:"total"`
	EvidenceURL   string            `bson:"evidence_url,omitempty"`
	PaidAt        *time.Time        `bson:"paid_at,omitempty"`
	CancelledAt   *time.Time        `bson:"cancelled_at,omitempty"`
	Remark        string            `bson:"remark,omitempty"`
	Metadata      map[string]string `bson:"metadata,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:            p.ID.String(),
		PaymentNumber: p.PaymentNumber,
		BillingID:     p.BillingID.String(),
		CustomerID:    p.CustomerID.String(),
		Status:        string(p.Status),
		Method:        string(p.Method),
		Currency:      p.Currency,
		SubTotal:      toMoneyModel(p.SubTotal),
		TaxAmount:     toMoneyModel(p.TaxAmount),
		Total:         toMoneyModel(p.Total),
		EvidenceURL:   p.EvidenceURL,
		PaidAt:        p.PaidAt,
		CancelledAt:   p.CancelledAt,
		Remark:        p.Remark,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: payment id: %w", err)
	}
	billingID, err := id.ParseBillingID(m.BillingID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: payment billing id: %w", err)
	}
	custID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: payment customer id: %w", err)
	}

	subTotal, err := fromMoneyModel(m.SubTotal)
	if err != nil {
		return nil, err
	}
	taxAmount, err := fromMoneyModel(m.TaxAmount)
	if err != nil {
		return nil, err
	}
	total, err := fromMoneyModel(m.Total)
	if err != nil {
		return nil, err
	}

	return &payment.Payment{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            paymentID,
		PaymentNumber: m.PaymentNumber,
		BillingID:     billingID,
		CustomerID:    custID,
		Status:        payment.Status(m.Status),
		Method:        payment.Method(m.Method),
		Currency:      m.Currency,
		SubTotal:      subTotal,
		TaxAmount:     taxAmount,
		Total:         total,
		EvidenceURL:   m.EvidenceURL,
		PaidAt:        m.PaidAt,
		CancelledAt:   m.CancelledAt,
		Remark:        m.Remark,
		Metadata:      m.Metadata,
	}, nil
}
