package receipt

import "github.com/shopspring/decimal"

// CashPaymentMethod is the payment method that prints tendered amount and change
const CashPaymentMethod = "Dinheiro"

// LineItem is one product row of a sale
type LineItem struct {
	Description string `json:"descricao"`
	Quantity    Amount `json:"quantidade"`
	UnitPrice   Amount `json:"preco"`
}

// LineTotal returns quantity times unit price
func (i LineItem) LineTotal() Amount {
	return NewAmount(i.Quantity.Decimal().Mul(i.UnitPrice.Decimal()))
}

// Transaction is the sale to print, as sent by the checkout
type Transaction struct {
	SaleID          SaleRef    `json:"venda_id"`
	Client          string     `json:"cliente,omitempty"`
	SellerName      string     `json:"vendedor,omitempty"`
	TaxID           string     `json:"cpf,omitempty"`
	DateLabel       string     `json:"data"`
	Items           []LineItem `json:"itens"`
	Subtotal        Amount     `json:"subtotal"`
	DiscountAmount  Amount     `json:"desconto_valor"`
	DiscountPercent Amount     `json:"desconto_percentual"`
	PaymentMethod   string     `json:"forma_pagamento"`
	AmountTendered  Amount     `json:"valor_recebido"`
	ChangeDue       Amount     `json:"troco"`
	Total           Amount     `json:"total"`
	PrinterName     string     `json:"impressora_nome,omitempty"`
}

// Validate checks the fields composition cannot do without
func (t *Transaction) Validate() error {
	if t == nil {
		return NewCompositionError("transaction is missing")
	}
	if t.Items == nil {
		return NewCompositionError("items must be a list")
	}
	if !t.Total.IsPresent() {
		return NewCompositionError("total must be numeric")
	}
	return nil
}

// ItemsTotal sums the line totals
func (t *Transaction) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range t.Items {
		sum = sum.Add(item.LineTotal().Decimal())
	}
	return sum
}

// WithDerivedTotals returns a copy where an absent subtotal is filled with
// the sum of the items, and an absent discount percent is derived from the
// discount amount over the subtotal.
func (t Transaction) WithDerivedTotals() Transaction {
	if !t.Subtotal.IsTruthy() {
		t.Subtotal = NewAmount(t.ItemsTotal())
	}
	if !t.DiscountPercent.IsTruthy() && t.DiscountAmount.IsPositive() && t.Subtotal.IsPositive() {
		pct := t.DiscountAmount.Decimal().Div(t.Subtotal.Decimal()).Mul(decimal.NewFromInt(100))
		t.DiscountPercent = NewAmount(pct.Round(2))
	}
	return t
}
