package payment

// yookassaAmount is the money representation on the wire, major units with
// two decimal places.
type yookassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// yookassaConfirmation requests a redirect-type confirmation flow.
type yookassaConfirmation struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url,omitempty"`
}

// yookassaCustomer identifies the receipt recipient.
type yookassaCustomer struct {
	Email string `json:"email"`
}

// yookassaReceiptItem is one fiscal receipt line.
type yookassaReceiptItem struct {
	Description    string         `json:"description"`
	Quantity       string         `json:"quantity"`
	Amount         yookassaAmount `json:"amount"`
	VATCode        int            `json:"vat_code"`
	PaymentSubject string         `json:"payment_subject"`
	PaymentMode    string         `json:"payment_mode"`
}

// yookassaReceipt is the fiscal receipt attached to the payment.
type yookassaReceipt struct {
	Customer yookassaCustomer      `json:"customer"`
	Items    []yookassaReceiptItem `json:"items"`
}

// yookassaCreatePaymentRequest is the POST /payments body.
type yookassaCreatePaymentRequest struct {
	Amount       yookassaAmount       `json:"amount"`
	Capture      bool                 `json:"capture"`
	Confirmation yookassaConfirmation `json:"confirmation"`
	Description  string               `json:"description,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	Receipt      *yookassaReceipt     `json:"receipt,omitempty"`
}

// yookassaConfirmationResponse carries the customer redirect URL.
type yookassaConfirmationResponse struct {
	Type            string `json:"type"`
	ConfirmationURL string `json:"confirmation_url"`
}

// yookassaCreatePaymentResponse is the POST /payments response.
type yookassaCreatePaymentResponse struct {
	ID           string                       `json:"id"`
	Status       string                       `json:"status"`
	Paid         bool                         `json:"paid"`
	Test         bool                         `json:"test"`
	Confirmation yookassaConfirmationResponse `json:"confirmation"`
}

// yookassaErrorResponse is the API error envelope.
type yookassaErrorResponse struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
