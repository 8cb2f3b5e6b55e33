package domain

// LNURL-pay sendable bounds, in millisatoshis, plus the comment budget
// advertised in the payRequest metadata.
const (
	LnurlpMinSendable   uint64 = 330000
	LnurlpMaxSendable   uint64 = 100000000
	LnurlpCommentLength        = 280
)

// LnurlpParamsResponse is the first-step LNURL-pay response: the payment
// parameters a payer wallet needs before asking for an invoice.
type LnurlpParamsResponse struct {
	Callback       string `json:"callback"`
	MaxSendable    uint64 `json:"maxSendable"`
	MinSendable    uint64 `json:"minSendable"`
	Metadata       string `json:"metadata"`
	Tag            string `json:"tag"`
	CommentAllowed int    `json:"commentAllowed"`
}

// LnurlpInvoiceResponse is the second-step response carrying the invoice the
// payee's device produced.
type LnurlpInvoiceResponse struct {
	Pr     string   `json:"pr"`
	Routes []string `json:"routes"`
}

// SubmitInvoiceRequest is the callback a payee's device posts after the
// invoice-request push. The transaction id correlates it with the waiting
// LNURL-pay request; the k1 in the push is a separate auth challenge.
type SubmitInvoiceRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Invoice       string `json:"invoice" validate:"required"`
}
