/**
 * @description
 * This file defines the Go structs that model the inbound payment-provider
 * webhook payloads. Two providers deliver terminal transaction events with
 * different shapes but identical semantics: a reference that locates the local
 * transaction and a status or code that classifies the event.
 *
 * @notes
 * - VTPass carries a numeric string code; the refund/success code sets are
 *   provider constants and stay configurable (`040`/`016` refund, `000`
 *   success by default).
 * - SME Plug carries a plain status string; only "failed" triggers a refund.
 */
package domain

// SMEPlugWebhook is the payload delivered by the SME Plug provider.
type SMEPlugWebhook struct {
	Transaction SMEPlugTransaction `json:"transaction"`
}

// SMEPlugTransaction is the nested transaction object of an SME Plug event.
type SMEPlugTransaction struct {
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	CustomerReference string `json:"customer_reference"`
}

// VTPassWebhook is the payload delivered by the VTPass provider.
type VTPassWebhook struct {
	Type string     `json:"type"` // only "transaction-update" is processed
	Data VTPassData `json:"data"`
}

// VTPassData is the nested data object of a VTPass event.
type VTPassData struct {
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}
