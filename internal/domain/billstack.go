/**
 * @description
 * This file models the request and response payloads of the Billstack
 * account-provisioning aggregator. Billstack can issue a dedicated virtual
 * account against any of several partner banking rails; the provisioner walks
 * them in a fixed priority order.
 *
 * @notes
 * - `Status` in the response is Billstack's logical success flag. A 2xx reply
 *   with `status=false` still counts as a partner failure and triggers fallback
 *   to the next bank.
 */
package domain

// Partner banks Billstack can provision against, in default priority order.
const (
	BankPalmpay   = "PALMPAY"
	Bank9PSB      = "9PSB"
	BankBankly    = "BANKLY"
	BankProvidus  = "PROVIDUS"
	BankSafehaven = "SAFEHAVEN"
)

// GenerateVirtualAccountRequest is the payload for Billstack's
// generateVirtualAccount endpoint.
type GenerateVirtualAccountRequest struct {
	Bank      string `json:"bank"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Reference string `json:"reference"`
}

// GeneratedBankAccount is one account record inside a successful Billstack
// response.
type GeneratedBankAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankName      string `json:"bank_name"`
	BankID        string `json:"bank_id"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// GenerateVirtualAccountResponse is Billstack's reply.
type GenerateVirtualAccountResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference string                 `json:"reference"`
		Account   []GeneratedBankAccount `json:"account"`
		Meta      map[string]interface{} `json:"meta,omitempty"`
	} `json:"data"`
}
