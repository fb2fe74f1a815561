package core

import "time"

// DocStatus mirrors the document workflow state stored on every warehouse row.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// Company is the owning scope of a warehouse tree.
type Company struct {
	ID                       int       `json:"id"`
	Code                     string    `json:"company_code"`
	Name                     string    `json:"name"`
	Abbr                     string    `json:"abbr"`
	DefaultCurrency          string    `json:"default_currency"`
	DefaultInventoryAccount  string    `json:"default_inventory_account,omitempty"`
	EnablePerpetualInventory bool      `json:"enable_perpetual_inventory"`
	CreatedAt                time.Time `json:"created_at"`
}
