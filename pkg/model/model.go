// Package model holds the request and response bodies of the HTTP API that clients such as
// cmd/client depend on.
package model

// EnrichResult reports one enrichment batch. Remaining is the exact number of records that
// still miss coordinates after the batch; callers re-invoke the batch until it is zero.
type EnrichResult struct {
	Enriched  int `json:"enriched"`
	Remaining int `json:"remaining"`
}

// MergeRequest asks to merge the loser contact into the contact named in the URL.
// FieldOverrides maps a contact field to the value it should have after the merge.
type MergeRequest struct {
	LoserId        int64          `json:"loserId"`
	FieldOverrides map[string]any `json:"fieldOverrides,omitempty"`
}

// MergeResponse returns the surviving contact and the id of the deleted one.
type MergeResponse struct {
	Contact   any   `json:"contact"`
	DeletedId int64 `json:"deletedId"`
}
