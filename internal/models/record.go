// internal/models/record.go
package models

import (
	"fmt"
	"time"
)

// Gender is the customer gender enum carried by the prepared dataset.
type Gender string

const (
	GenderFemale  Gender = "F"
	GenderMale    Gender = "M"
	GenderUnknown Gender = "U"
)

// Record is one transaction row of the prepared sales dataset.
// Invariant: Profit = Revenue - Cost within rounding tolerance, enforced
// by the data preparation boundary before records reach the store.
type Record struct {
	Date           time.Time `json:"date"`
	Revenue        float64   `json:"revenue"`
	Cost           float64   `json:"cost"`
	Profit         float64   `json:"profit"`
	Quantity       int       `json:"quantity"`
	Product        string    `json:"product"`
	Category       string    `json:"category"`
	CustomerAge    int       `json:"customerAge"`
	CustomerGender Gender    `json:"customerGender"`
	Country        string    `json:"country"`
	State          string    `json:"state"`
}

// Year returns the calendar year of the transaction date.
func (r Record) Year() int {
	return r.Date.Year()
}

// CustomerKey derives the synthetic customer identity used for
// distinct-customer counts and RFM scoring. The prepared dataset carries
// no explicit customer id, so age/gender/country/state stand in for one.
func (r Record) CustomerKey() string {
	return fmt.Sprintf("%d_%s_%s_%s", r.CustomerAge, r.CustomerGender, r.Country, r.State)
}
