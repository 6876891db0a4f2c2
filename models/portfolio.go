package models

// Portfolio is the on-chain allocation for one user as reported by the
// wallet service. Addresses and Percentages are aligned by index.
type Portfolio struct {
	Addresses   []string  `json:"addresses"`
	Percentages []float64 `json:"percentages"`
}
