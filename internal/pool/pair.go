package pool

// Pair is an observation (Left) matched with a predicted value (Right).
type Pair struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Error returns the signed error of the prediction.
func (p Pair) Error() float64 {
	return p.Right - p.Left
}
