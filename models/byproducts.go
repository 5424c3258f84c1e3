package models

// ByProducts captures the observable side effects of running a step:
// exit status and captured output streams.
//
// Equality is structural; the type is comparable with ==.
type ByProducts struct {
	ReturnValue int64  `json:"return-value"`
	Stderr      string `json:"stderr"`
	Stdout      string `json:"stdout"`
}

// NewByProducts returns the zero instance: return value 0, empty streams.
func NewByProducts() ByProducts {
	return ByProducts{}
}

// WithReturnValue returns a copy with the return value set.
func (b ByProducts) WithReturnValue(rv int64) ByProducts {
	b.ReturnValue = rv
	return b
}

// WithStdout returns a copy with stdout set.
func (b ByProducts) WithStdout(s string) ByProducts {
	b.Stdout = s
	return b
}

// WithStderr returns a copy with stderr set.
func (b ByProducts) WithStderr(s string) ByProducts {
	b.Stderr = s
	return b
}
