package domain

// EncoderConfig holds chunked encoder settings.
type EncoderConfig struct {
	MaxWindowTokens int
	Stride          int
	PadID           int
	Dimensions      int // 0 disables the output dimension check
	SummaryPosition int
}

// DefaultEncoderConfig returns settings matching a BERT-style encoder with
// a 512 token context and 128-dimensional hidden states.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		MaxWindowTokens: 512,
		Stride:          50,
		PadID:           0,
		Dimensions:      128,
		SummaryPosition: 0,
	}
}
