package domain

const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// PaymentMintInfo carries the decimal precision needed to turn raw integer
// amounts into display amounts.
type PaymentMintInfo struct {
	Mint     string `json:"mint" validate:"required"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals" validate:"lte=18"`
}

// PaymentMints maps a mint address to its metadata.
type PaymentMints map[string]PaymentMintInfo

// Lookup returns the info for mint, if known.
func (p PaymentMints) Lookup(mint string) (PaymentMintInfo, bool) {
	if p == nil {
		return PaymentMintInfo{}, false
	}
	info, ok := p[mint]
	return info, ok
}

// NewPaymentMints indexes infos by mint address.
func NewPaymentMints(infos []PaymentMintInfo) PaymentMints {
	mints := make(PaymentMints, len(infos))
	for _, info := range infos {
		mints[info.Mint] = info
	}
	return mints
}
