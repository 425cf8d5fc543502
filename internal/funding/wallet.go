package funding

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

// WalletURI builds the payment URI encoded into the QR code. BTC uses the
// BIP-21 scheme, ETH and USDT the ethereum scheme, both carrying the coin
// amount when one is known.
func WalletURI(method models.PaymentMethod, address, coinAmount string) string {
	switch method {
	case models.MethodBTC:
		if coinAmount != "" {
			return fmt.Sprintf("bitcoin:%s?amount=%s", address, coinAmount)
		}
		return "bitcoin:" + address
	case models.MethodETH, models.MethodUSDT:
		if coinAmount != "" {
			return fmt.Sprintf("ethereum:%s?amount=%s", address, coinAmount)
		}
		return "ethereum:" + address
	default:
		return address
	}
}

// PaymentWarning is the caution text shown next to the receiving address.
func PaymentWarning(method models.PaymentMethod) string {
	switch method {
	case models.MethodBTC:
		return "Send only BTC to this address. Sending any other asset will result in permanent loss."
	case models.MethodETH:
		return "Send only ETH to this address on the Ethereum network. Sending any other asset will result in permanent loss."
	case models.MethodUSDT:
		return "Send only USDT (ERC-20) to this address. Tokens sent on other networks will result in permanent loss."
	default:
		return ""
	}
}

// QRPNG renders the payment URI as a PNG at the standard size.
func QRPNG(method models.PaymentMethod, address, coinAmount string) ([]byte, error) {
	uri := WalletURI(method, address, coinAmount)
	png, err := qrcode.Encode(uri, qrcode.Medium, config.QRImageSize)
	if err != nil {
		return nil, fmt.Errorf("encoding payment QR: %w", err)
	}
	return png, nil
}
