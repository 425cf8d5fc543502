package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

// Address validates that addr is a well-formed receiving address for the
// given payment method and network. Network must be "mainnet" or "testnet".
// USDT here is the ERC-20 token, so it shares the ETH address format.
func Address(method models.PaymentMethod, addr, network string) error {
	slog.Debug("validating address",
		"method", method,
		"address", addr,
		"network", network,
	)

	switch method {
	case models.MethodBTC:
		return validateBTC(addr, network)
	case models.MethodETH, models.MethodUSDT:
		return validateEVM(addr)
	default:
		return fmt.Errorf("%w: unsupported payment method %q", config.ErrInvalidAddress, method)
	}
}

// validateBTC uses btcutil.DecodeAddress to fully validate a BTC address
// including checksum verification for bech32 addresses, and verifies the
// address belongs to the specified network.
func validateBTC(addr, network string) error {
	var params *chaincfg.Params
	switch network {
	case "mainnet":
		params = &chaincfg.MainNetParams
	case "testnet":
		params = &chaincfg.TestNet3Params
	default:
		return fmt.Errorf("%w: unsupported BTC network %q", config.ErrInvalidAddress, network)
	}

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("%w: BTC address %q: %v", config.ErrInvalidAddress, addr, err)
	}

	if !decoded.IsForNet(params) {
		return fmt.Errorf("%w: BTC address %q is not for %s", config.ErrInvalidAddress, addr, network)
	}

	return nil
}

// validateEVM checks the 0x + 40 hex chars format and, for mixed-case
// addresses, the EIP-55 checksum. All-lowercase and all-uppercase addresses
// predate checksumming and pass on format alone.
func validateEVM(addr string) error {
	// IsHexAddress tolerates a missing 0x prefix; the backend's wallets
	// always carry it, so a bare hex string is treated as malformed.
	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: address %q must be 0x + 40 hex characters", config.ErrInvalidAddress, addr)
	}

	hex := addr[2:]
	if hex == strings.ToLower(hex) || hex == strings.ToUpper(hex) {
		return nil
	}
	if common.HexToAddress(addr).Hex() != addr {
		return fmt.Errorf("%w: address %q fails EIP-55 checksum", config.ErrInvalidAddress, addr)
	}

	return nil
}
