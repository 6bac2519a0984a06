package utils

import (
	"fmt"
	"strings"

	"tonflip/domain/entities"

	"github.com/xssnick/tonutils-go/address"
)

// NormalizeTONAddress parses a raw (0:hex) or user-friendly address and returns
// the raw form, so bounceable and non-bounceable spellings compare equal.
func NormalizeTONAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", entities.ErrInvalidWalletAddress
	}

	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(raw, ":") {
		addr, err = address.ParseRawAddr(raw)
	} else {
		addr, err = address.ParseAddr(raw)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrInvalidWalletAddress, err)
	}

	return fmt.Sprintf("%d:%x", addr.Workchain(), addr.Data()), nil
}
