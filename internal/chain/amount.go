package chain

import (
	"fmt"
	"math/big"
	"strings"
)

const weiDecimals = 18

var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(weiDecimals), nil)

// ParseAmount converts a decimal AZE amount such as "0.5" into wei. It
// rejects negative values and fractions finer than 18 decimal places.
func ParseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("amount must be positive")
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > weiDecimals {
		return nil, fmt.Errorf("amount %s exceeds %d decimal places", amount, weiDecimals)
	}

	wei, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	wei.Mul(wei, weiPerToken)

	if frac != "" {
		fracWei, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", amount)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(weiDecimals-len(frac))), nil)
		wei.Add(wei, fracWei.Mul(fracWei, scale))
	}

	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return wei, nil
}

// FormatAmount renders wei as a decimal AZE string with trailing zeros
// trimmed, e.g. 500000000000000000 -> "0.5".
func FormatAmount(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}

	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(wei), weiPerToken, new(big.Int))
	out := whole.String()
	if wei.Sign() < 0 {
		out = "-" + out
	}
	if frac.Sign() == 0 {
		return out
	}

	digits := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
	return out + "." + digits
}
