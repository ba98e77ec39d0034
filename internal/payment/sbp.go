package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// parseSBP parses an SBP (faster payments system) link of the form
// https://qr.nspk.ru/<ID>?sum=10000&cur=RUB&bank=...&name=...&purpose=...
// The sum parameter is in minor units (kopeks).
func parseSBP(raw string) (*Info, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("payment: invalid SBP link: %w", err)
	}

	info := &Info{
		Format:   FormatSBP,
		Currency: "RUB",
		PayeeID:  strings.Trim(u.Path, "/"),
	}

	extra := map[string]string{}
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch strings.ToLower(key) {
		case "sum":
			setAmountMinorUnits(info, value)
		case "cur":
			info.Currency = value
		case "bank":
			info.Bank = value
		case "name":
			info.PayeeName = value
		case "purpose":
			info.Purpose = value
		default:
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		info.Extra = extra
	}
	return info, nil
}
