package payment

import "strings"

// parseST parses the ST.00012 format of the Russian central bank: a pipe
// separated header followed by Key=Value fields, amounts in kopeks.
//
//	ST.00012|Name=ООО Тест|PersonalAcc=40817...|BIC=044525225|Sum=100000
func parseST(raw string) (*Info, error) {
	info := &Info{
		Format:   FormatST,
		Currency: "RUB",
	}

	extra := map[string]string{}
	for _, part := range strings.Split(raw, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue // header and malformed segments carry no field
		}
		switch key {
		case "Name":
			info.PayeeName = value
		case "PersonalAcc":
			info.Account = value
		case "BankName":
			info.Bank = value
		case "BIC":
			info.BIC = value
		case "Sum":
			setAmountMinorUnits(info, value)
		case "Purpose":
			info.Purpose = value
		case "PayeeINN":
			info.PayeeID = value
		default:
			extra[key] = value
		}
	}
	if len(extra) > 0 {
		info.Extra = extra
	}
	return info, nil
}
