package tenant

import "net"

// IPAllowed reports whether ip matches at least one entry in allowlist —
// each entry either an exact IP string or a CIDR block. An empty
// allowlist means the tenant has not opted into IP restriction and every
// address is allowed.
//
// failOpen governs what happens when an entry fails to parse: true treats
// the bad entry as a pass-all wildcard (development default), false
// treats it as never-matching so a corrupt allowlist still enforces the
// entries it CAN parse (production/staging default, spec §4.12). The
// caller is responsible for incrementing a parse-error metric per bad
// entry; onParseError, if non-nil, is invoked once per malformed entry
// encountered.
func IPAllowed(ip string, allowlist []string, failOpen bool, onParseError func(entry string)) bool {
	if len(allowlist) == 0 {
		return true
	}

	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}

	for _, entry := range allowlist {
		if ok, err := matchEntry(addr, entry); err != nil {
			if onParseError != nil {
				onParseError(entry)
			}
			if failOpen {
				return true
			}
			continue
		} else if ok {
			return true
		}
	}
	return false
}

func matchEntry(addr net.IP, entry string) (bool, error) {
	if exact := net.ParseIP(entry); exact != nil {
		return exact.Equal(addr), nil
	}

	_, network, err := net.ParseCIDR(entry)
	if err != nil {
		return false, err
	}
	return network.Contains(addr), nil
}
