package config

import (
	"fmt"
	"net/netip"
	"strings"
)

// ProxyList holds the networks whose X-Forwarded-For / X-Real-IP headers are
// believed. Entries are CIDRs or bare addresses.
type ProxyList []netip.Prefix

// Decode implements envconfig.Decoder for CLINICA_TRUSTED_PROXIES, e.g.
// "10.0.0.0/8,127.0.0.1".
func (p *ProxyList) Decode(value string) error {
	out := ProxyList{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	*p = out
	return nil
}

// Contains reports whether addr belongs to a trusted proxy network.
func (p ProxyList) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
