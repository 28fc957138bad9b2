package utils

import (
	"net"
	"net/url"
	"strings"
)

// trustedNetworks covers loopback, the RFC1918 private ranges, IPv4
// link-local, and the IPv6 loopback, link-local, and unique-local ranges.
// Built once at load.
var trustedNetworks = parseNetworks(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

// IsAllowedOrigin reports whether a browser Origin belongs to the network the
// app is served on: localhost, a private or link-local IP, an mDNS .local
// name, or a bare LAN hostname. Public internet origins are rejected.
func IsAllowedOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	host := parsed.Hostname()
	switch {
	case host == "localhost":
		return true
	case strings.HasSuffix(host, ".local"):
		// mDNS name on the local network.
		return true
	case !strings.Contains(host, "."):
		// Bare hostname, only resolvable locally.
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range trustedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseNetworks(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("utils: bad CIDR " + cidr + ": " + err.Error())
		}
		networks = append(networks, network)
	}
	return networks
}
