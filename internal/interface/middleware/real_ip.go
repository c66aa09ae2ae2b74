package middleware

import (
	"fmt"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxRealIPKey = "real_ip"

// ParseTrustedProxies turns a list of IPs or CIDRs into networks.
func ParseTrustedProxies(list []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(list))
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", raw)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			raw = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// RealIP stores the client address under CtxRealIPKey.
// Forwarding headers are read only when the peer is one of trusted;
// with no trusted proxies the TCP peer address is used as is.
func RealIP(trusted []*net.IPNet) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIPKey, realIP(c, trusted))
		c.Next()
	}
}

func realIP(c *gin.Context, trusted []*net.IPNet) string {
	remote := net.ParseIP(c.RemoteIP())
	if remote == nil {
		return c.RemoteIP()
	}
	if !inNets(remote, trusted) {
		return remote.String()
	}
	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); ip != nil {
		return ip.String()
	}
	// walk right to left, the first hop not added by a trusted proxy is the client
	hops := strings.Split(c.GetHeader("X-Forwarded-For"), ",")
	client := remote
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			break
		}
		client = ip
		if !inNets(ip, trusted) {
			break
		}
	}
	return client.String()
}

func inNets(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
