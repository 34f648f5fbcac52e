package controllers

import (
	"github.com/gofiber/fiber/v2"
	"strings"
)

// GetClientIP determines the actual client IP address considering proxies and dual stack
// Returns both IPv4 and IPv6 addresses if available
func GetClientIP(c *fiber.Ctx) (string, string) {
	// Default values
	ipv4 := ""
	ipv6 := ""

	// 1. Check for Cloudflare header
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		// Cloudflare provides the original client IP in this header
		if strings.Contains(cfIP, ":") {
			ipv6 = cfIP
		} else {
			ipv4 = cfIP
		}
		return ipv4, ipv6
	}

	// 2. Check for X-Forwarded-For header (standard proxy header)
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain a list of IPs - the first one is the original client IP
		xffList := strings.Split(xff, ",")
		if len(xffList) > 0 {
			clientIP := strings.TrimSpace(xffList[0])
			if strings.Contains(clientIP, ":") {
				ipv6 = clientIP
			} else {
				ipv4 = clientIP
			}
			return ipv4, ipv6
		}
	}

	// 3. If no proxy headers were found, use the normal IP address
	ipAddr := c.IP()

	// For ::ffff: IPv4-mapped-IPv6 addresses
	if strings.Contains(ipAddr, ":") {
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
		} else {
			ipv6 = ipAddr
		}
	} else {
		ipv4 = ipAddr
	}

	return ipv4, ipv6
}

// clientIPForLog flattens GetClientIP into one loggable string.
func clientIPForLog(c *fiber.Ctx) string {
	ipv4, ipv6 := GetClientIP(c)
	if ipv4 != "" {
		return ipv4
	}
	return ipv6
}
