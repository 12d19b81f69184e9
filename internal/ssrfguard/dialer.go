package ssrfguard

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/aleister1102/ogpreview/internal/models"
)

// NewSafeDialer returns a dialer that refuses to connect to private
// addresses. It closes the gap between the DNS check in Check and the
// address the transport actually dials.
func NewSafeDialer(timeout, keepAlive time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: keepAlive,
		Control:   dialControl,
	}
}

func dialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return &BlockedError{Host: host, Reason: "dial address is not an IP", code: models.ErrBlockedTarget}
	}
	if IsPrivateIP(ip) {
		return &BlockedError{Host: host, IP: ip, Reason: "dial to private address refused", code: models.ErrBlockedTarget}
	}
	return nil
}
