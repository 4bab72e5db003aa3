// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures talking to the datastore or the
// sync service into troubleshooting hints for people at a terminal.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"inventoryops/cli/internal/datastore"
)

// Category is the family a transport error belongs to.
type Category int

const (
	None Category = iota
	Timeout
	DNS
	Refused
	TLS
	Server
	Unauthorized
)

// Classify inspects err's chain. Errors that are not transport related return None.
func Classify(err error) Category {
	if err == nil {
		return None
	}
	var be *datastore.BackendError
	if errors.As(err, &be) {
		switch {
		case be.Status == 401 || be.Status == 403:
			return Unauthorized
		case be.Status >= 500:
			return Server
		}
		return None
	}
	switch {
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isSSLError(err):
		return TLS
	}
	return None
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// WriteHints writes troubleshooting advice for err to w and reports whether
// anything was written. action describes what was being attempted and host
// names the endpoint.
func WriteHints(w io.Writer, err error, action, host string) bool {
	var lines []string
	switch Classify(err) {
	case Timeout:
		lines = []string{
			fmt.Sprintf("Timed out while %s.", action),
			"  • the endpoint may be overloaded or paused",
			"  • a firewall may be dropping the connection",
			"  • raise datastore.timeout in the config file for slow networks",
		}
	case DNS:
		lines = []string{
			fmt.Sprintf("Cannot resolve %s while %s.", host, action),
			"  • check the datastore URL for typos",
			"  • check your DNS settings and internet connection",
		}
	case Refused:
		lines = []string{
			fmt.Sprintf("Connection to %s refused while %s.", host, action),
			"  • the service may be down, or the port is wrong",
			"  • for a local endpoint, make sure it is running",
		}
	case TLS:
		lines = []string{
			fmt.Sprintf("Secure connection to %s failed while %s.", host, action),
			"  • check your system clock",
			"  • a proxy may be intercepting HTTPS",
		}
	case Unauthorized:
		lines = []string{
			fmt.Sprintf("%s rejected the credentials while %s.", host, action),
			"  • the service key may be wrong or revoked; run: invops connect",
		}
	case Server:
		lines = []string{
			fmt.Sprintf("%s reported a server error while %s.", host, action),
			"  • this is not a problem with your setup; try again in a few minutes",
		}
	default:
		return false
	}
	fmt.Fprintln(w, pterm.Warning.Sprint(lines[0]))
	for _, l := range lines[1:] {
		fmt.Fprintln(w, l)
	}
	return true
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
