// Package certcheck inspects the TLS certificate of the site's public
// URL so the health endpoint can report upcoming expiry.
package certcheck

import (
	"crypto/tls"
	"net"
	"net/url"
	"time"
)

// Info describes the certificate serving the given URL.
type Info struct {
	DaysLeft int
	IsValid  bool
	Error    string
}

const dialTimeout = 5 * time.Second

// Check connects to the host in baseURL and reports its certificate
// status. Non-HTTPS URLs and connection failures return IsValid=false
// with the reason in Error; the check is informational and never blocks
// serving.
func Check(baseURL string) Info {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Info{Error: "invalid base URL"}
	}
	if u.Scheme != "https" {
		return Info{Error: "not an https URL"}
	}

	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "443")
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", host, nil)
	if err != nil {
		return Info{Error: err.Error()}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return Info{Error: "no peer certificates"}
	}

	leaf := certs[0]
	now := time.Now()
	days := int(leaf.NotAfter.Sub(now).Hours() / 24)
	return Info{
		DaysLeft: days,
		IsValid:  now.After(leaf.NotBefore) && now.Before(leaf.NotAfter),
	}
}
