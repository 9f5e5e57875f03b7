package database

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Params holds what is needed to open a connection to one server.
type Params struct {
	DBName         string
	User           string
	Password       string
	Host           string
	Port           int
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN builds a PostgreSQL connection string from the parameters. A Unix
// socket directory or an IPv6 address cannot sit in the URL authority, so
// such hosts travel in the host and port query parameters instead.
func (p Params) DSN() string {
	u := url.URL{
		Scheme: "postgresql",
		Path:   "/" + p.DBName,
	}
	q := url.Values{}
	if hostInQuery(p.Host) {
		q.Set("host", p.Host)
		if p.Port > 0 {
			q.Set("port", strconv.Itoa(p.Port))
		}
	} else {
		u.Host = p.Host
		if p.Port > 0 {
			u.Host += ":" + strconv.Itoa(p.Port)
		}
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}

	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	if p.ConnectTimeout > 0 {
		secs := int(p.ConnectTimeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// hostInQuery reports whether host is a socket directory or an IPv6
// address.
func hostInQuery(host string) bool {
	return strings.HasPrefix(host, "/") || strings.Contains(host, ":")
}

// String returns a human-readable summary without the password.
func (p Params) String() string {
	s := p.Host
	if p.Port > 0 {
		s = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	s += "/" + p.DBName
	if p.User != "" {
		s = p.User + "@" + s
	}
	return s
}
