package servers

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/faciam-dev/redisboard/internal/redisconn"
)

// ErrNotFound is returned when a server id is unknown.
var ErrNotFound = errors.New("server not found")

// DefaultPort is used when a server is registered without a port.
const DefaultPort = 6379

// Server is a registered store endpoint.
type Server struct {
	ID        int64
	Label     string
	Host      string
	Port      int
	Username  string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// String returns the display name: the label when set, otherwise the address.
func (s Server) String() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Addr()
}

// Addr returns host:port, or the socket path for unix sockets.
func (s Server) Addr() string {
	if s.IsUnix() {
		return s.Host
	}
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

// Endpoint returns the connection parameters of s.
func (s Server) Endpoint() redisconn.Endpoint {
	return redisconn.Endpoint{Host: s.Host, Port: s.Port, Username: s.Username, Password: s.Password}
}

// IsUnix reports whether Host names a unix socket.
func (s Server) IsUnix() bool { return strings.HasPrefix(s.Host, "/") }

// Validate checks the fields an operator must provide.
func (s Server) Validate() error {
	if strings.TrimSpace(s.Host) == "" {
		return errors.New("host is required")
	}
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port out of range")
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	Label string
}
