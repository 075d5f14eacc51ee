// Package transport owns the connection-level plumbing shared by all
// Meridian clients: endpoint addressing, dialing with credentials, and the
// channel abstraction the call layer executes against.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc"
)

// Endpoint identifies a remote service instance. It is comparable and used
// as-is as a map key by the channel pool.
type Endpoint struct {
	Host string
	Port int
}

// Addr returns the endpoint in host:port form.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.Addr()
}

// ParseEndpoint parses a host:port string.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("invalid port in endpoint %q", s)
	}

	return Endpoint{Host: host, Port: port}, nil
}

// Channel is the black-box transport surface the rest of the toolkit depends
// on: execute one operation, or tear the connection down. *grpc.ClientConn
// satisfies it directly; tests substitute in-memory fakes.
type Channel interface {
	Invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error
	Close() error
}

var _ Channel = (*grpc.ClientConn)(nil)
