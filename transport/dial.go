package transport

import (
	"context"
	"crypto/tls"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/credentials/oauth"
)

const defaultUserAgent = "meridian-go/0.1"

// DialOptions configures how a channel to an endpoint is established.
type DialOptions struct {
	// TokenSource supplies OAuth tokens attached to every RPC. Nil means
	// no per-RPC credentials, which is only valid together with Insecure.
	TokenSource oauth2.TokenSource

	// Insecure disables TLS. Meant for local development and tests.
	Insecure bool

	// UserAgent overrides the default user agent string.
	UserAgent string

	// GRPC appends raw dial options after the ones derived above.
	GRPC []grpc.DialOption
}

// Dial establishes a channel to the endpoint. The connection is lazy: no
// network traffic happens until the first RPC, which is also why the pool can
// treat dialing as cheap.
func Dial(ctx context.Context, endpoint Endpoint, opts DialOptions) (*grpc.ClientConn, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	dialOpts := []grpc.DialOption{
		grpc.WithUserAgent(userAgent),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}

	if opts.Insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})))
	}

	if opts.TokenSource != nil {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(oauth.TokenSource{
			TokenSource: opts.TokenSource,
		}))
	} else if !opts.Insecure {
		return nil, fmt.Errorf("dialing %v: a token source is required unless Insecure is set", endpoint)
	}

	dialOpts = append(dialOpts, opts.GRPC...)

	conn, err := grpc.NewClient(endpoint.Addr(), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %v: %w", endpoint, err)
	}

	log.WithFields(log.Fields{
		"endpoint": endpoint.String(),
		"insecure": opts.Insecure,
	}).Debug("channel established")

	return conn, nil
}

// ClientCredentials is the machine-to-machine OAuth configuration for the
// Meridian token service.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenSource returns a caching token source for the given scope list. The
// scope list is fixed per endpoint: channels to the same endpoint share the
// same scopes, which is what makes them safe to pool.
func (c ClientCredentials) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	conf := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       scopes,
	}

	// clientcredentials returns a ReuseTokenSource, so the M2M token is
	// cached between RPCs.
	return conf.TokenSource(ctx)
}
