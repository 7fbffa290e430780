package kkdai

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4"
	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const httpTimeout = 15 * time.Second

// NewClient returns a YouTube client, routed through proxyStr when set.
// http, https, socks5 and socks4 proxies are supported; an unusable proxy
// falls back to a direct client.
func NewClient(proxyStr string, log zerolog.Logger) *youtube.Client {
	direct := &youtube.Client{HTTPClient: &http.Client{Timeout: httpTimeout}}
	if proxyStr == "" {
		return direct
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		log.Warn().Err(err).Msg("invalid proxy, going direct")
		return direct
	}

	var transport *http.Transport
	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks5", "socks4":
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Str("scheme", proxyURL.Scheme).Msg("proxy dialer error, going direct")
			return direct
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
	default:
		log.Warn().Str("scheme", proxyURL.Scheme).Msg("unsupported proxy scheme, going direct")
		return direct
	}

	log.Info().Str("proxy", proxyURL.Redacted()).Msg("using proxy")
	return &youtube.Client{
		HTTPClient: &http.Client{
			Timeout:   httpTimeout,
			Transport: transport,
		},
	}
}
