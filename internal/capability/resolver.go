package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/domain"
)

const geoEndpoint = "https://ipinfo.io/%s/json"

// hostLookuper is the DNS surface NetResolver needs; *net.Resolver
// satisfies it.
type hostLookuper interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// NetResolver resolves domain metadata through DNS, WHOIS and an IP
// geolocation service. Every lookup is independent; a failed one leaves its
// fields empty rather than failing the whole resolution.
type NetResolver struct {
	logger   *zap.Logger
	client   *http.Client
	resolver hostLookuper
}

func NewNetResolver(logger *zap.Logger) *NetResolver {
	return &NetResolver{
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
		resolver: net.DefaultResolver,
	}
}

func (r *NetResolver) Resolve(ctx context.Context, host string) (domain.DomainInfo, error) {
	info := domain.DomainInfo{Domain: host}

	addrs, err := r.resolver.LookupHost(ctx, host)
	if err != nil {
		r.logger.Debug("dns lookup failed", zap.String("host", host), zap.Error(err))
		return info, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		r.logger.Debug("dns lookup returned no addresses", zap.String("host", host))
		return info, fmt.Errorf("resolve %s: no addresses", host)
	}
	info.IPAddress = addrs[0]

	if country, org, err := r.geolocate(ctx, info.IPAddress); err != nil {
		r.logger.Debug("geolocation failed", zap.String("ip", info.IPAddress), zap.Error(err))
	} else {
		info.CountryCode = country
		info.HostingProvider = org
	}

	if raw, err := whois.Whois(host); err != nil {
		r.logger.Debug("whois lookup failed", zap.String("host", host), zap.Error(err))
	} else if parsed, err := whoisparser.Parse(raw); err != nil {
		r.logger.Debug("whois parse failed", zap.String("host", host), zap.Error(err))
	} else {
		if parsed.Registrar != nil {
			info.Registrar = parsed.Registrar.Name
		}
		if parsed.Domain != nil {
			info.CreationDate = parsed.Domain.CreatedDateInTime
			info.ExpirationDate = parsed.Domain.ExpirationDateInTime
		}
	}

	return info, nil
}

func (r *NetResolver) geolocate(ctx context.Context, ip string) (country, org string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(geoEndpoint, ip), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Country string `json:"country"`
		Org     string `json:"org"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", err
	}
	return payload.Country, payload.Org, nil
}
