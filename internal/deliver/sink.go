// Package deliver writes a rendered document to its destination: a local
// file, stdout, or an HTTPS endpoint guarded by mutual TLS.
package deliver

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/logger"
)

// FileSink writes the document to a file, or to stdout when no path is
// configured.
type FileSink struct {
	Path string
}

var _ driven.Sink = (*FileSink)(nil)

func (s *FileSink) Deliver(_ context.Context, doc []byte) error {
	if s.Path == "" {
		if _, err := os.Stdout.Write(doc); err != nil {
			return fmt.Errorf("%w: write stdout: %v", domain.ErrIOFailure, err)
		}
		return nil
	}

	if err := os.WriteFile(s.Path, doc, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrIOFailure, s.Path, err)
	}
	logger.Info("wrote %d bytes to %s", len(doc), s.Path)
	return nil
}

// HTTPSink POSTs the document to an endpoint that requires a client
// certificate.
type HTTPSink struct {
	url    string
	client *http.Client
}

var _ driven.Sink = (*HTTPSink)(nil)

// NewHTTPSink builds the mTLS client up front so certificate problems
// surface before any network traffic.
func NewHTTPSink(url string, paths domain.MTLSPaths) (*HTTPSink, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	caPEM, err := os.ReadFile(paths.CA)
	if err != nil {
		return nil, fmt.Errorf("%w: read CA certificate: %v", domain.ErrMTLSIncomplete, err)
	}
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: %s holds no usable CA certificate", domain.ErrMTLSIncomplete, paths.CA)
	}

	cert, err := tls.LoadX509KeyPair(paths.Cert, paths.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: load client key pair: %v", domain.ErrMTLSIncomplete, err)
	}

	return &HTTPSink{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs:      pool,
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				},
			},
		},
	}, nil
}

// Deliver POSTs the document. Any non-2xx response is a delivery
// failure; there are no retries.
func (s *HTTPSink) Deliver(ctx context.Context, doc []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrIOFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyDeliveryError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post events: %w", &domain.HTTPStatusError{Code: resp.StatusCode})
	}

	logger.Info("posted %d bytes to %s (%d)", len(doc), s.url, resp.StatusCode)
	return nil
}

// classifyDeliveryError separates TLS handshake failures from plain
// transport problems. Besides local verification errors this covers the
// server declining our client certificate, which surfaces as a TLS
// alert ("remote error: tls: bad certificate") rather than a typed
// verification error.
func classifyDeliveryError(err error) error {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return fmt.Errorf("%w: %v", domain.ErrTLSHandshake, certErr)
	}
	var recErr tls.RecordHeaderError
	if errors.As(err, &recErr) {
		return fmt.Errorf("%w: %v", domain.ErrTLSHandshake, recErr)
	}
	if strings.Contains(err.Error(), "tls:") {
		return fmt.Errorf("%w: %v", domain.ErrTLSHandshake, err)
	}
	return fmt.Errorf("%w: post events: %v", domain.ErrIOFailure, err)
}

// Tee delivers one document to several destinations. Every sink is
// attempted even when an earlier one fails, so a local copy written
// first survives a failing POST; the first failure is still reported.
type Tee struct {
	Sinks []driven.Sink
}

var _ driven.Sink = (*Tee)(nil)

func (t *Tee) Deliver(ctx context.Context, doc []byte) error {
	var firstErr error
	for _, s := range t.Sinks {
		if err := s.Deliver(ctx, doc); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
