package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/shipbatch/internal/store"
)

// Default service limits.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultPreviewRows = 50
)

// ServiceConfig holds the import limits of a Service. Zero values use the
// package defaults.
type ServiceConfig struct {
	MaxFileSize     int64         // bytes accepted by ReadInput
	ReadTimeout     time.Duration // bound on a single file read
	GateWait        time.Duration // how long a new import waits for the open one
	SessionTTL      time.Duration // lifetime of an uncommitted import preview
	PreviewRows     int           // rows returned in an ImportPreview
	MaxErrorSamples int           // error samples kept in an ImportReport
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.GateWait <= 0 {
		c.GateWait = DefaultGateWait
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.MaxErrorSamples <= 0 {
		c.MaxErrorSamples = DefaultMaxErrorSamples
	}
	return c
}

// Service provides the shipment batch operations: import sessions, stored
// record maintenance, validation and export.
type Service struct {
	env     Env
	store   store.Store
	gate    *ImportGate
	encoder *Encoder
	cfg     ServiceConfig
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*importSession
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock sets the clock used for sessions, history and export
// timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over env and st.
// Returns ErrCatalogUnavailable when env has no catalog.
func NewService(env Env, st store.Store, cfg ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if err := env.Check(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("new service: store is required")
	}

	cfg = cfg.withDefaults()
	s := &Service{
		env:      env,
		store:    st,
		gate:     NewImportGate(cfg.GateWait),
		cfg:      cfg,
		now:      time.Now,
		logger:   slog.Default(),
		sessions: make(map[string]*importSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.encoder = NewEncoder(env, WithClock(s.now), WithLogger(s.logger))
	return s, nil
}

// Env returns the pipeline environment.
func (s *Service) Env() Env { return s.env }

// Catalog returns the Field Catalog.
func (s *Service) Catalog() *Catalog { return s.env.Catalog }

// Profiles returns the Country Profile Table.
func (s *Service) Profiles() *ProfileTable { return s.env.Profiles }

// ReadInput reads an uploaded file within the configured size and time limits.
func (s *Service) ReadInput(ctx context.Context, r io.Reader) ([]byte, error) {
	return ReadInput(ctx, r, s.cfg.MaxFileSize, s.cfg.ReadTimeout)
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.cfg.MaxFileSize }

// GateStatus reports whether an import is open.
func (s *Service) GateStatus() GateStatus { return s.gate.Status() }

// WaitForImports blocks until no import is open or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}

// Ping checks the record store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
