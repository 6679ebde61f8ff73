package provision

import (
	"log/slog"
	"time"
)

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithConfig applies thresholds and timeouts.
func WithConfig(cfg Config) Option {
	return func(p *Provisioner) {
		p.cfg = cfg
	}
}

// WithSlowThreshold overrides the slow-provisioning warning threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(p *Provisioner) {
		p.cfg.SlowThreshold = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.log = l
		}
	}
}

// WithAuditor records tenant.provision and tenant.deprovision events.
func WithAuditor(a Auditor) Option {
	return func(p *Provisioner) {
		p.audit = a
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) {
		if now != nil {
			p.now = now
		}
	}
}
