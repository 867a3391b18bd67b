package hostmdns

import (
	"context"
	"errors"
	"log/slog"
)

// Option configures a Responder in New.
type Option func(*Responder) error

// WithLogger replaces the package logger for one responder.
func WithLogger(l *slog.Logger) Option {
	return func(r *Responder) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = l
		return nil
	}
}

// WithFaultHandler decides what a listener fault does. The default logs the
// fault and exits the process with status 1.
func WithFaultHandler(h FaultHandler) Option {
	return func(r *Responder) error {
		if h == nil {
			return errors.New("fault handler cannot be nil")
		}
		r.onFault = h
		return nil
	}
}

// WithTransport replaces the UDP multicast socket opened by Start.
func WithTransport(open func(ctx context.Context) (PacketConn, error)) Option {
	return func(r *Responder) error {
		if open == nil {
			return errors.New("transport opener cannot be nil")
		}
		r.open = open
		return nil
	}
}
