// Package logsink defines the logging contract the core consumes
// from external collaborators and a zap-backed implementation of it.
package logsink

import "go.uber.org/zap"

type Kind int

const (
	Info Kind = iota
	Warn
	Error
)

// Sink is the synchronous, non-blocking logging contract the core
// calls into for script load/runtime errors and operational events.
// The core never reads from a Sink, only writes.
type Sink interface {
	Log(kind Kind, message string)
}

// Zap adapts a *zap.Logger to Sink, the way the rest of this repo's
// ambient stack logs.
type Zap struct {
	log *zap.Logger
}

func NewZap(log *zap.Logger) *Zap {
	return &Zap{log: log}
}

func (z *Zap) Log(kind Kind, message string) {
	switch kind {
	case Warn:
		z.log.Warn(message)
	case Error:
		z.log.Error(message)
	default:
		z.log.Info(message)
	}
}

// Nop discards everything; useful for tests that don't want to wire a
// real logger.
type Nop struct{}

func (Nop) Log(Kind, string) {}
