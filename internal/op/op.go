// Package op carries the clock and language of a single operation.
package op

import (
	"fmt"
	"time"

	"golang.org/x/text/message"
)

// Printer formats catalog messages. *message.Printer satisfies it.
type Printer interface {
	Sprintf(key message.Reference, a ...any) string
}

// Env is passed to every engine call. Message keys are Danish source text,
// so a nil Printer still yields readable Danish output.
type Env struct {
	Now     time.Time
	Printer Printer
}

// At returns an Env with the given clock and no translation.
func At(now time.Time) Env {
	return Env{Now: now}
}

// T formats a catalog message.
func (e Env) T(key string, a ...any) string {
	if e.Printer == nil {
		return fmt.Sprintf(key, a...)
	}
	return e.Printer.Sprintf(key, a...)
}
