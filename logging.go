package taskloop

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// logger is the type an Executor accepts through WithLogger and a
// Driver through WithDriverLogger: the type-erased form of logiface's
// generic Logger, a *logiface.Logger[logiface.Event] field populated
// from a concrete backend's .Logger() method.
type logger = logiface.Logger[logiface.Event]

// defaultLogger returns a disabled logger: every Log call is a no-op,
// and Enabled() guards short-circuit before any field is built.
func defaultLogger() *logger {
	return logiface.L.New(logiface.L.WithLevel(logiface.LevelDisabled)).Logger()
}

// NewJSONLogger builds a *logger backed by stumpy, writing JSON lines to
// w (for example os.Stderr). It is a convenience for embedders who want
// structured output without learning stumpy's own construction API.
func NewJSONLogger(level logiface.Level, w io.Writer) *logger {
	return stumpy.L.New(
		stumpy.L.WithLevel(level),
		stumpy.WithStumpy(stumpy.WithWriter(w)),
	).Logger()
}

// logCategory values tag every log line the executor emits: lift,
// schedule, broadcast, wake, sleep, idle, shutdown, and invariant.
const (
	logCategoryLift      = "lift"
	logCategorySchedule  = "schedule"
	logCategoryBroadcast = "broadcast"
	logCategoryWake      = "wake"
	logCategorySleep     = "sleep"
	logCategoryIdle      = "idle"
	logCategoryShutdown  = "shutdown"
	logCategoryInvariant = "invariant"
)
