package discuit

import (
	"context"
	"log/slog"
	"time"
)

// RequestEvent is reported before a request is sent.
type RequestEvent struct {
	ID        string // Correlates the request with its ResponseEvent
	Operation string
	Method    string
	URL       string
}

// ResponseEvent is reported after an exchange completes or fails. Err is set
// only for transport failures; StatusCode and Bytes are zero in that case.
type ResponseEvent struct {
	ID         string
	Operation  string
	StatusCode int
	Bytes      int
	Duration   time.Duration
	Err        error
}

// StateEvent is reported when an operation moves the client between states.
type StateEvent struct {
	Operation string
	From      State
	To        State
}

// Observer receives diagnostic events from a Client. Callbacks run
// synchronously on the calling goroutine and must not call back into the
// Client. Observers never see token values.
type Observer interface {
	RequestIssued(RequestEvent)
	ResponseReceived(ResponseEvent)
	StateChanged(StateEvent)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// functions are skipped.
type ObserverFuncs struct {
	OnRequest     func(RequestEvent)
	OnResponse    func(ResponseEvent)
	OnStateChange func(StateEvent)
}

func (f ObserverFuncs) RequestIssued(e RequestEvent) {
	if f.OnRequest != nil {
		f.OnRequest(e)
	}
}

func (f ObserverFuncs) ResponseReceived(e ResponseEvent) {
	if f.OnResponse != nil {
		f.OnResponse(e)
	}
}

func (f ObserverFuncs) StateChanged(e StateEvent) {
	if f.OnStateChange != nil {
		f.OnStateChange(e)
	}
}

type nopObserver struct{}

func (nopObserver) RequestIssued(RequestEvent)     {}
func (nopObserver) ResponseReceived(ResponseEvent) {}
func (nopObserver) StateChanged(StateEvent)        {}

// NewLogObserver returns an Observer that writes events to logger: requests
// and responses at debug level, failed exchanges at warn level and state
// transitions at info level.
func NewLogObserver(logger *slog.Logger) Observer {
	return &logObserver{logger: logger}
}

type logObserver struct {
	logger *slog.Logger
}

func (o *logObserver) RequestIssued(e RequestEvent) {
	o.logger.Debug("discuit request",
		slog.String("request_id", e.ID),
		slog.String("operation", e.Operation),
		slog.String("method", e.Method),
		slog.String("url", e.URL),
	)
}

func (o *logObserver) ResponseReceived(e ResponseEvent) {
	if e.Err != nil {
		o.logger.Warn("discuit request failed",
			slog.String("request_id", e.ID),
			slog.String("operation", e.Operation),
			slog.Duration("duration", e.Duration),
			slog.String("error", e.Err.Error()),
		)
		return
	}

	level := slog.LevelDebug
	if e.StatusCode >= 500 {
		level = slog.LevelWarn
	}
	o.logger.LogAttrs(context.Background(), level, "discuit response",
		slog.String("request_id", e.ID),
		slog.String("operation", e.Operation),
		slog.Int("status", e.StatusCode),
		slog.Int("bytes", e.Bytes),
		slog.Duration("duration", e.Duration),
	)
}

func (o *logObserver) StateChanged(e StateEvent) {
	o.logger.Info("discuit session state changed",
		slog.String("operation", e.Operation),
		slog.String("from", e.From.String()),
		slog.String("to", e.To.String()),
	)
}
