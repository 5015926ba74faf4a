package lineserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/internal/telemetry/metric"
)

// commandHandler parses one command line and dispatches it against the
// backend. It is shared by every connection.
type commandHandler struct {
	backend store.Store

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
	rateLim  int
}

func newCommandHandler(backend store.Store, rateLim int) *commandHandler {
	h := &commandHandler{
		backend: backend,
		rateLim: rateLim,
	}
	if rateLim > 0 {
		h.limiters = make(map[string]*rate.Limiter)
	}
	return h
}

// allow applies the per-IP command rate limit.
func (h *commandHandler) allow(ip string) bool {
	if h.rateLim <= 0 {
		return true
	}
	h.limMu.Lock()
	lim, ok := h.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(h.rateLim), h.rateLim)
		h.limiters[ip] = lim
	}
	h.limMu.Unlock()
	return lim.Allow()
}

// handle processes one command line and returns the response line.
// quit means the connection must close without a response. An empty
// response with quit=false means the line was blank and gets no reply.
func (h *commandHandler) handle(ctx context.Context, ip, line string) (resp string, quit bool) {
	verb, args, rest := splitCommand(line)
	if verb == "" {
		return "", false
	}

	if !h.allow(ip) {
		metric.CommandsTotal.WithLabelValues(verb, "rate_limited").Inc()
		return "ERR rate limit exceeded", false
	}

	start := time.Now()
	resp, quit = h.dispatch(ctx, verb, args, rest)

	status := "ok"
	if strings.HasPrefix(resp, "ERR") {
		status = "err"
	}
	metric.CommandsTotal.WithLabelValues(verb, status).Inc()
	metric.CommandDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
	return resp, quit
}

func (h *commandHandler) dispatch(ctx context.Context, verb string, args []string, rest string) (string, bool) {
	switch verb {
	case "GET":
		if len(args) < 3 {
			return errMissingArgs, false
		}
		if !validIdents(args[:3]...) {
			return errBadIdent, false
		}
		val, err := h.backend.Get(ctx, args[0], args[1], args[2])
		if err != nil {
			return wireError(err), false
		}
		return okPayload(val)

	case "SET":
		if len(args) < 3 || rest == "" {
			return errMissingArgs, false
		}
		if !validIdents(args[:3]...) {
			return errBadIdent, false
		}
		if !domain.ValidValue([]byte(rest)) {
			return "ERR invalid json value", false
		}
		if err := h.backend.Set(ctx, args[0], args[1], args[2], domain.Value(rest)); err != nil {
			return wireError(err), false
		}
		return "OK", false

	case "DEL":
		if len(args) < 3 {
			return errMissingArgs, false
		}
		if !validIdents(args[:3]...) {
			return errBadIdent, false
		}
		if err := h.backend.Delete(ctx, args[0], args[1], args[2]); err != nil {
			return wireError(err), false
		}
		return "OK", false

	case "LIST_PERSONAS":
		list, err := h.backend.ListPersonas(ctx)
		if err != nil {
			return wireError(err), false
		}
		return okJSON(list)

	case "LIST_APPS":
		if len(args) < 1 {
			return errMissingArgs, false
		}
		if !validIdents(args[0]) {
			return errBadIdent, false
		}
		list, err := h.backend.ListApps(ctx, args[0])
		if err != nil {
			return wireError(err), false
		}
		return okJSON(list)

	case "DUMP":
		if len(args) < 2 {
			return errMissingArgs, false
		}
		if !validIdents(args[:2]...) {
			return errBadIdent, false
		}
		data, err := h.backend.DumpApp(ctx, args[0], args[1])
		if err != nil {
			return wireError(err), false
		}
		return okJSON(data)

	case "DUMP_APP":
		if len(args) < 1 {
			return errMissingArgs, false
		}
		if !validIdents(args[0]) {
			return errBadIdent, false
		}
		data, err := h.backend.DumpAppGlobal(ctx, args[0])
		if err != nil {
			return wireError(err), false
		}
		return okJSON(data)

	case "GET_GLOBAL":
		if len(args) < 2 {
			return errMissingArgs, false
		}
		if !validIdents(args[:2]...) {
			return errBadIdent, false
		}
		val, persona, err := h.backend.GetGlobal(ctx, args[0], args[1])
		if err != nil {
			return wireError(err), false
		}
		return okJSON(globalHit{Persona: persona, Value: val})

	case "MOVE":
		if len(args) < 4 {
			return errMissingArgs, false
		}
		if !validIdents(args[:4]...) {
			return errBadIdent, false
		}
		if err := h.backend.MoveKey(ctx, args[0], args[1], args[2], args[3]); err != nil {
			return wireError(err), false
		}
		return "OK", false

	case "PING":
		return "PONG", false

	case "QUIT":
		return "", true

	default:
		return "ERR unknown command", false
	}
}

// globalHit is the GET_GLOBAL response payload.
type globalHit struct {
	Persona string       `json:"persona"`
	Value   domain.Value `json:"value"`
}

const (
	errMissingArgs = "ERR missing arguments"
	errBadIdent    = "ERR invalid identifier"
)

// validIdents rejects identifiers the persistence layer could read as a
// path. Identifiers arrive whitespace-split, so emptiness only occurs via
// the argument count checks, but the dot and separator forms are real
// remote input.
func validIdents(ids ...string) bool {
	for _, id := range ids {
		if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\") {
			return false
		}
	}
	return true
}

// wireError formats an error as a response line. Domain errors carry
// their stable lowercase reason; anything else is lowercased verbatim.
func wireError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return "ERR " + de.Message
	}
	return "ERR " + strings.ToLower(err.Error())
}

func okJSON(v any) (string, bool) {
	out, err := json.Marshal(v)
	if err != nil {
		return wireError(domain.ErrInternal.WithCause(err)), false
	}
	return "OK " + string(out), false
}

// okPayload writes a raw stored value as a response. The value is
// compacted first: stored bytes may carry whitespace from persistence
// re-indentation or a permissive writer, and a multi-line response would
// desync the connection.
func okPayload(val domain.Value) (string, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, val); err != nil {
		return wireError(domain.ErrInternal.WithCause(err)), false
	}
	return "OK " + buf.String(), false
}

// splitCommand splits a command line into its uppercase verb, the
// whitespace-separated arguments, and the raw remainder of the line after
// the third argument. The remainder is what value-bearing commands (SET)
// consume as one JSON token, so embedded whitespace survives intact.
func splitCommand(line string) (verb string, args []string, rest string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, ""
	}

	fields := strings.Fields(line)
	verb = strings.ToUpper(fields[0])
	args = fields[1:]

	// Recover the raw tail after the verb and first three arguments.
	if len(args) >= 3 {
		idx := 0
		for i := 0; i < 4; i++ { // verb + 3 args
			for idx < len(line) && isSpace(line[idx]) {
				idx++
			}
			for idx < len(line) && !isSpace(line[idx]) {
				idx++
			}
		}
		rest = strings.TrimSpace(line[idx:])
	}
	return verb, args, rest
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
