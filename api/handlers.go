package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"rv32emu/loader"
	"rv32emu/vm"
)

// defaultRunMaxSteps bounds a /run call that doesn't specify max_steps.
const defaultRunMaxSteps = 100

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Count()})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.MemorySize == 0 {
		req.MemorySize = 1 << 20
	}
	if req.StackTop == 0 {
		req.StackTop = req.MemorySize
	}

	prog, errs := loader.Load(req.Source, req.Origin, req.MemorySize, req.StackTop)
	if errs.HasErrors() {
		resp := AssembleErrorResponse{}
		for _, e := range errs.Errors {
			resp.Errors = append(resp.Errors, AssembleError{Line: e.Line, Message: e.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	sess := s.sessions.Create(prog, req.StopOnTrap)
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: sess.ID,
		Symbols:   prog.Output.Symbols,
		Dump:      prog.Output.Dump,
		Entry:     prog.EntryPoint,
	})
}

func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/session/")
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "session id required")
		return
	}
	sessionID := parts[0]
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session %q", sessionID)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleState(w, sess)
		case http.MethodDelete:
			s.sessions.Destroy(sessionID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[1] {
	case "step":
		s.handleStep(w, sess)
	case "run":
		s.handleRun(w, r, sess)
	case "state":
		s.handleState(w, sess)
	default:
		writeError(w, http.StatusNotFound, "unknown action %q", parts[1])
	}
}

func (s *Server) handleStep(w http.ResponseWriter, sess *Session) {
	res := sess.Step()
	s.publishStep(sess, res)
	writeJSON(w, http.StatusOK, stepResultResponse(res))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req RunRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.MaxSteps == 0 {
		req.MaxSteps = defaultRunMaxSteps
	}
	sess.StopOnTrap = req.StopOnTrap
	results := sess.Run(req.MaxSteps)
	if len(results) > 0 {
		s.publishStep(sess, results[len(results)-1])
	}

	out := make([]StepResultResponse, len(results))
	for i, r := range results {
		out[i] = stepResultResponse(r)
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": out, "count": len(out)})
}

func (s *Server) handleState(w http.ResponseWriter, sess *Session) {
	writeJSON(w, http.StatusOK, stateResponse(sess.State(), sess.Console()))
}

// publishState broadcasts the current PC/counter snapshot.
func (s *Server) publishState(sess *Session) {
	d := sess.State()
	s.broadcaster.Publish(BroadcastEvent{
		Type:      EventTypeState,
		SessionID: sess.ID,
		State:     &StateUpdate{PC: d.PC, Cycle: d.Cycle, Instret: d.Instret},
	})
}

// publishStep broadcasts the state snapshot after a step/run batch, plus
// any console bytes the guest wrote and, if the last result wasn't a
// plain retire, the trap or halt that ended it.
func (s *Server) publishStep(sess *Session, last vm.StepResult) {
	s.publishState(sess)

	if fresh := sess.NewConsoleBytes(); len(fresh) > 0 {
		s.broadcaster.Publish(BroadcastEvent{
			Type:      EventTypeOutput,
			SessionID: sess.ID,
			Output:    &ConsoleOutput{Bytes: fresh},
		})
	}

	if last.Kind != vm.Retired {
		ev := &ExecutionEvent{Kind: last.Kind.String(), Address: last.EPC}
		if last.Kind == vm.Trapped {
			ev.Cause = last.Cause.String()
		}
		s.broadcaster.Publish(BroadcastEvent{
			Type:      EventTypeExecution,
			SessionID: sess.ID,
			Execution: ev,
		})
	}
}
