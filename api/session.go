package api

import (
	"sync"

	"rv32emu/loader"
	"rv32emu/vm"
)

// Session wraps one loaded program with the mutex every host handler needs:
// the interpreter core has no internal locking, so any host that lets
// concurrent requests touch the same Machine must serialize them.
type Session struct {
	ID         string
	mu         sync.Mutex
	Program    *loader.Program
	StopOnTrap bool
	consoleLen int // bytes of the console buffer already reported via NewConsoleBytes
}

func (s *Session) Step() vm.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Program.Machine.Step()
}

func (s *Session) Run(maxSteps uint64) []vm.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Program.Machine.Run(maxSteps, s.StopOnTrap)
}

func (s *Session) State() vm.StateDump {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Program.Machine.DumpState()
}

func (s *Session) Console() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.consoleDevice()
	if c == nil {
		return ""
	}
	return c.String()
}

// NewConsoleBytes returns console output written since the last call,
// for the WebSocket feed to forward without re-sending bytes the client
// already has.
func (s *Session) NewConsoleBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.consoleDevice()
	if c == nil {
		return nil
	}
	all := c.Bytes()
	if s.consoleLen >= len(all) {
		return nil
	}
	fresh := append([]byte(nil), all[s.consoleLen:]...)
	s.consoleLen = len(all)
	return fresh
}

func (s *Session) consoleDevice() *vm.ConsoleDevice {
	bus, ok := s.Program.Machine.Mem.(*vm.MMIOBus)
	if !ok {
		return nil
	}
	return bus.Console()
}

// SessionManager owns every live Session, keyed by an id it assigns.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
	nextID      int
}

func NewSessionManager(b *Broadcaster) *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session), broadcaster: b}
}

func (sm *SessionManager) Create(prog *loader.Program, stopOnTrap bool) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.nextID++
	id := sessionID(sm.nextID)
	s := &Session{ID: id, Program: prog, StopOnTrap: stopOnTrap}
	sm.sessions[id] = s
	return s
}

func (sm *SessionManager) Get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

func (sm *SessionManager) Destroy(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return false
	}
	delete(sm.sessions, id)
	return true
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func sessionID(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	if n == 0 {
		return "s0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append(buf, alphabet[n%len(alphabet)])
		n /= len(alphabet)
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return "s" + string(buf)
}
