package debugger

// Watchpoint monitors a single memory word for value changes. It only
// detects that the value differs from what it was last checked against;
// it does not distinguish a read from a write, since the core doesn't
// expose memory-access granularity beyond Read/Write themselves.
type Watchpoint struct {
	ID        int
	Address   uint32
	LastValue uint32
	Armed     bool // false until the first check establishes a baseline
	HitCount  int
}

// WatchpointManager tracks watchpoints for one debugger session.
type WatchpointManager struct {
	watchpoints map[int]*Watchpoint
	nextID      int
}

func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{watchpoints: make(map[int]*Watchpoint), nextID: 1}
}

func (wm *WatchpointManager) Add(addr uint32) *Watchpoint {
	wp := &Watchpoint{ID: wm.nextID, Address: addr}
	wm.watchpoints[wp.ID] = wp
	wm.nextID++
	return wp
}

func (wm *WatchpointManager) Remove(id int) bool {
	if _, ok := wm.watchpoints[id]; !ok {
		return false
	}
	delete(wm.watchpoints, id)
	return true
}

func (wm *WatchpointManager) All() []*Watchpoint {
	out := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		out = append(out, wp)
	}
	return out
}

// CheckAll reads every watchpoint's current memory value and returns the
// ones whose value changed since the last check.
func (d *Debugger) CheckAll() []*Watchpoint {
	var hit []*Watchpoint
	for _, wp := range d.Watchpoints.watchpoints {
		word, err := d.Machine().Mem.Read(wp.Address, 4)
		if err != nil {
			continue
		}
		if !wp.Armed {
			wp.LastValue = word
			wp.Armed = true
			continue
		}
		if word != wp.LastValue {
			wp.LastValue = word
			wp.HitCount++
			hit = append(hit, wp)
		}
	}
	return hit
}
