package debugger

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SessionFile is the on-disk breakpoint/watchpoint layout saved between
// debugger invocations, so a debugging session over the same source can be
// picked back up without re-setting everything by hand.
type SessionFile struct {
	Breakpoints []uint32 `yaml:"breakpoints"`
	Watchpoints []uint32 `yaml:"watchpoints"`
}

// SaveSession writes the current breakpoint and watchpoint addresses to path.
func (d *Debugger) SaveSession(path string) error {
	sf := SessionFile{}
	for addr := range d.Breakpoints {
		sf.Breakpoints = append(sf.Breakpoints, addr)
	}
	for _, wp := range d.Watchpoints.All() {
		sf.Watchpoints = append(sf.Watchpoints, wp.Address)
	}

	out, err := yaml.Marshal(sf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoadSession restores breakpoints and watchpoints saved by SaveSession,
// adding to (not replacing) whatever is already set.
func (d *Debugger) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sf SessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return err
	}
	for _, addr := range sf.Breakpoints {
		d.Breakpoints[addr] = true
	}
	for _, addr := range sf.Watchpoints {
		d.Watchpoints.Add(addr)
	}
	return nil
}
