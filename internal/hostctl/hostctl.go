// Package hostctl abstracts the host control surface the harness mutates:
// the process table and the init-style service manager. The orchestration
// logic only sees these interfaces, so it stays testable without a real host.
package hostctl

// ProcessController locates and signals processes of the service-under-test
// by executable name.
type ProcessController interface {
	// Pids returns the pids of all live processes whose executable matches name.
	Pids(name string) ([]int, error)
	// Interrupt delivers a termination (interrupt-class) signal to every
	// matching process. Absence of a match is not an error.
	Interrupt(name string) error
}

// DaemonController starts and stops services managed by the host's service
// manager, addressed by service name.
type DaemonController interface {
	Start(name string) error
	Stop(name string) error
}

// Restart bounces a managed service: stop, then start. Used to make the
// discovery daemon re-read patched manifests.
func Restart(d DaemonController, name string) error {
	if err := d.Stop(name); err != nil {
		return err
	}
	return d.Start(name)
}
