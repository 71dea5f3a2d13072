package main

import "time"

// RunFlags Flag structs to decouple cobra from logic for testing.
type RunFlags struct {
	ConfigPath  string
	MetricsAddr string
	JSONOut     bool
}

type CheckFlags struct {
	ConfigPath string
	Addr       string // TCP registry address, overrides socket discovery
	SocketDir  string
	Timeout    time.Duration
	JSONOut    bool
}

type RegistryFlags struct {
	Socket     string
	Addr       string
	Components []string
}

type PatchFlags struct {
	ConfigPath string
	BackupDir  string
}

type RestoreFlags struct {
	ConfigPath string
	BackupDir  string
}
