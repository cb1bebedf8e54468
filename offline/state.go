package offline

// State is the lifecycle stage of a worker version.
type State int

const (
	StateInstalling State = iota
	StateInstalled
	StateActive
	StateRedundant
	StateInstallFailed
)

func (s State) String() string {
	return [...]string{"installing", "installed", "active", "redundant", "install failed"}[s]
}
