package ports

// Ledger records which targets have completed their install phase.
//
//go:generate mockgen -source=ledger.go -destination=mocks/mock_ledger.go -package=mocks
type Ledger interface {
	// IsBuilt reports whether a completion marker exists for the target in workDir.
	IsBuilt(workDir, target string) bool

	// MarkBuilt records the target as built.
	MarkBuilt(workDir, target string) error

	// Reset removes every completion marker in workDir.
	Reset(workDir string) error
}
