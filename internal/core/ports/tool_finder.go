package ports

// ToolFinder locates external tools.
//
//go:generate mockgen -source=tool_finder.go -destination=mocks/mock_tool_finder.go -package=mocks
type ToolFinder interface {
	// LookPath returns the resolved path of the named executable.
	LookPath(name string) (string, error)
}
