package differ

// DiffConfig controls how two metadata versions are compared.
type DiffConfig struct {
	EnableSemanticCleanup bool
	// MaxInputBytes skips the line diff for larger documents; the field level
	// comparison still runs.
	MaxInputBytes int
}

func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableSemanticCleanup: true,
		MaxInputBytes:         2 * 1024 * 1024,
	}
}
