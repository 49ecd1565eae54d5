package ir

// Version constants for the compiled spec format.
const (
	// IRVersion is the compiled spec schema version.
	IRVersion = "1"

	// EngineVersion is the smartcoll version.
	EngineVersion = "0.1.0"
)
