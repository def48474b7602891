package internal

// DefaultMaxToolOutputLength is the tool output truncation limit used when
// none is configured
const DefaultMaxToolOutputLength = 2000

// LoadOptions controls which content a MessageLoader keeps
type LoadOptions struct {
	IncludeToolOutput       bool `yaml:"include_tool_output"`
	MaxToolOutputLength     int  `yaml:"max_tool_output_length"` // <= 0 disables truncation
	IncludeSystemMessages   bool `yaml:"include_system_messages"`
	IncludeSubagentSessions bool `yaml:"include_subagent_sessions"` // Claude only
	ExcludeSuggestionMode   bool `yaml:"exclude_suggestion_mode"`
	IncludeIDEEvents        bool `yaml:"include_ide_events"`
}

// DefaultLoadOptions returns the options used when nothing is configured
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MaxToolOutputLength:   DefaultMaxToolOutputLength,
		ExcludeSuggestionMode: true,
	}
}
