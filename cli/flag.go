package cli

// StringFlag is a definition of a flag expected to be parsed as a string.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string

	// EnvVars are the environment variables that can set the flag, in the
	// order of priority.
	EnvVars []string
}

// Flag implements cli.Flag.
func (flag StringFlag) Flag() {}

// Uint64Flag is a definition of a flag expected to be parsed as an unsigned
// integer, like a block height.
//
// - implements cli.Flag
type Uint64Flag struct {
	Name     string
	Usage    string
	Required bool
	Value    uint64
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag Uint64Flag) Flag() {}
