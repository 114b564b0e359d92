package fake

// Flags is a fake implementation of the flags of a command. A flag is set when
// the map has a value for its name.
//
// - implements cli.Flags
type Flags map[string]interface{}

// String implements cli.Flags.
func (f Flags) String(name string) string {
	v, _ := f[name].(string)
	return v
}

// Uint64 implements cli.Flags.
func (f Flags) Uint64(name string) uint64 {
	v, _ := f[name].(uint64)
	return v
}

// IsSet implements cli.Flags.
func (f Flags) IsSet(name string) bool {
	_, found := f[name]
	return found
}
