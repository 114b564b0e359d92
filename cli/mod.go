// Package cli defines the builder of a command line application made of
// commands that read their flags through a small interface, so that the
// actions of a contract can be tested without a parser.
//
//	builder := ucli.NewBuilder("tally", nil, cli.StringFlag{Name: "db"})
//
//	cmd := builder.SetCommand("query")
//	cmd.SetDescription("display the counters")
//	cmd.SetFlags(cli.StringFlag{Name: "id"})
//	cmd.SetAction(func(flags cli.Flags) error {
//		fmt.Printf("box %s in %s\n", flags.String("id"), flags.String("db"))
//		return nil
//	})
//
//	builder.Build().Run(os.Args)
//
// The flags given to the builder are global and are visible from every
// command.
package cli

// Builder is an application builder interface. One can set the commands of an
// application then build it.
type Builder interface {
	// SetCommand creates a new command with the given name and returns its
	// builder.
	SetCommand(name string) CommandBuilder

	// Build returns the application.
	Build() Application
}

// Application is the main interface to run the CLI.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder is a command builder interface. One can set the description,
// the flags and the action of the command.
type CommandBuilder interface {
	// SetDescription sets the value of the description for this command.
	SetDescription(value string)

	// SetFlags sets the flags for this command.
	SetFlags(...Flag)

	// SetAction sets the action for this command.
	SetAction(Action)
}

// Action is a function that will be executed when a command is invoked.
type Action func(Flags) error

// Flag is an identifier for the definition of the flags.
type Flag interface {
	Flag()
}

// Flags provides the primitives to an action to read the flags of the command
// and the global ones.
type Flags interface {
	String(name string) string

	Uint64(name string) uint64

	// IsSet returns true when the flag is set by the user, either on the
	// command line or by an environment variable.
	IsSet(name string) bool
}
