// Package controller implements the commands of the CLI to interact with the
// vote contract.
package controller

import (
	"io"

	"go.dedis.ch/tally/cli"
	"go.dedis.ch/tally/contracts/vote"
	"go.dedis.ch/tally/core/execution"
	"go.dedis.ch/tally/core/txn"
	"go.dedis.ch/tally/serde"
)

const (
	senderFlag   = "sender"
	deadlineFlag = "deadline"
	ownerFlag    = "owner"
	choiceFlag   = "choice"
	idFlag       = "id"
)

// Client is the interface of the host that runs the contract.
type Client interface {
	GetHeight() (uint64, error)

	Execute(tx txn.Transaction) (execution.Result, error)

	Query(contract string, args map[string][]byte) ([]byte, error)
}

// Env is what an action needs to talk to the contract.
type Env struct {
	Client  Client
	Context serde.Context
	Mode    vote.Mode

	// Close releases the resources of the client.
	Close func() error
}

// Loader creates the environment of an action from the global flags.
type Loader func(flags cli.Flags) (Env, error)

// Controller registers the commands of the vote contract.
type Controller struct {
	load Loader
	out  io.Writer
}

// NewController creates a new controller that writes the outcome of the
// commands to the writer.
func NewController(load Loader, out io.Writer) Controller {
	return Controller{
		load: load,
		out:  out,
	}
}

// SetCommands sets the commands of the contract to the builder.
func (c Controller) SetCommands(builder cli.Builder) {
	sender := cli.StringFlag{
		Name:     senderFlag,
		Usage:    "address of the caller",
		Required: true,
	}

	deadline := cli.StringFlag{
		Name:  deadlineFlag,
		Usage: "deadline as 'height:<n>' or 'time:<RFC3339>'",
	}

	id := cli.StringFlag{
		Name:  idFlag,
		Usage: "identifier of the vote box in multi mode",
	}

	cmd := builder.SetCommand("instantiate")
	cmd.SetDescription("initialize the contract")
	cmd.SetFlags(sender, deadline)
	cmd.SetAction(executeAction{
		Controller: c,
		command:    vote.CmdInstantiate,
		args:       map[string]string{deadlineFlag: vote.DeadlineArg},
	}.Execute)

	cmd = builder.SetCommand("create")
	cmd.SetDescription("create a vote box in multi mode")
	cmd.SetFlags(sender, deadline, cli.StringFlag{
		Name:     ownerFlag,
		Usage:    "address allowed to reset the box",
		Required: true,
	})
	cmd.SetAction(executeAction{
		Controller: c,
		command:    vote.CmdCreateBox,
		args: map[string]string{
			deadlineFlag: vote.DeadlineArg,
			ownerFlag:    vote.OwnerArg,
		},
	}.Execute)

	cmd = builder.SetCommand("vote")
	cmd.SetDescription("cast a vote")
	cmd.SetFlags(sender, id, cli.StringFlag{
		Name:     choiceFlag,
		Usage:    "yes or no",
		Required: true,
	})
	cmd.SetAction(executeAction{
		Controller: c,
		command:    vote.CmdVote,
		args: map[string]string{
			idFlag:     vote.IDArg,
			choiceFlag: vote.ChoiceArg,
		},
	}.Execute)

	cmd = builder.SetCommand("reset")
	cmd.SetDescription("set the counters back to zero")
	cmd.SetFlags(sender, id)
	cmd.SetAction(executeAction{
		Controller: c,
		command:    vote.CmdReset,
		args:       map[string]string{idFlag: vote.IDArg},
	}.Execute)

	cmd = builder.SetCommand("query")
	cmd.SetDescription("display the counters")
	cmd.SetFlags(id)
	cmd.SetAction(queryAction{Controller: c}.Execute)
}
