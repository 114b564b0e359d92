package controller

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"go.dedis.ch/tally/cli"
	"go.dedis.ch/tally/contracts/vote"
	"go.dedis.ch/tally/contracts/vote/types"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/core/execution/native"
	"go.dedis.ch/tally/core/txn"
	"go.dedis.ch/tally/core/txn/plain"
	"golang.org/x/xerrors"
)

// executeAction sends a transaction with one command of the contract. The
// arguments of the transaction are filled with the flags that are set.
type executeAction struct {
	Controller

	command vote.Command

	// args maps a flag name to the argument of the transaction.
	args map[string]string
}

// Execute runs the action.
func (a executeAction) Execute(flags cli.Flags) (err error) {
	sender, err := access.NewAddress(flags.String(senderFlag))
	if err != nil {
		return xerrors.Errorf("invalid sender: %v", err)
	}

	env, err := a.load(flags)
	if err != nil {
		return xerrors.Errorf("failed to load: %v", err)
	}

	defer closeEnv(env, &err)

	height, err := env.Client.GetHeight()
	if err != nil {
		return xerrors.Errorf("failed to read height: %v", err)
	}

	args := []txn.Arg{
		{Key: native.ContractArg, Value: []byte(vote.ContractName)},
		{Key: vote.CmdArg, Value: []byte(a.command)},
	}

	names := make([]string, 0, len(a.args))
	for name := range a.args {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		value := flags.String(name)
		if value != "" {
			args = append(args, txn.Arg{Key: a.args[name], Value: []byte(value)})
		}
	}

	// The height is a sequence number unique to the transactions of the
	// local host.
	tx, err := plain.NewManager(sender, height).Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to create transaction: %v", err)
	}

	res, err := env.Client.Execute(tx)
	if err != nil {
		return xerrors.Errorf("failed to execute: %v", err)
	}

	if !res.Accepted {
		return xerrors.Errorf("transaction refused: %s", res.Message)
	}

	fmt.Fprintf(a.out, "✅ %s accepted in block %s\n", a.command, humanize.Comma(int64(height+1)))

	for _, attr := range res.Attributes {
		fmt.Fprintf(a.out, "  %v\n", attr)
	}

	return nil
}

// queryAction displays the counters of the tally or of a vote box.
type queryAction struct {
	Controller
}

// Execute runs the action.
func (a queryAction) Execute(flags cli.Flags) (err error) {
	env, err := a.load(flags)
	if err != nil {
		return xerrors.Errorf("failed to load: %v", err)
	}

	defer closeEnv(env, &err)

	args := map[string][]byte{}
	if flags.IsSet(idFlag) {
		args[vote.IDArg] = []byte(flags.String(idFlag))
	}

	data, err := env.Client.Query(vote.ContractName, args)
	if err != nil {
		return xerrors.Errorf("failed to query: %v", err)
	}

	resp, err := types.QueryResponseOf(env.Context, data)
	if err != nil {
		return xerrors.Errorf("failed to decode response: %v", err)
	}

	height, err := env.Client.GetHeight()
	if err != nil {
		return xerrors.Errorf("failed to read height: %v", err)
	}

	if env.Mode == vote.ModeMulti {
		fmt.Fprintf(a.out, "box #%d owned by %s\n", resp.ID, resp.Owner)
	}

	fmt.Fprintf(a.out, "yes: %s\n", resp.YesCount)
	fmt.Fprintf(a.out, "no: %s\n", resp.NoCount)
	fmt.Fprintf(a.out, "deadline: %v (%s)\n", resp.Deadline, remaining(resp.Deadline, height))

	return nil
}

// closeEnv releases the environment and reports the failure when the action
// has succeeded.
func closeEnv(env Env, err *error) {
	closeErr := env.Close()
	if closeErr != nil && *err == nil {
		*err = xerrors.Errorf("failed to close: %v", closeErr)
	}
}

// remaining returns a human readable distance to the deadline.
func remaining(deadline types.Schedule, height uint64) string {
	switch deadline.GetKind() {
	case types.AtHeightKind:
		// The next transaction is executed in the block after the height.
		next := height + 1
		if next >= deadline.GetHeight() {
			return "expired"
		}

		left := deadline.GetHeight() - next

		return fmt.Sprintf("%s blocks left", humanize.Comma(int64(left)))
	case types.AtTimeKind:
		return humanize.Time(deadline.GetTime())
	default:
		return "no deadline"
	}
}
