// Package vote implements a native contract that counts yes/no votes until a
// deadline.
//
// In single mode the contract holds one global tally owned by the admin. In
// multi mode anyone can create vote boxes, each with its own deadline and
// owner.
package vote

import (
	"strconv"

	"github.com/rs/zerolog"
	"go.dedis.ch/tally"
	"go.dedis.ch/tally/contracts/vote/types"
	_ "go.dedis.ch/tally/contracts/vote/wire"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/core/execution"
	"go.dedis.ch/tally/core/execution/native"
	"go.dedis.ch/tally/core/store"
	"go.dedis.ch/tally/serde"
	"go.dedis.ch/tally/serde/json"
	"golang.org/x/xerrors"
)

// commands defines the commands of the vote contract. This interface helps in
// testing the contract.
type commands interface {
	instantiate(snap store.Snapshot, step execution.Step) (execution.Response, error)
	vote(snap store.Snapshot, step execution.Step) (execution.Response, error)
	reset(snap store.Snapshot, step execution.Step) (execution.Response, error)
	createBox(snap store.Snapshot, step execution.Step) (execution.Response, error)
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/tally.Vote"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "vote:command"

	// IDArg is the argument's name that contains the decimal identifier of the
	// box in multi mode.
	IDArg = "vote:id"

	// ChoiceArg is the argument's name that contains the choice of a vote.
	ChoiceArg = "vote:choice"

	// DeadlineArg is the argument's name that contains the deadline of a tally
	// or a box, as understood by types.ParseSchedule.
	DeadlineArg = "vote:deadline"

	// OwnerArg is the argument's name that contains the owner of a box.
	OwnerArg = "vote:owner"

	// DefaultAdmin is the owner of the global tally when none is configured.
	DefaultAdmin access.Address = "admin"
)

// Command defines a type of command for the vote contract.
type Command string

const (
	// CmdInstantiate defines the command to initialize the contract.
	CmdInstantiate Command = "INSTANTIATE"

	// CmdVote defines the command to cast a vote.
	CmdVote Command = "VOTE"

	// CmdReset defines the command to set the counters back to zero.
	CmdReset Command = "RESET"

	// CmdCreateBox defines the command to create a new vote box.
	CmdCreateBox Command = "CREATE_BOX"
)

// Mode is the layout of the contract state.
type Mode string

const (
	// ModeSingle is a contract with one global tally.
	ModeSingle Mode = "single"

	// ModeMulti is a contract with a collection of vote boxes.
	ModeMulti Mode = "multi"
)

// ParseMode returns the mode with the name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeSingle, ModeMulti:
		return Mode(name), nil
	default:
		return "", xerrors.Errorf("unknown mode '%s'", name)
	}
}

var (
	// ErrUnauthorized is returned when the caller is not the owner.
	ErrUnauthorized = xerrors.New("unauthorized")

	// ErrExpired is returned when the deadline is reached.
	ErrExpired = xerrors.New("voting period expired")

	// ErrNotFound is returned when a box does not exist.
	ErrNotFound = xerrors.New("vote box not found")

	// ErrNotInstantiated is returned when the contract is used before the
	// instantiation.
	ErrNotInstantiated = xerrors.New("contract not instantiated")

	// ErrAlreadyInstantiated is returned when the contract is instantiated a
	// second time.
	ErrAlreadyInstantiated = xerrors.New("contract already instantiated")
)

// RegisterContract registers the vote contract to the given execution service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Option is the type of option to configure a contract.
type Option func(*Contract)

// WithMode sets the layout of the state. The default is the single mode.
func WithMode(mode Mode) Option {
	return func(c *Contract) {
		c.store.mode = mode
	}
}

// WithAdmin sets the address allowed to instantiate and reset the contract in
// single mode.
func WithAdmin(admin access.Address) Option {
	return func(c *Contract) {
		c.admin = admin
	}
}

// WithContext sets the serialization context of the records and of the query
// answers. The default is JSON.
func WithContext(ctx serde.Context) Option {
	return func(c *Contract) {
		c.store.context = ctx
	}
}

// WithLogger sets the logger of the contract.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Contract) {
		c.logger = logger
	}
}

// Contract is a smart contract that counts yes/no votes against a deadline.
//
// - implements native.Contract
// - implements native.Querier
type Contract struct {
	admin  access.Address
	store  boxStore
	logger zerolog.Logger

	// cmd provides the commands executions
	cmd commands
}

// NewContract creates a new vote contract.
func NewContract(opts ...Option) Contract {
	contract := Contract{
		admin: DefaultAdmin,
		store: boxStore{
			mode:    ModeSingle,
			context: json.NewContext(),
		},
		logger: tally.Logger.With().Str("contract", "vote").Logger(),
	}

	for _, opt := range opts {
		opt(&contract)
	}

	contract.cmd = voteCommand{Contract: &contract}

	return contract
}

// GetMode returns the layout of the state.
func (c Contract) GetMode() Mode {
	return c.store.mode
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return execution.Response{}, xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	var resp execution.Response
	var err error

	switch Command(cmd) {
	case CmdInstantiate:
		resp, err = c.cmd.instantiate(snap, step)
	case CmdVote:
		resp, err = c.cmd.vote(snap, step)
	case CmdReset:
		resp, err = c.cmd.reset(snap, step)
	case CmdCreateBox:
		resp, err = c.cmd.createBox(snap, step)
	default:
		return execution.Response{}, xerrors.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		return execution.Response{}, xerrors.Errorf("failed to %s: %w", cmd, err)
	}

	return resp, nil
}

// Query implements native.Querier. It returns the counts of the tally, or of
// the box in multi mode.
func (c Contract) Query(snap store.Readable, req execution.Request) ([]byte, error) {
	id, err := c.parseID(req.GetArg(IDArg), "query arg")
	if err != nil {
		return nil, err
	}

	box, err := c.store.load(snap, id)
	if err != nil {
		return nil, xerrors.Errorf("failed to load: %w", err)
	}

	resp := types.QueryResponse{
		YesCount: box.Tally.Yes,
		NoCount:  box.Tally.No,
		Deadline: box.Deadline,
	}

	if c.store.mode == ModeMulti {
		resp.ID = box.ID
		resp.Owner = box.Owner
	}

	data, err := resp.Serialize(c.store.context)
	if err != nil {
		return nil, xerrors.Errorf("failed to serialize response: %v", err)
	}

	return data, nil
}

// parseID returns the identifier of the targeted box. The argument is required
// in multi mode and forbidden in single mode. The origin names where the
// argument is expected in the error.
func (c Contract) parseID(arg []byte, origin string) (uint64, error) {
	if c.store.mode == ModeSingle {
		if len(arg) > 0 {
			return 0, xerrors.Errorf("'%s' is not supported in single mode", IDArg)
		}

		return 0, nil
	}

	if len(arg) == 0 {
		return 0, xerrors.Errorf("'%s' not found in %s", IDArg, origin)
	}

	id, err := strconv.ParseUint(string(arg), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid box id '%s': %v", arg, err)
	}

	return id, nil
}

// voteCommand implements the commands of the vote contract
//
// - implements commands
type voteCommand struct {
	*Contract
}

// instantiate implements commands. It performs the INSTANTIATE command
func (c voteCommand) instantiate(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	caller := step.Current.GetIdentity()
	if c.store.mode == ModeSingle && !c.admin.Equal(caller) {
		return execution.Response{}, xerrors.Errorf("caller '%v': %w", caller, ErrUnauthorized)
	}

	done, err := c.store.isInstantiated(snap)
	if err != nil {
		return execution.Response{}, err
	}

	if done {
		return execution.Response{}, ErrAlreadyInstantiated
	}

	if c.store.mode == ModeMulti {
		err = c.store.initSequence(snap)
		if err != nil {
			return execution.Response{}, err
		}

		c.logger.Info().Msg("vote boxes enabled")

		return instantiated(), nil
	}

	deadline, err := parseDeadline(step)
	if err != nil {
		return execution.Response{}, err
	}

	err = c.store.save(snap, types.NewVoteBox(0, deadline, c.admin))
	if err != nil {
		return execution.Response{}, err
	}

	c.logger.Info().Str("deadline", deadline.String()).Msg("tally instantiated")

	return instantiated(), nil
}

// vote implements commands. It performs the VOTE command
func (c voteCommand) vote(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	id, err := c.parseID(step.Current.GetArg(IDArg), "tx arg")
	if err != nil {
		return execution.Response{}, err
	}

	arg := step.Current.GetArg(ChoiceArg)
	if len(arg) == 0 {
		return execution.Response{}, xerrors.Errorf("'%s' not found in tx arg", ChoiceArg)
	}

	choice, err := types.ParseChoice(string(arg))
	if err != nil {
		return execution.Response{}, err
	}

	box, err := c.store.load(snap, id)
	if err != nil {
		return execution.Response{}, err
	}

	if box.Deadline.IsTriggered(step.Block) {
		return execution.Response{}, xerrors.Errorf("deadline %v: %w", box.Deadline, ErrExpired)
	}

	box.Tally, err = box.Tally.Vote(choice)
	if err != nil {
		return execution.Response{}, err
	}

	err = c.store.save(snap, box)
	if err != nil {
		return execution.Response{}, err
	}

	c.logger.Debug().Uint64("id", id).Stringer("choice", choice).Msg("vote counted")

	resp := execution.NewResponse().WithString("method", "vote")
	if c.store.mode == ModeMulti {
		resp = resp.WithString("print_id", strconv.FormatUint(id, 10))
	}

	return withCounts(resp, box.Tally), nil
}

// reset implements commands. It performs the RESET command
func (c voteCommand) reset(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	id, err := c.parseID(step.Current.GetArg(IDArg), "tx arg")
	if err != nil {
		return execution.Response{}, err
	}

	box, err := c.store.load(snap, id)
	if err != nil {
		return execution.Response{}, err
	}

	caller := step.Current.GetIdentity()
	if !box.Owner.Equal(caller) {
		return execution.Response{}, xerrors.Errorf("caller '%v': %w", caller, ErrUnauthorized)
	}

	if box.Deadline.IsTriggered(step.Block) {
		return execution.Response{}, xerrors.Errorf("deadline %v: %w", box.Deadline, ErrExpired)
	}

	box.Tally = box.Tally.Reset()

	err = c.store.save(snap, box)
	if err != nil {
		return execution.Response{}, err
	}

	c.logger.Info().Uint64("id", id).Msgf("tally reset by %v", caller)

	resp := execution.NewResponse().WithString("method", "vote_reset")
	if c.store.mode == ModeMulti {
		resp = resp.WithString("print_id", strconv.FormatUint(id, 10))
	}

	return withCounts(resp, box.Tally).With("caller", caller), nil
}

// createBox implements commands. It performs the CREATE_BOX command
func (c voteCommand) createBox(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	if c.store.mode == ModeSingle {
		return execution.Response{}, xerrors.New("vote boxes are not supported in single mode")
	}

	deadline, err := parseDeadline(step)
	if err != nil {
		return execution.Response{}, err
	}

	owner, err := access.NewAddress(string(step.Current.GetArg(OwnerArg)))
	if err != nil {
		return execution.Response{}, xerrors.Errorf("invalid owner: %w", err)
	}

	id, err := c.store.nextID(snap)
	if err != nil {
		return execution.Response{}, err
	}

	err = c.store.save(snap, types.NewVoteBox(id, deadline, owner))
	if err != nil {
		return execution.Response{}, err
	}

	c.logger.Info().Uint64("id", id).Str("owner", owner.String()).Msg("vote box created")

	resp := execution.NewResponse().
		WithString("method", "create_vote_box").
		WithString("print_id", strconv.FormatUint(id, 10)).
		With("owner", owner)

	return resp, nil
}

func parseDeadline(step execution.Step) (types.Schedule, error) {
	arg := step.Current.GetArg(DeadlineArg)
	if len(arg) == 0 {
		return types.Schedule{}, xerrors.Errorf("'%s' not found in tx arg", DeadlineArg)
	}

	deadline, err := types.ParseSchedule(string(arg))
	if err != nil {
		return types.Schedule{}, xerrors.Errorf("invalid deadline: %v", err)
	}

	return deadline, nil
}

func instantiated() execution.Response {
	return withCounts(execution.NewResponse().WithString("method", "instantiate"), types.Tally{}.Reset())
}

func withCounts(resp execution.Response, t types.Tally) execution.Response {
	return resp.With("yes_count", t.Yes).With("no_count", t.No)
}
