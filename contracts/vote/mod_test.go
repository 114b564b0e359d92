package vote

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/tally/contracts/vote/types"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/core/execution"
	"go.dedis.ch/tally/core/execution/native"
	"go.dedis.ch/tally/core/store"
	"go.dedis.ch/tally/core/store/mem"
	"go.dedis.ch/tally/core/txn/plain"
	"go.dedis.ch/tally/internal/testing/fake"
	"go.dedis.ch/tally/serde/json"
	"go.dedis.ch/tally/serde/msgpack"
	"golang.org/x/xerrors"
)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("single")
	require.NoError(t, err)
	require.Equal(t, ModeSingle, mode)

	mode, err = ParseMode("multi")
	require.NoError(t, err)
	require.Equal(t, ModeMulti, mode)

	_, err = ParseMode("both")
	require.EqualError(t, err, "unknown mode 'both'")
}

func TestRegisterContract(t *testing.T) {
	srvc := native.NewExecution()

	RegisterContract(srvc, NewContract())

	res, err := srvc.Execute(mem.NewSnapshot(nil), makeStep(t, "admin", 1,
		native.ContractArg, ContractName, CmdArg, "INSTANTIATE", DeadlineArg, "height:10"))
	require.NoError(t, err)
	require.True(t, res.Accepted)
}

func TestNewContract(t *testing.T) {
	contract := NewContract()
	require.Equal(t, ModeSingle, contract.GetMode())
	require.Equal(t, DefaultAdmin, contract.admin)

	contract = NewContract(WithMode(ModeMulti), WithAdmin("root"))
	require.Equal(t, ModeMulti, contract.GetMode())
	require.Equal(t, access.Address("root"), contract.admin)
}

func TestContract_Execute(t *testing.T) {
	contract := NewContract()

	_, err := contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1))
	require.EqualError(t, err, "'vote:command' not found in tx arg")

	contract.cmd = fakeCmd{err: fake.GetError()}

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "INSTANTIATE"))
	require.EqualError(t, err, fake.Err("failed to INSTANTIATE"))

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "VOTE"))
	require.EqualError(t, err, fake.Err("failed to VOTE"))

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "RESET"))
	require.EqualError(t, err, fake.Err("failed to RESET"))

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "CREATE_BOX"))
	require.EqualError(t, err, fake.Err("failed to CREATE_BOX"))

	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "fake"))
	require.EqualError(t, err, "unknown command: fake")

	contract.cmd = fakeCmd{}
	_, err = contract.Execute(fake.NewSnapshot(), makeStep(t, "admin", 1, CmdArg, "VOTE"))
	require.NoError(t, err)
}

func TestContract_Scenario(t *testing.T) {
	contract := NewContract()
	snap := mem.NewSnapshot(nil)

	resp, err := contract.Execute(snap, makeStep(t, "admin", 100,
		CmdArg, "INSTANTIATE", DeadlineArg, "height:123111"))
	require.NoError(t, err)
	require.Equal(t, []execution.Attribute{
		{Key: "method", Value: "instantiate"},
		{Key: "yes_count", Value: "0"},
		{Key: "no_count", Value: "0"},
	}, resp.Attributes)

	for i := 0; i < 2; i++ {
		resp, err = contract.Execute(snap, makeStep(t, "alice", 101, CmdArg, "VOTE", ChoiceArg, "yes"))
		require.NoError(t, err)
		require.Equal(t, "vote", resp.Get("method"))
	}

	require.Equal(t, "2", resp.Get("yes_count"))
	require.Equal(t, "0", resp.Get("no_count"))

	res := query(t, contract, snap)
	require.Equal(t, "2", res.YesCount.String())
	require.Equal(t, "0", res.NoCount.String())
	require.Equal(t, types.AtHeight(123111), res.Deadline)

	resp, err = contract.Execute(snap, makeStep(t, "admin", 102, CmdArg, "RESET"))
	require.NoError(t, err)
	require.Equal(t, []execution.Attribute{
		{Key: "method", Value: "vote_reset"},
		{Key: "yes_count", Value: "0"},
		{Key: "no_count", Value: "0"},
		{Key: "caller", Value: "admin"},
	}, resp.Attributes)

	res = query(t, contract, snap)
	require.True(t, res.YesCount.IsZero())
	require.True(t, res.NoCount.IsZero())
}

func TestContract_Query(t *testing.T) {
	contract := NewContract(WithContext(msgpack.NewContext()))
	snap := mem.NewSnapshot(nil)

	_, err := contract.Query(snap, execution.Request{})
	require.True(t, xerrors.Is(err, ErrNotInstantiated))

	_, err = contract.Query(snap, execution.Request{Args: map[string][]byte{IDArg: []byte("1")}})
	require.EqualError(t, err, "'vote:id' is not supported in single mode")

	_, err = contract.Query(fake.NewBadSnapshot(), execution.Request{})
	require.EqualError(t, err, fake.Err("failed to load: failed to read box"))

	execute(t, contract, snap, "admin", 1, CmdArg, "INSTANTIATE", DeadlineArg, "height:5")
	execute(t, contract, snap, "alice", 2, CmdArg, "VOTE", ChoiceArg, "no")

	data, err := contract.Query(snap, execution.Request{Block: execution.Block{Height: 10}})
	require.NoError(t, err)

	res, err := types.QueryResponseOf(msgpack.NewContext(), data)
	require.NoError(t, err)
	require.Equal(t, "0", res.YesCount.String())
	require.Equal(t, "1", res.NoCount.String())
	require.Zero(t, res.ID)
	require.Empty(t, res.Owner)
}

func TestCommand_Instantiate(t *testing.T) {
	contract := NewContract()

	cmd := voteCommand{
		Contract: &contract,
	}

	_, err := cmd.instantiate(fake.NewSnapshot(), makeStep(t, "bob", 1))
	require.EqualError(t, err, "caller 'bob': unauthorized")
	require.True(t, xerrors.Is(err, ErrUnauthorized))

	_, err = cmd.instantiate(fake.NewBadSnapshot(), makeStep(t, "admin", 1))
	require.EqualError(t, err, fake.Err("failed to read state"))

	_, err = cmd.instantiate(fake.NewSnapshot(), makeStep(t, "admin", 1))
	require.EqualError(t, err, "'vote:deadline' not found in tx arg")

	_, err = cmd.instantiate(fake.NewSnapshot(), makeStep(t, "admin", 1, DeadlineArg, "tomorrow"))
	require.EqualError(t, err, "invalid deadline: invalid schedule 'tomorrow'")

	bad := fake.NewSnapshot()
	bad.ErrWrite = fake.GetError()
	_, err = cmd.instantiate(bad, makeStep(t, "admin", 1, DeadlineArg, "height:2"))
	require.EqualError(t, err, fake.Err("failed to write box"))

	snap := fake.NewSnapshot()
	_, err = cmd.instantiate(snap, makeStep(t, "admin", 1, DeadlineArg, "height:2"))
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())

	_, err = cmd.instantiate(snap, makeStep(t, "admin", 1, DeadlineArg, "height:2"))
	require.Equal(t, ErrAlreadyInstantiated, err)
}

func TestCommand_Vote(t *testing.T) {
	contract := NewContract()

	cmd := voteCommand{
		Contract: &contract,
	}

	_, err := cmd.vote(fake.NewSnapshot(), makeStep(t, "alice", 1, IDArg, "1"))
	require.EqualError(t, err, "'vote:id' is not supported in single mode")

	_, err = cmd.vote(fake.NewSnapshot(), makeStep(t, "alice", 1))
	require.EqualError(t, err, "'vote:choice' not found in tx arg")

	_, err = cmd.vote(fake.NewSnapshot(), makeStep(t, "alice", 1, ChoiceArg, "maybe"))
	require.EqualError(t, err, "invalid choice 'maybe'")

	_, err = cmd.vote(fake.NewSnapshot(), makeStep(t, "alice", 1, ChoiceArg, "yes"))
	require.Equal(t, ErrNotInstantiated, err)

	snap := fake.NewSnapshot()
	_, err = cmd.instantiate(snap, makeStep(t, "admin", 1, DeadlineArg, "height:10"))
	require.NoError(t, err)

	resp, err := cmd.vote(snap, makeStep(t, "alice", 2, ChoiceArg, "yes"))
	require.NoError(t, err)
	require.Equal(t, "", resp.Get("print_id"))
	require.Equal(t, "1", resp.Get("yes_count"))

	resp, err = cmd.vote(snap, makeStep(t, "bob", 9, ChoiceArg, "false"))
	require.NoError(t, err)
	require.Equal(t, "1", resp.Get("yes_count"))
	require.Equal(t, "1", resp.Get("no_count"))

	_, err = cmd.vote(snap, makeStep(t, "alice", 10, ChoiceArg, "yes"))
	require.EqualError(t, err, "deadline height:10: voting period expired")
	require.True(t, xerrors.Is(err, ErrExpired))

	box, err := contract.store.load(snap, 0)
	require.NoError(t, err)
	require.Equal(t, "Tally[yes=1 no=1]", box.Tally.String())

	snap.ErrWrite = fake.GetError()
	_, err = cmd.vote(snap, makeStep(t, "alice", 5, ChoiceArg, "yes"))
	require.EqualError(t, err, fake.Err("failed to write box"))
}

func TestCommand_Reset(t *testing.T) {
	contract := NewContract(WithAdmin("root"))

	cmd := voteCommand{
		Contract: &contract,
	}

	_, err := cmd.reset(fake.NewSnapshot(), makeStep(t, "root", 1))
	require.Equal(t, ErrNotInstantiated, err)

	snap := fake.NewSnapshot()
	_, err = cmd.instantiate(snap, makeStep(t, "root", 1, DeadlineArg, "height:10"))
	require.NoError(t, err)

	_, err = cmd.vote(snap, makeStep(t, "alice", 2, ChoiceArg, "yes"))
	require.NoError(t, err)

	_, err = cmd.reset(snap, makeStep(t, "admin", 3))
	require.EqualError(t, err, "caller 'admin': unauthorized")

	// The owner check comes first, even after the deadline.
	_, err = cmd.reset(snap, makeStep(t, "alice", 20))
	require.True(t, xerrors.Is(err, ErrUnauthorized))

	_, err = cmd.reset(snap, makeStep(t, "root", 20))
	require.True(t, xerrors.Is(err, ErrExpired))

	box, err := contract.store.load(snap, 0)
	require.NoError(t, err)
	require.Equal(t, "1", box.Tally.Yes.String())

	resp, err := cmd.reset(snap, makeStep(t, "root", 4))
	require.NoError(t, err)
	require.Equal(t, "root", resp.Get("caller"))
	require.Equal(t, "0", resp.Get("yes_count"))

	box, err = contract.store.load(snap, 0)
	require.NoError(t, err)
	require.True(t, box.Tally.Yes.IsZero())
}

func TestCommand_CreateBox(t *testing.T) {
	contract := NewContract()

	cmd := voteCommand{
		Contract: &contract,
	}

	_, err := cmd.createBox(fake.NewSnapshot(), makeStep(t, "admin", 1))
	require.EqualError(t, err, "vote boxes are not supported in single mode")

	logger, check := fake.CheckLog("vote box created")

	contract = NewContract(WithMode(ModeMulti), WithLogger(logger))

	_, err = cmd.createBox(fake.NewSnapshot(), makeStep(t, "bob", 1))
	require.EqualError(t, err, "'vote:deadline' not found in tx arg")

	_, err = cmd.createBox(fake.NewSnapshot(), makeStep(t, "bob", 1, DeadlineArg, "height:5", OwnerArg, "A"))
	require.True(t, xerrors.Is(err, access.ErrAddressTooShort))

	_, err = cmd.createBox(fake.NewSnapshot(), makeStep(t, "bob", 1, DeadlineArg, "height:5", OwnerArg, "Alice"))
	require.True(t, xerrors.Is(err, access.ErrAddressNotNormalized))

	_, err = cmd.createBox(fake.NewSnapshot(), makeStep(t, "bob", 1, DeadlineArg, "height:5", OwnerArg, "alice"))
	require.True(t, xerrors.Is(err, ErrNotInstantiated))

	snap := fake.NewSnapshot()
	_, err = cmd.instantiate(snap, makeStep(t, "nobody", 1))
	require.NoError(t, err)

	resp, err := cmd.createBox(snap, makeStep(t, "bob", 2, DeadlineArg, "height:5", OwnerArg, "alice"))
	require.NoError(t, err)
	require.Equal(t, []execution.Attribute{
		{Key: "method", Value: "create_vote_box"},
		{Key: "print_id", Value: "1"},
		{Key: "owner", Value: "alice"},
	}, resp.Attributes)

	resp, err = cmd.createBox(snap, makeStep(t, "bob", 3, DeadlineArg, "height:5", OwnerArg, "carol"))
	require.NoError(t, err)
	require.Equal(t, "2", resp.Get("print_id"))

	check(t)

	snap.ErrWrite = fake.GetError()
	_, err = cmd.createBox(snap, makeStep(t, "bob", 3, DeadlineArg, "height:5", OwnerArg, "carol"))
	require.EqualError(t, err, fake.Err("failed to increment sequence: failed to write key '73657175656e6365'"))
}

func TestContract_MultiBoxes(t *testing.T) {
	contract := NewContract(WithMode(ModeMulti))
	snap := mem.NewSnapshot(nil)

	resp := execute(t, contract, snap, "nobody", 1, CmdArg, "INSTANTIATE")
	require.Equal(t, "instantiate", resp.Get("method"))

	_, err := contract.Execute(snap, makeStep(t, "nobody", 1, CmdArg, "INSTANTIATE"))
	require.True(t, xerrors.Is(err, ErrAlreadyInstantiated))

	execute(t, contract, snap, "bob", 2, CmdArg, "CREATE_BOX", DeadlineArg, "height:50", OwnerArg, "alice")
	execute(t, contract, snap, "bob", 3, CmdArg, "CREATE_BOX", DeadlineArg, "height:8", OwnerArg, "carol")

	_, err = contract.Execute(snap, makeStep(t, "bob", 4, CmdArg, "VOTE", ChoiceArg, "yes"))
	require.EqualError(t, err, "failed to VOTE: 'vote:id' not found in tx arg")

	_, err = contract.Execute(snap, makeStep(t, "bob", 4, CmdArg, "VOTE", IDArg, "one", ChoiceArg, "yes"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid box id 'one'")

	_, err = contract.Execute(snap, makeStep(t, "bob", 4, CmdArg, "VOTE", IDArg, "3", ChoiceArg, "yes"))
	require.EqualError(t, err, "failed to VOTE: box 3: vote box not found")
	require.True(t, xerrors.Is(err, ErrNotFound))

	resp = execute(t, contract, snap, "bob", 4, CmdArg, "VOTE", IDArg, "1", ChoiceArg, "yes")
	require.Equal(t, []execution.Attribute{
		{Key: "method", Value: "vote"},
		{Key: "print_id", Value: "1"},
		{Key: "yes_count", Value: "1"},
		{Key: "no_count", Value: "0"},
	}, resp.Attributes)

	execute(t, contract, snap, "bob", 5, CmdArg, "VOTE", IDArg, "1", ChoiceArg, "no")
	execute(t, contract, snap, "bob", 6, CmdArg, "VOTE", IDArg, "2", ChoiceArg, "no")

	_, err = contract.Execute(snap, makeStep(t, "bob", 8, CmdArg, "VOTE", IDArg, "2", ChoiceArg, "no"))
	require.True(t, xerrors.Is(err, ErrExpired))

	// Box 1 is still open.
	execute(t, contract, snap, "bob", 8, CmdArg, "VOTE", IDArg, "1", ChoiceArg, "yes")

	res := queryBox(t, contract, snap, "1")
	require.Equal(t, uint64(1), res.ID)
	require.Equal(t, access.Address("alice"), res.Owner)
	require.Equal(t, "2", res.YesCount.String())
	require.Equal(t, "1", res.NoCount.String())
	require.Equal(t, types.AtHeight(50), res.Deadline)

	res = queryBox(t, contract, snap, "2")
	require.Equal(t, uint64(2), res.ID)
	require.Equal(t, "0", res.YesCount.String())
	require.Equal(t, "1", res.NoCount.String())

	_, err = contract.Execute(snap, makeStep(t, "bob", 9, CmdArg, "RESET", IDArg, "1"))
	require.True(t, xerrors.Is(err, ErrUnauthorized))

	resp = execute(t, contract, snap, "alice", 9, CmdArg, "RESET", IDArg, "1")
	require.Equal(t, "1", resp.Get("print_id"))
	require.Equal(t, "alice", resp.Get("caller"))

	res = queryBox(t, contract, snap, "1")
	require.True(t, res.YesCount.IsZero())

	res = queryBox(t, contract, snap, "2")
	require.Equal(t, "1", res.NoCount.String())

	_, err = contract.Query(snap, execution.Request{})
	require.EqualError(t, err, "'vote:id' not found in query arg")
}

func TestBoxStore_NextID(t *testing.T) {
	s := boxStore{mode: ModeMulti, context: json.NewContext()}

	snap := fake.NewSnapshot()
	require.NoError(t, snap.Set(sequenceKey, []byte{1}))

	_, err := s.nextID(snap)
	require.EqualError(t, err, "failed to increment sequence: update failed: invalid sequence of length 1")

	require.NoError(t, snap.Set(sequenceKey, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))

	_, err = s.nextID(snap)
	require.True(t, xerrors.Is(err, types.ErrOverflow))

	require.NoError(t, s.initSequence(snap))

	id, err := s.nextID(snap)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	id, err = s.nextID(snap)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)
}

func TestBoxStore_Load(t *testing.T) {
	s := boxStore{mode: ModeMulti, context: json.NewContext()}

	snap := fake.NewSnapshot()
	require.NoError(t, snap.Set(boxKey(1), []byte("{}")))

	_, err := s.load(snap, 1)
	require.EqualError(t, err, "failed to decode box: failed to decode: message is empty")

	require.Equal(t, []byte{'b', 'o', 'x', ':', 0, 0, 0, 0, 0, 0, 0, 1}, boxKey(1))
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStep(t *testing.T, sender string, height uint64, args ...string) execution.Step {
	opts := make([]plain.TransactionOption, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		opts = append(opts, plain.WithArg(args[i], []byte(args[i+1])))
	}

	tx, err := plain.NewTransaction(0, access.Address(sender), opts...)
	require.NoError(t, err)

	return execution.Step{
		Current: tx,
		Block:   execution.Block{Height: height},
	}
}

func execute(t *testing.T, c Contract, snap store.Snapshot, sender string,
	height uint64, args ...string) execution.Response {

	resp, err := c.Execute(snap, makeStep(t, sender, height, args...))
	require.NoError(t, err)

	return resp
}

func query(t *testing.T, c Contract, snap store.Readable) types.QueryResponse {
	data, err := c.Query(snap, execution.Request{})
	require.NoError(t, err)

	res, err := types.QueryResponseOf(json.NewContext(), data)
	require.NoError(t, err)

	return res
}

func queryBox(t *testing.T, c Contract, snap store.Readable, id string) types.QueryResponse {
	data, err := c.Query(snap, execution.Request{Args: map[string][]byte{IDArg: []byte(id)}})
	require.NoError(t, err)

	res, err := types.QueryResponseOf(json.NewContext(), data)
	require.NoError(t, err)

	return res
}

type fakeCmd struct {
	err error
}

func (c fakeCmd) instantiate(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	return execution.Response{}, c.err
}

func (c fakeCmd) vote(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	return execution.Response{}, c.err
}

func (c fakeCmd) reset(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	return execution.Response{}, c.err
}

func (c fakeCmd) createBox(snap store.Snapshot, step execution.Step) (execution.Response, error) {
	return execution.Response{}, c.err
}
