// Package native implements an execution service to run native smart contracts.
//
// A native smart contract is written in Go and packaged with the application.
package native

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/tally"
	"go.dedis.ch/tally/core/execution"
	"go.dedis.ch/tally/core/store"
	"golang.org/x/xerrors"
)

const (
	// ContractArg is the argument key in the transaction to look up a contract.
	ContractArg = "go.dedis.ch/tally.ContractArg"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

// defines prometheus metrics
var (
	promExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_native_executions_total",
		Help: "total number of transactions executed by a native contract",
	}, []string{"contract", "result"})

	promQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_native_queries_total",
		Help: "total number of queries answered by a native contract",
	}, []string{"contract"})
)

func init() {
	tally.PromCollectors = append(tally.PromCollectors, promExecutions, promQueries)
}

// Contract is the interface to implement to register a smart contract that will
// be executed natively.
type Contract interface {
	Execute(store.Snapshot, execution.Step) (execution.Response, error)
}

// Querier is the interface that a contract can implement to answer read-only
// requests.
type Querier interface {
	Query(store.Readable, execution.Request) ([]byte, error)
}

// Service is an execution service for packaged applications. Those
// applications have complete access to the snapshot and can directly update it.
//
// - implements execution.Service
type Service struct {
	contracts map[string]Contract
}

// NewExecution returns a new native execution. The given service will be
// executed for every incoming transaction.
func NewExecution() *Service {
	return &Service{
		contracts: map[string]Contract{},
	}
}

// Set stores the contract using the name as the key. A transaction can trigger
// this contract by using the same name as the contract argument.
func (ns *Service) Set(name string, contract Contract) {
	ns.contracts[name] = contract
}

// Execute implements execution.Service. It uses the executor to process the
// incoming transaction and return the result.
func (ns *Service) Execute(snap store.Snapshot, step execution.Step) (execution.Result, error) {
	name := string(step.Current.GetArg(ContractArg))

	contract := ns.contracts[name]
	if contract == nil {
		return execution.Result{}, xerrors.Errorf("unknown contract '%s'", name)
	}

	res := execution.Result{
		Accepted: true,
	}

	resp, err := contract.Execute(snap, step)
	if err != nil {
		res.Accepted = false
		res.Message = err.Error()

		promExecutions.WithLabelValues(name, resultRejected).Inc()

		return res, nil
	}

	res.Attributes = resp.Attributes

	promExecutions.WithLabelValues(name, resultAccepted).Inc()

	return res, nil
}

// Query implements execution.Service. It forwards the request to the contract
// if it supports queries.
func (ns *Service) Query(snap store.Readable, name string, req execution.Request) ([]byte, error) {
	contract := ns.contracts[name]
	if contract == nil {
		return nil, xerrors.Errorf("unknown contract '%s'", name)
	}

	querier, ok := contract.(Querier)
	if !ok {
		return nil, xerrors.Errorf("contract '%s' does not support queries", name)
	}

	data, err := querier.Query(snap, req)
	if err != nil {
		return nil, xerrors.Errorf("query failed: %w", err)
	}

	promQueries.WithLabelValues(name).Inc()

	return data, nil
}
