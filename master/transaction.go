package master

import (
	"context"
	"time"

	"github.com/ironloop-io/modbus/packet"
)

type txState int

const (
	stateQueued txState = iota
	stateInFlight
	stateRetrying
	stateCompleted
	stateFailed
)

type txResult struct {
	resp packet.Response
	err  error
}

// transaction tracks one in-flight Execute call through the
// Queued -> InFlight -> (Completed | Retrying | Failed) state machine.
// It is only ever touched from the Master's run loop, except for
// resultCh which the submitting goroutine also reads from.
type transaction struct {
	req      packet.Request
	unit     uint8
	txID     uint16
	timeout  time.Duration
	retries  uint8
	interval time.Duration

	attemptsLeft uint8
	state        txState
	seq          uint64 // bumped on each dispatch; guards against stale timer fires
	timer        *time.Timer

	ctx      context.Context
	resultCh chan txResult
}

func newTransaction(ctx context.Context, req packet.Request, cfg executeConfig) *transaction {
	return &transaction{
		req:          req,
		unit:         cfg.unit,
		timeout:      cfg.timeout,
		retries:      cfg.retries,
		interval:     cfg.retryInterval(),
		attemptsLeft: cfg.retries,
		ctx:          ctx,
		resultCh:     make(chan txResult, 1),
	}
}

// complete delivers a terminal outcome to the submitting goroutine. It
// never blocks: resultCh is buffered for exactly one value and nothing
// else ever sends to it.
func (t *transaction) complete(resp packet.Response, err error) {
	t.resultCh <- txResult{resp: resp, err: err}
}
