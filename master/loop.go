package master

import (
	"time"

	modbus "github.com/ironloop-io/modbus"
	"github.com/ironloop-io/modbus/packet"
	"github.com/ironloop-io/modbus/transport"
)

// loopState is the run loop's private world: every field here is only
// ever read or written from run's goroutine.
type loopState struct {
	queue          []*transaction
	inFlightSerial *transaction
	inFlightTCP    map[uint16]*transaction
	nextTxID       uint16
	connected      bool
}

func (m *Master) run() {
	defer close(m.stopped)
	st := &loopState{inFlightTCP: make(map[uint16]*transaction)}

	var idleTimer *time.Timer
	var idleC <-chan time.Time
	if m.idleGap > 0 {
		idleTimer = time.NewTimer(m.idleGap)
		if !idleTimer.Stop() {
			<-idleTimer.C
		}
		idleC = idleTimer.C
	}
	resetIdle := func() {
		if idleTimer == nil {
			return
		}
		if !idleTimer.Stop() {
			select {
			case <-idleTimer.C:
			default:
			}
		}
		idleTimer.Reset(m.idleGap)
	}

	for {
		select {
		case tx := <-m.submitCh:
			st.queue = append(st.queue, tx)
			m.dispatch(st)

		case <-m.openCh:
			st.connected = true
			m.emitOpen()
			m.dispatch(st)

		case err := <-m.closeCh:
			st.connected = false
			drained := len(st.queue) + len(st.inFlightTCP)
			if st.inFlightSerial != nil {
				drained++
			}
			m.logger.Warn("connection closed, draining transactions",
				"cause", err, "drained", drained)
			m.failAll(st, &modbus.ConnectionClosedError{Cause: err})
			m.framer.Reset()
			if err != nil {
				m.emitError(err)
			}
			m.emitClose()
			return

		case data := <-m.dataCh:
			events := m.framer.Feed(data)
			m.handleEvents(st, events)
			resetIdle()

		case <-idleC:
			events := m.framer.(*transport.RTUFramer).Idle()
			m.handleEvents(st, events)

		case sig := <-m.timeoutCh:
			m.handleTimeout(st, sig)

		case tx := <-m.retryCh:
			st.queue = append([]*transaction{tx}, st.queue...)
			m.dispatch(st)

		case <-m.doneCh:
			m.failAll(st, &modbus.ConnectionClosedError{})
			return
		}
	}
}

// dispatch sends as many queued transactions onto the wire as the
// transport's concurrency policy allows.
func (m *Master) dispatch(st *loopState) {
	for len(st.queue) > 0 {
		if !st.connected {
			return
		}
		if m.mode == ModeSerial && st.inFlightSerial != nil {
			return
		}

		tx := st.queue[0]
		st.queue = st.queue[1:]

		if tx.ctx.Err() != nil {
			continue
		}

		if m.mode == ModeTCP {
			tx.txID = st.nextTxID
			for {
				if _, taken := st.inFlightTCP[tx.txID]; !taken {
					break
				}
				st.nextTxID++
				tx.txID = st.nextTxID
			}
			st.nextTxID++
			st.inFlightTCP[tx.txID] = tx
		} else {
			st.inFlightSerial = tx
		}

		pdu := tx.req.ToBuffer()
		adu := m.framer.Wrap(pdu, tx.unit, tx.txID)
		if rtu, ok := m.framer.(*transport.RTUFramer); ok {
			if n := tx.req.ExpectedResponseLength(); n >= 0 {
				rtu.ExpectBytes(1 + n + 2)
			} else {
				rtu.ExpectBytes(0) // unknown length (e.g. ReadServerID): rely on Idle
			}
		}

		if err := m.conn.Write(adu); err != nil {
			m.removeInFlight(st, tx)
			m.resolve(st, tx, nil, err)
			m.emitError(err)
			continue
		}

		tx.state = stateInFlight
		tx.seq++
		seq := tx.seq
		tx.timer = time.AfterFunc(tx.timeout, func() {
			select {
			case m.timeoutCh <- timeoutSignal{tx: tx, seq: seq}:
			case <-m.stopped:
			}
		})
	}
}

func (m *Master) removeInFlight(st *loopState, tx *transaction) {
	if tx.timer != nil {
		tx.timer.Stop()
		tx.timer = nil
	}
	if m.mode == ModeTCP {
		delete(st.inFlightTCP, tx.txID)
		return
	}
	if st.inFlightSerial == tx {
		st.inFlightSerial = nil
	}
}

func (m *Master) handleEvents(st *loopState, events []transport.Event) {
	for _, ev := range events {
		if ev.Err != nil {
			m.handleFrameError(st, ev.Err)
			continue
		}
		m.handleFrame(st, ev.Frame)
	}
}

// handleFrameError applies a framer-level decode failure (bad checksum,
// short frame, bad MBAP header) to whichever transaction is currently
// expected to own the next frame. Serial transports have exactly one
// candidate; TCP transports cannot attribute a header-level failure to
// any single transaction id, so every in-flight transaction is retried.
func (m *Master) handleFrameError(st *loopState, err error) {
	if m.mode == ModeSerial {
		if st.inFlightSerial == nil {
			return
		}
		tx := st.inFlightSerial
		m.removeInFlight(st, tx)
		m.resolve(st, tx, nil, err)
		return
	}

	for _, tx := range st.inFlightTCP {
		delete(st.inFlightTCP, tx.txID)
		if tx.timer != nil {
			tx.timer.Stop()
			tx.timer = nil
		}
		m.resolve(st, tx, nil, err)
	}
}

func (m *Master) handleFrame(st *loopState, frame *transport.Frame) {
	var tx *transaction
	if m.mode == ModeTCP {
		tx = st.inFlightTCP[frame.TxID]
		if tx == nil {
			return // unmatched transaction id; drop
		}
	} else {
		tx = st.inFlightSerial
		if tx == nil {
			return // unsolicited frame; drop
		}
	}

	resp, err := packet.ParseResponse(tx.req.FunctionCode(), frame.PDU)
	m.removeInFlight(st, tx)

	if err == nil {
		if exc, ok := resp.(*packet.ExceptionResponse); ok {
			m.resolve(st, tx, nil, exc)
			return
		}
		m.resolve(st, tx, resp, nil)
		return
	}
	m.resolve(st, tx, nil, err)
}

func (m *Master) handleTimeout(st *loopState, sig timeoutSignal) {
	tx := sig.tx
	if tx.state != stateInFlight || tx.seq != sig.seq {
		return // stale fire: already resolved or already retried once
	}
	m.removeInFlight(st, tx)
	m.logger.Warn("response timeout",
		"function", tx.req.FunctionCode(), "unit", tx.unit, "timeout", tx.timeout, "attempts_left", tx.attemptsLeft)
	m.resolve(st, tx, nil, &modbus.ResponseTimeoutError{Elapsed: tx.timeout.String()})
}

// resolve applies the retry policy to a failed attempt, or delivers a
// terminal outcome (success, exception, or exhausted retries) to the
// caller blocked in Execute.
func (m *Master) resolve(st *loopState, tx *transaction, resp packet.Response, err error) {
	if err == nil {
		tx.state = stateCompleted
		tx.complete(resp, nil)
		m.dispatch(st)
		return
	}

	if modbus.Retryable(err) && tx.attemptsLeft > 0 {
		tx.attemptsLeft--
		tx.state = stateRetrying
		m.logger.Debug("retrying transaction",
			"function", tx.req.FunctionCode(), "unit", tx.unit, "error", err, "attempts_left", tx.attemptsLeft)
		time.AfterFunc(tx.interval, func() {
			select {
			case m.retryCh <- tx:
			case <-m.stopped:
			}
		})
		return
	}

	tx.state = stateFailed
	tx.complete(nil, err)
	m.dispatch(st)
}

// failAll resolves every queued and in-flight transaction with err, used
// when the connection closes or Destroy is called.
func (m *Master) failAll(st *loopState, err error) {
	for _, tx := range st.queue {
		tx.state = stateFailed
		tx.complete(nil, err)
	}
	st.queue = nil

	if tx := st.inFlightSerial; tx != nil {
		m.removeInFlight(st, tx)
		tx.state = stateFailed
		tx.complete(nil, err)
	}
	for _, tx := range st.inFlightTCP {
		m.removeInFlight(st, tx)
		tx.state = stateFailed
		tx.complete(nil, err)
	}
}
