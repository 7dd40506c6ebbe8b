package engine

import "time"

// SetClock pins the engine clock in tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetTxRunner swaps the transaction runner in tests.
func (e *Engine) SetTxRunner(run TxRunner) { e.inTx = run }
