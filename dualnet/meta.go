package dual

import (
	"bytes"
	"log"
	"sync"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferencer is a struct that holds the state for a *Dual and a VM. By using an Inferencer struct,
// there is no longer a need to create a VM every time an inference needs to be done.
//
// Infer may be called from many goroutines. Calls are serialized.
type Inferencer struct {
	sync.Mutex
	d *Dual
	m G.VM

	input *tensor.Dense
	buf   *bytes.Buffer
}

// Infer takes a *Dual, and creates an inference data structure such that it'd be easy to infer.
// The weights are copied, so d may be used or modified afterwards.
func Infer(d *Dual, toLog bool) (*Inferencer, error) {
	d2, err := d.Clone()
	if err != nil {
		return nil, err
	}
	retVal := &Inferencer{
		d:     d2,
		input: tensor.New(tensor.WithShape(d2.planes.Shape().Clone()...), tensor.Of(Float)),
		buf:   new(bytes.Buffer),
	}

	if toLog {
		logger := log.New(retVal.buf, "", 0)
		retVal.m = G.NewTapeMachine(retVal.d.g,
			G.WithLogger(logger),
			G.WithWatchlist(),
			G.TraceExec(),
			G.WithValueFmt("%+1.1v"),
			G.WithNaNWatch(),
		)
	} else {
		retVal.m = G.NewTapeMachine(retVal.d.g)
	}
	return retVal, nil
}

// Dual returns the network the Inferencer runs.
func (m *Inferencer) Dual() *Dual { return m.d }

// Infer takes the encoded board, in form of a []float32, and runs inference.
// The returned policy is a fresh slice of length ActionSpace.
func (m *Inferencer) Infer(board []float32) (policy []float32, value float32, err error) {
	m.Lock()
	defer m.Unlock()

	data := m.input.Data().([]float32)
	if len(board) != len(data) {
		return nil, 0, errors.Errorf("expected an input of %d floats. Got %d", len(data), len(board))
	}
	for _, op := range m.d.ops {
		if err = op.Reset(); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}
	copy(data, board)

	m.m.Reset()
	m.buf.Reset()
	if err = G.Let(m.d.planes, m.input); err != nil {
		return nil, 0, errors.WithStack(err)
	}
	if err = m.m.RunAll(); err != nil {
		return nil, 0, errors.Wrap(err, "inference failed")
	}

	out := m.d.policyValue.Data().([]float32)
	policy = make([]float32, m.d.ActionSpace)
	copy(policy, out)

	switch v := m.d.value.Data().(type) {
	case []float32:
		value = v[0]
	case float32:
		value = v
	default:
		return nil, 0, errors.Errorf("unexpected value output %T", v)
	}
	return policy, value, nil
}

// ExecLog returns the execution log of the last inference. If Infer was called with toLog = false, then it will return an empty string
func (m *Inferencer) ExecLog() string {
	m.Lock()
	defer m.Unlock()
	return m.buf.String()
}

// Close implements a closer, because well, a gorgonia VM is a resource.
func (m *Inferencer) Close() error { return m.m.Close() }

// CloseAll closes every inferencer and reports all the failures.
func CloseAll(infs ...*Inferencer) error {
	var errs manyErr
	for _, inf := range infs {
		if err := inf.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
