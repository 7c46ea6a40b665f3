package dual

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var Float = G.Float32

// Dual is the whole neural network architecture of the dual network.
//
// The policy and value heads share a residual tower. The graph is forward only, with a batch of one board.
type Dual struct {
	Config
	ops []batchNormOp

	g *G.ExprGraph

	planes       *G.Node
	policyOutput *G.Node
	valueOutput  *G.Node

	policyValue G.Value // policy predicted
	value       G.Value // the actual value predicted
}

// New returns a new, uninitialized *Dual.
func New(conf Config) *Dual {
	retVal := &Dual{
		Config: conf,
	}

	return retVal
}

// Init builds the graph and initializes the weights.
func (d *Dual) Init() error {
	if !d.IsValid() {
		return errors.Errorf("invalid network config %+v", d.Config)
	}
	d.reset()
	d.g = G.NewGraph()
	return d.fwd()
}

func (d *Dual) fwd() error {
	// note, the data should be arranged like so:
	//	BatchSize, Features, Height, Width
	// because Gorgonia only supports doing convolutions on BCHW format
	d.planes = G.NewTensor(d.g, Float, 4, G.WithShape(1, d.Features, d.Height, d.Width), G.WithName("Planes"))

	var m maebe
	initialOut, initialOp := m.block(d.planes, d.K, 3, "Init")
	d.ops = append(d.ops, initialOp)

	// shared stack
	sharedOut := initialOut
	for i := 0; i < d.SharedLayers; i++ {
		var op1, op2 batchNormOp
		sharedOut, op1, op2 = m.residual(sharedOut, d.K, i)
		d.ops = append(d.ops, op1, op2)
	}

	// policy head
	policy, pop := m.block(sharedOut, 2, 1, "PolicyHead")
	logits := m.linear(m.flatten(policy), d.ActionSpace, "Policy")
	d.policyOutput = m.do(func() (*G.Node, error) { return G.SoftMax(logits) })

	// value head
	value, vop := m.block(sharedOut, 1, 1, "ValueHead")
	value = m.rectify(m.linear(m.flatten(value), d.FC, "Value"))
	value = m.linear(value, 1, "ValueOutput")
	value = m.reshape(value, tensor.Shape{1})
	d.valueOutput = m.do(func() (*G.Node, error) { return G.Tanh(value) })

	if m.err != nil {
		return m.err
	}
	G.Read(d.policyOutput, &d.policyValue)
	G.Read(d.valueOutput, &d.value)
	d.ops = append(d.ops, pop, vop)
	return nil
}

// Model returns the learnable nodes of the graph, in creation order.
func (d *Dual) Model() G.Nodes {
	retVal := make(G.Nodes, 0, d.g.Nodes().Len())
	for _, n := range d.g.AllNodes() {
		if n.IsVar() && n != d.planes {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

// Clone returns a *Dual with the same config and a copy of the weights.
func (d *Dual) Clone() (*Dual, error) {
	d2 := New(d.Config)
	if err := d2.Init(); err != nil {
		return nil, err
	}
	if err := copyModel(d2.Model(), d.Model()); err != nil {
		return nil, err
	}
	return d2, nil
}

func (d *Dual) reset() {
	d.ops = nil
	d.g = nil

	d.planes = nil
	d.policyOutput = nil
	d.valueOutput = nil
}

// GobEncode writes the weights of the model. The config is not written.
func (d *Dual) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, n := range d.Model() {
		data, ok := n.Value().Data().([]float32)
		if !ok {
			return nil, errors.Errorf("expected []float32 weights in %v", n.Name())
		}
		if err = enc.Encode(data); err != nil {
			return nil, errors.Wrapf(err, "encoding %v", n.Name())
		}
	}
	return buf.Bytes(), nil
}

// GobDecode builds the graph from d.Config and reads the weights into it.
func (d *Dual) GobDecode(p []byte) error {
	if err := d.Init(); err != nil {
		return err
	}

	dec := gob.NewDecoder(bytes.NewBuffer(p))
	for _, n := range d.Model() {
		var data []float32
		if err := dec.Decode(&data); err != nil {
			return errors.Wrapf(err, "decoding %v", n.Name())
		}
		dst := n.Value().Data().([]float32)
		if len(dst) != len(data) {
			return errors.Errorf("%v expects %d weights. Got %d", n.Name(), len(dst), len(data))
		}
		copy(dst, data)
	}
	return nil
}

func copyModel(dst, src G.Nodes) error {
	if len(dst) != len(src) {
		return errors.Errorf("models have %d and %d nodes", len(dst), len(src))
	}
	for i, n := range src {
		original := n.Value().Data().([]float32)
		cloned := dst[i].Value().Data().([]float32)
		copy(cloned, original)
	}
	return nil
}
