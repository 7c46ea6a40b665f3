package dual

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	nnops "gorgonia.org/gorgonia/ops/nn"
	"gorgonia.org/tensor"
)

// maebe threads the first construction error through a chain of graph building calls.
type maebe struct {
	err error
}

type batchNormOp interface {
	SetTraining()
	SetTesting()
	Reset() error
}

func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) conv(input *G.Node, filterCount, size int, name string) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	featureCount := input.Shape()[1]
	padding := findPadding(input.Shape()[2], input.Shape()[3], size, size)
	filter := G.NewTensor(input.Graph(), Float, 4, G.WithShape(filterCount, featureCount, size, size), G.WithName("Filter"+name), G.WithInit(G.GlorotU(1.0)))

	// same padding, stride 1: the board keeps its size
	if retVal, m.err = nnops.Conv2d(input, filter, []int{size, size}, padding, []int{1, 1}, []int{1, 1}); m.err != nil {
		m.err = errors.Wrapf(m.err, "conv %q", name)
	}
	return
}

func (m *maebe) batchnorm(input *G.Node) (retVal *G.Node, retOp batchNormOp) {
	if m.err != nil {
		return nil, nil
	}
	if retVal, _, _, retOp, m.err = nnops.BatchNorm(input, nil, nil, 0.997, 1e-5); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// block is conv → batchnorm → relu.
func (m *maebe) block(input *G.Node, filterCount, size int, name string) (*G.Node, batchNormOp) {
	convolved := m.conv(input, filterCount, size, name)
	normalized, op := m.batchnorm(convolved)
	return m.rectify(normalized), op
}

// residual is two 3×3 convolutions with a skip connection around them.
func (m *maebe) residual(input *G.Node, filterCount, layer int) (*G.Node, batchNormOp, batchNormOp) {
	first, op1 := m.block(input, filterCount, 3, fmt.Sprintf("Res%d_1", layer))
	second := m.conv(first, filterCount, 3, fmt.Sprintf("Res%d_2", layer))
	normalized, op2 := m.batchnorm(second)
	added := m.do(func() (*G.Node, error) { return G.Add(normalized, input) })
	return m.rectify(added), op1, op2
}

// linear is xW + b.
func (m *maebe) linear(input *G.Node, units int, name string) *G.Node {
	if m.err != nil {
		return nil
	}
	w := G.NewTensor(input.Graph(), Float, 2, G.WithShape(input.Shape()[1], units), G.WithInit(G.GlorotN(1.0)), G.WithName(name+"_w"))
	xw := m.do(func() (*G.Node, error) { return G.Mul(input, w) })
	if m.err != nil {
		return nil
	}
	b := G.NewTensor(xw.Graph(), Float, xw.Shape().Dims(), G.WithShape(xw.Shape().Clone()...), G.WithName(name+"_b"), G.WithInit(G.Zeroes()))
	return m.do(func() (*G.Node, error) { return G.Add(xw, b) })
}

func (m *maebe) rectify(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = nnops.Rectify(input); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// flatten reshapes a BCHW node into a (B, C*H*W) matrix.
func (m *maebe) flatten(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	shp := input.Shape()
	return m.reshape(input, tensor.Shape{shp[0], shp.TotalSize() / shp[0]})
}

func (m *maebe) reshape(input *G.Node, to tensor.Shape) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = G.Reshape(input, to); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func findPadding(inputX, inputY, kernelX, kernelY int) []int {
	return []int{
		(inputX - 1 - inputX + kernelX) / 2,
		(inputY - 1 - inputY + kernelY) / 2,
	}
}
