package othellozero

type dummyInferer struct {
	outputSize int
}

// UniformInferer returns an Inferer that knows nothing: every move is equally likely and every position is even.
// It stands in for a network until one is loaded.
func UniformInferer(actionSpace int) Inferer { return dummyInferer{outputSize: actionSpace} }

func (d dummyInferer) Infer(a []float32) (policy []float32, value float32, err error) {
	policy = make([]float32, d.outputSize)
	for i := range policy {
		policy[i] = 1 / float32(d.outputSize)
	}
	return policy, 0, nil
}

func (d dummyInferer) Close() error { return nil }
