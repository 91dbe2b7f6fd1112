package cv

// Gradients computes dcost/dθ for every scalar in the parameter set by
// central finite differences over the flattened vector, ordered as
// Params.Flatten. Perturbing one scalar only changes one layer, so each
// probe evaluation rebuilds that single layer matrix and reuses the rest of
// the stack. The parameter set is restored exactly before returning.
func (c *Circuit) Gradients(batch, target [][]complex128, step float64) []float64 {
	depth := c.Config.Depth
	mats := c.LayerMatrices()
	families := c.Params.families()

	grads := make([]float64, 7*depth)
	for j := range grads {
		fam := families[j/depth]
		layer := j % depth
		orig := fam[layer]

		fam[layer] = orig + step
		plus := c.costWithLayer(mats, layer, batch, target)
		fam[layer] = orig - step
		minus := c.costWithLayer(mats, layer, batch, target)
		fam[layer] = orig

		grads[j] = (plus - minus) / (2 * step)
	}
	return grads
}

// costWithLayer evaluates the cost with layer i rebuilt from the current
// (perturbed) parameters while every other layer keeps its cached matrix.
func (c *Circuit) costWithLayer(mats [][]complex128, i int, batch, target [][]complex128) float64 {
	saved := mats[i]
	mats[i] = LayerMatrix(c.Config.Cutoff, i, c.Params)
	cost, _ := Evaluate(c.forwardWith(mats, batch), target)
	mats[i] = saved
	return cost
}
