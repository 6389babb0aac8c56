package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Conv2D implements a 2D convolution over channel-major flattened
// images, with valid padding, unit stride, and a fused activation.
// Weights are laid out filter-major as [filter][channel][ky][kx].
type Conv2D struct {
	inH, inW, inC int
	outH, outW    int
	filters       int
	kernel        int
	act           *Activation

	wParam *Param
	bParam *Param

	x, pre, post *mat.Dense // cached during training
}

// newConv2D returns a new Conv2D layer owning the given flat weights
// and biases.
func newConv2D(name string, inH, inW, inC, filters, kernel int,
	act *Activation, weights, biases []float64) (*Conv2D, error) {
	if kernel < 1 || kernel > inH || kernel > inW {
		return nil, fmt.Errorf("newConv2D: %v: kernel %d does not "+
			"fit a %dx%d input", name, kernel, inH, inW)
	}
	if len(weights) != filters*inC*kernel*kernel {
		return nil, fmt.Errorf("newConv2D: %v: expected %d weights, "+
			"got %d", name, filters*inC*kernel*kernel, len(weights))
	}
	if len(biases) != filters {
		return nil, fmt.Errorf("newConv2D: %v: expected %d biases, "+
			"got %d", name, filters, len(biases))
	}

	return &Conv2D{
		inH:     inH,
		inW:     inW,
		inC:     inC,
		outH:    inH - kernel + 1,
		outW:    inW - kernel + 1,
		filters: filters,
		kernel:  kernel,
		act:     act,
		wParam:  newParam(name+".weights", weights),
		bParam:  newParam(name+".bias", biases),
	}, nil
}

// wIdx returns the flat index of weight (f, ch, ky, kx).
func (c *Conv2D) wIdx(f, ch, ky, kx int) int {
	return ((f*c.inC+ch)*c.kernel+ky)*c.kernel + kx
}

// inIdx returns the flat index of input pixel (ch, y, x).
func (c *Conv2D) inIdx(ch, y, x int) int {
	return (ch*c.inH+y)*c.inW + x
}

// outIdx returns the flat index of output pixel (f, y, x).
func (c *Conv2D) outIdx(f, y, x int) int {
	return (f*c.outH+y)*c.outW + x
}

// Fwd convolves every sample row with the filter bank.
func (c *Conv2D) Fwd(x *mat.Dense, training bool) *mat.Dense {
	rows, _ := x.Dims()
	weights := c.wParam.value
	biases := c.bParam.value

	pre := mat.NewDense(rows, c.filters*c.outH*c.outW, nil)
	for b := 0; b < rows; b++ {
		in := x.RawRowView(b)
		out := pre.RawRowView(b)

		for f := 0; f < c.filters; f++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					sum := biases[f]
					for ch := 0; ch < c.inC; ch++ {
						for ky := 0; ky < c.kernel; ky++ {
							for kx := 0; kx < c.kernel; kx++ {
								sum += weights[c.wIdx(f, ch, ky, kx)] *
									in[c.inIdx(ch, oy+ky, ox+kx)]
							}
						}
					}
					out[c.outIdx(f, oy, ox)] = sum
				}
			}
		}
	}

	post := pre
	if !c.act.IsIdentity() {
		post = mat.NewDense(rows, c.filters*c.outH*c.outW, nil)
		for i := 0; i < rows; i++ {
			c.act.fwd(post.RawRowView(i), pre.RawRowView(i))
		}
	}

	if training {
		c.x, c.pre, c.post = x, pre, post
	}
	return post
}

// Bwd backpropagates grad through the convolution, filling the
// filter and bias gradients.
func (c *Conv2D) Bwd(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()

	dz := grad
	if !c.act.IsIdentity() {
		dz = mat.NewDense(rows, c.filters*c.outH*c.outW, nil)
		for i := 0; i < rows; i++ {
			c.act.bwd(dz.RawRowView(i), grad.RawRowView(i),
				c.pre.RawRowView(i), c.post.RawRowView(i))
		}
	}

	weights := c.wParam.value
	wGrad := c.wParam.grad
	bGrad := c.bParam.grad
	zero(wGrad)
	zero(bGrad)

	dx := mat.NewDense(rows, c.inC*c.inH*c.inW, nil)
	for b := 0; b < rows; b++ {
		in := c.x.RawRowView(b)
		dzRow := dz.RawRowView(b)
		dxRow := dx.RawRowView(b)

		for f := 0; f < c.filters; f++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					g := dzRow[c.outIdx(f, oy, ox)]
					if g == 0 {
						continue
					}
					bGrad[f] += g
					for ch := 0; ch < c.inC; ch++ {
						for ky := 0; ky < c.kernel; ky++ {
							for kx := 0; kx < c.kernel; kx++ {
								wGrad[c.wIdx(f, ch, ky, kx)] +=
									g * in[c.inIdx(ch, oy+ky, ox+kx)]
								dxRow[c.inIdx(ch, oy+ky, ox+kx)] +=
									g * weights[c.wIdx(f, ch, ky, kx)]
							}
						}
					}
				}
			}
		}
	}
	return dx
}

// Params returns the layer's filters and biases.
func (c *Conv2D) Params() []*Param {
	return []*Param{c.wParam, c.bParam}
}
