package network

import (
	"gonum.org/v1/gonum/mat"
)

// MaxPool2D implements non-overlapping max pooling over
// channel-major flattened images. The window and stride are both
// pool; trailing rows and columns that do not fill a window are
// dropped.
type MaxPool2D struct {
	inH, inW, channels int
	pool               int
	outH, outW         int

	// argmax records, per batch row and pooled output, the flat
	// input index that won the max. Training mode only.
	argmax [][]int
}

// newMaxPool2D returns a new MaxPool2D layer.
func newMaxPool2D(inH, inW, channels, pool int) *MaxPool2D {
	return &MaxPool2D{
		inH:      inH,
		inW:      inW,
		channels: channels,
		pool:     pool,
		outH:     inH / pool,
		outW:     inW / pool,
	}
}

// Fwd pools every sample row.
func (p *MaxPool2D) Fwd(x *mat.Dense, training bool) *mat.Dense {
	rows, _ := x.Dims()
	width := p.channels * p.outH * p.outW

	out := mat.NewDense(rows, width, nil)
	var argmax [][]int
	if training {
		argmax = make([][]int, rows)
	}

	for b := 0; b < rows; b++ {
		in := x.RawRowView(b)
		outRow := out.RawRowView(b)
		var winners []int
		if training {
			winners = make([]int, width)
		}

		i := 0
		for ch := 0; ch < p.channels; ch++ {
			for oy := 0; oy < p.outH; oy++ {
				for ox := 0; ox < p.outW; ox++ {
					best := (ch*p.inH+oy*p.pool)*p.inW + ox*p.pool
					for ky := 0; ky < p.pool; ky++ {
						for kx := 0; kx < p.pool; kx++ {
							idx := (ch*p.inH+oy*p.pool+ky)*p.inW +
								ox*p.pool + kx
							if in[idx] > in[best] {
								best = idx
							}
						}
					}
					outRow[i] = in[best]
					if training {
						winners[i] = best
					}
					i++
				}
			}
		}
		if training {
			argmax[b] = winners
		}
	}

	if training {
		p.argmax = argmax
	}
	return out
}

// Bwd routes each output gradient back to the input pixel that won
// its pooling window.
func (p *MaxPool2D) Bwd(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()

	dx := mat.NewDense(rows, p.channels*p.inH*p.inW, nil)
	for b := 0; b < rows; b++ {
		gRow := grad.RawRowView(b)
		dxRow := dx.RawRowView(b)
		for i, idx := range p.argmax[b] {
			dxRow[idx] += gRow[i]
		}
	}
	return dx
}

// Params returns nil: pooling has nothing to train.
func (p *MaxPool2D) Params() []*Param {
	return nil
}
