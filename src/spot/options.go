// Copyright (c) 2022 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package spot

import (
	"github.com/m3db/spot/src/x/instrument"
	xmath "github.com/m3db/spot/src/x/math"
)

// Options configures a detector beyond its statistical configuration.
type Options interface {
	// SetInstrumentOptions sets the instrument options.
	SetInstrumentOptions(value instrument.Options) Options

	// InstrumentOptions returns the instrument options.
	InstrumentOptions() instrument.Options

	// SetMathBackend sets the math backend tail computations run on. The
	// portable backend keeps results independent of the platform libm,
	// the native backend trades that for stdlib speed.
	SetMathBackend(value xmath.Backend) Options

	// MathBackend returns the math backend tail computations run on.
	MathBackend() xmath.Backend
}

type options struct {
	iopts instrument.Options
	math  xmath.Backend
}

// NewOptions creates new detector options.
func NewOptions() Options {
	return &options{
		iopts: instrument.NewOptions(),
		math:  xmath.Portable,
	}
}

func (o *options) SetInstrumentOptions(value instrument.Options) Options {
	opts := *o
	opts.iopts = value
	return &opts
}

func (o *options) InstrumentOptions() instrument.Options {
	return o.iopts
}

func (o *options) SetMathBackend(value xmath.Backend) Options {
	opts := *o
	opts.math = value
	return &opts
}

func (o *options) MathBackend() xmath.Backend {
	return o.math
}
