// Copyright (C) 2024 The Eaglesync Authors.
//
// This file is part of Eaglesync.
//
// Eaglesync is free software: you can redistribute it and/or modify it under
// the terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Eaglesync is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Eaglesync.  If not, see <https://www.gnu.org/licenses/>.

// Package tempo estimates the tempo of music in beats per minute.
//
// The estimate follows the usual onset autocorrelation approach: an onset
// strength envelope is built from the rise in short-time energy, its
// autocorrelation is weighted by a log-normal prior around 120 BPM and the
// strongest lag wins.
package tempo

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

const (
	frameRate = 200 // envelope frames per second
	minBPM    = 40
	maxBPM    = 240
	priorBPM  = 120
	priorStd  = 1.0 // octaves
)

var ErrTooShort = errors.New("tempo: not enough audio")

// EstimateFile decodes the mp3 at path and estimates its tempo.
func EstimateFile(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return EstimateMP3(f)
}

// EstimateMP3 decodes mp3 data from r and estimates its tempo.
func EstimateMP3(r io.Reader) (float64, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, err
	}
	samples, err := decode(d)
	if err != nil {
		return 0, err
	}
	return Estimate(samples, d.SampleRate())
}

// decode reads 16-bit little endian stereo PCM and downmixes it to mono.
func decode(r io.Reader) ([]float64, error) {
	var samples []float64
	buf := make([]byte, 4096*4)
	var rest []byte
	for {
		n, err := r.Read(buf)
		data := append(rest, buf[:n]...)
		whole := len(data) / 4 * 4
		for i := 0; i < whole; i += 4 {
			left := int16(binary.LittleEndian.Uint16(data[i:]))
			right := int16(binary.LittleEndian.Uint16(data[i+2:]))
			samples = append(samples, (float64(left)+float64(right))/(2*math.MaxInt16))
		}
		rest = append(rest[:0], data[whole:]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return samples, nil
}

// Estimate returns the tempo of mono samples at the given sample rate.
func Estimate(samples []float64, rate int) (float64, error) {
	if rate <= 0 {
		return 0, errors.New("tempo: invalid sample rate")
	}
	hop := rate / frameRate
	if hop < 1 {
		hop = 1
	}
	fps := float64(rate) / float64(hop)
	env := onsets(samples, hop)

	minLag := int(math.Floor(60 * fps / maxBPM))
	maxLag := int(math.Ceil(60 * fps / minBPM))
	if minLag < 1 {
		minLag = 1
	}
	if len(env) <= maxLag*2 {
		return 0, ErrTooShort
	}

	bestLag, best := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		score := autocorr(env, lag) * prior(60*fps/float64(lag))
		if score > best {
			bestLag, best = lag, score
		}
	}
	if bestLag == 0 {
		return 0, ErrTooShort
	}
	return 60 * fps / interpolate(env, bestLag), nil
}

// onsets is the smoothed half-wave rectified energy difference per frame.
func onsets(samples []float64, hop int) []float64 {
	frames := len(samples) / hop
	energy := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var e float64
		for _, s := range samples[f*hop : (f+1)*hop] {
			e += s * s
		}
		energy[f] = math.Log1p(1000 * e / float64(hop))
	}
	flux := make([]float64, frames)
	for f := 1; f < frames; f++ {
		if d := energy[f] - energy[f-1]; d > 0 {
			flux[f] = d
		}
	}
	kernel := []float64{1, 2, 3, 2, 1}
	env := make([]float64, frames)
	for f := range flux {
		for k, w := range kernel {
			i := f + k - len(kernel)/2
			if i >= 0 && i < frames {
				env[f] += w * flux[i]
			}
		}
	}
	return env
}

func prior(bpm float64) float64 {
	x := math.Log2(bpm/priorBPM) / priorStd
	return math.Exp(-0.5 * x * x)
}

func autocorr(env []float64, lag int) float64 {
	if lag < 1 || lag >= len(env) {
		return 0
	}
	var sum float64
	for i := lag; i < len(env); i++ {
		sum += env[i] * env[i-lag]
	}
	return sum
}

// interpolate refines lag with a parabola through its neighbours.
func interpolate(env []float64, lag int) float64 {
	a, b, c := autocorr(env, lag-1), autocorr(env, lag), autocorr(env, lag+1)
	denom := a - 2*b + c
	if denom >= 0 {
		return float64(lag)
	}
	offset := 0.5 * (a - c) / denom
	if offset > 0.5 || offset < -0.5 {
		return float64(lag)
	}
	return float64(lag) + offset
}

// Round rounds bpm to the nearest multiple.
func Round(bpm float64, multiple int) int {
	if multiple <= 0 {
		return int(math.Round(bpm))
	}
	m := float64(multiple)
	return int(m * math.Round(bpm/m))
}
