//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package checks

import (
	"math"
	"testing"
)

func TestCheckEpsilonStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is negative infinity",
			math.Inf(-1),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"tiny positive epsilon",
			math.Exp2(-60.0),
			false},
		{"positive epsilon",
			50,
			false},
	} {
		if err := CheckEpsilonStrict(tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilonStrictUsesName(t *testing.T) {
	err := CheckEpsilonStrict(0, "Epsilons[3]")
	if err == nil {
		t.Fatalf("CheckEpsilonStrict: got nil error, want error")
	}
	if got, want := err.Error(), "Epsilons[3] is 0.000000, must be strictly positive and finite"; got != want {
		t.Errorf("CheckEpsilonStrict: got message %q, want %q", got, want)
	}
	if err := CheckEpsilonStrict(1, "a", "b"); err == nil {
		t.Errorf("CheckEpsilonStrict: with two names got nil error, want error")
	}
}

func TestCheckEpsilonVeryStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"epsilon below 2^-50", math.Exp2(-51), true},
		{"zero epsilon", 0, true},
		{"NaN epsilon", math.NaN(), true},
		{"infinite epsilon", math.Inf(1), true},
		{"epsilon at 2^-50", math.Exp2(-50), false},
		{"very large epsilon", math.MaxFloat64, false},
	} {
		if err := CheckEpsilonVeryStrict(tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonVeryStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilons(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		epsilons []float64
		wantErr  bool
	}{
		{"nil sequence", nil, true},
		{"empty sequence", []float64{}, true},
		{"single epsilon", []float64{1}, false},
		{"ascending sequence", []float64{0.05, 0.1, 0.2, 0.5, 1.0}, false},
		{"descending sequence", []float64{1.0, 0.5}, false},
		{"zero inside sequence", []float64{0.1, 0, 1.0}, true},
		{"negative at end", []float64{0.1, 1.0, -1}, true},
		{"infinity inside sequence", []float64{0.1, math.Inf(1)}, true},
		{"epsilon below 2^-50", []float64{1e-16, 1}, true},
		{"epsilon at 2^-50", []float64{math.Exp2(-50), 1}, false},
	} {
		if err := CheckEpsilons(tc.epsilons); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilons: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckSensitivity(t *testing.T) {
	for _, tc := range []struct {
		desc        string
		sensitivity float64
		wantErr     bool
	}{
		{"negative sensitivity", -1, true},
		{"zero sensitivity", 0, true},
		{"NaN sensitivity", math.NaN(), true},
		{"infinite sensitivity", math.Inf(1), true},
		{"default sensitivity", 1, false},
		{"fractional sensitivity", 0.25, false},
	} {
		if err := CheckSensitivity(tc.sensitivity); (err != nil) != tc.wantErr {
			t.Errorf("CheckSensitivity: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckRepetitionsAndParallelism(t *testing.T) {
	for _, tc := range []struct {
		n       int
		wantErr bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{1000, false},
	} {
		if err := CheckRepetitions(tc.n); (err != nil) != tc.wantErr {
			t.Errorf("CheckRepetitions(%d): got err %v, want %t", tc.n, err, tc.wantErr)
		}
		if err := CheckParallelism(tc.n); (err != nil) != tc.wantErr {
			t.Errorf("CheckParallelism(%d): got err %v, want %t", tc.n, err, tc.wantErr)
		}
	}
}

func TestCheckAlpha(t *testing.T) {
	for _, tc := range []struct {
		alpha   float64
		wantErr bool
	}{
		{0, true},
		{1, true},
		{math.NaN(), true},
		{0.05, false},
	} {
		if err := CheckAlpha(tc.alpha); (err != nil) != tc.wantErr {
			t.Errorf("CheckAlpha(%f): got err %v, want %t", tc.alpha, err, tc.wantErr)
		}
	}
}
