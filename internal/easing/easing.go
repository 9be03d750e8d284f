// Package easing provides timing curves for property animation.
//
// Every curve maps linear progress in [0,1] to eased progress in [0,1].
// Curves are pure functions and safe for concurrent use.
package easing

import "math"

// Func maps linear progress t in [0,1] to eased progress.
type Func func(t float64) float64

// Name identifies a built-in easing curve.
type Name string

// Built-in curve names.
const (
	Linear       Name = "linear"
	EaseIn       Name = "ease-in"
	EaseInQuad   Name = "ease-in-quad"
	EaseOut      Name = "ease-out"
	EaseOutQuad  Name = "ease-out-quad"
	EaseInOut    Name = "ease-in-out"
	EaseInCubic  Name = "ease-in-cubic"
	EaseOutCubic Name = "ease-out-cubic"
	Bounce       Name = "bounce"
	Elastic      Name = "elastic"
)

// For returns the curve for name. Unknown names fall back to linear.
func For(name Name) Func {
	switch name {
	case Linear:
		return LinearFunc
	case EaseIn, EaseInQuad:
		return QuadIn
	case EaseOut, EaseOutQuad:
		return QuadOut
	case EaseInOut:
		return QuadInOut
	case EaseInCubic:
		return CubicIn
	case EaseOutCubic:
		return CubicOut
	case Bounce:
		return BounceOut
	case Elastic:
		return ElasticFunc
	default:
		return LinearFunc
	}
}

// LinearFunc returns t unchanged.
func LinearFunc(t float64) float64 { return t }

// QuadIn accelerates from zero: t^2.
func QuadIn(t float64) float64 { return t * t }

// QuadOut decelerates to one: 1 - (1-t)^2.
func QuadOut(t float64) float64 {
	u := 1 - t
	return 1 - u*u
}

// QuadInOut accelerates then decelerates.
func QuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// CubicIn accelerates from zero: t^3.
func CubicIn(t float64) float64 { return t * t * t }

// CubicOut decelerates to one: 1 - (1-t)^3.
func CubicOut(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// BounceOut is the standard four-segment ease-out bounce.
func BounceOut(t float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75

	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// ElasticFunc oscillates with exponentially growing amplitude.
// Exactly 0 at t=0 and exactly 1 at t=1.
func ElasticFunc(t float64) float64 {
	const c4 = 2 * math.Pi / 3

	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*c4)
}
