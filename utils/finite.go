package utils

import (
	"math"

	"lockstep/server/domain"
)

// FiniteVector は3成分すべてがNaNでも無限大でもないかを返す
func FiniteVector(v domain.Vector3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float32) bool {
	x := float64(f)
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
