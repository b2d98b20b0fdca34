package crypto

import (
	"math/big"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"perpsign/felt"
)

// STARK curve: y^2 = x^3 + alpha*x + beta over the felt field, alpha = 1.
// Group arithmetic is delegated to gnark-crypto; the constants below pin the
// generator and bounds used by Starknet signatures.
var (
	// KeyValueLimit is the curve order. Private keys lie in [0, KeyValueLimit).
	KeyValueLimit = mustBigInt("3618502788666131213697322783095070105526743751716087489154079457884512865583")

	// ElementUpperBound (2^251) bounds message hashes and signature components.
	ElementUpperBound = new(big.Int).Lsh(big.NewInt(1), 251)

	curveBeta = mustElement("0x6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89")

	generator = starkcurve.G1Affine{
		X: mustElement("0x1ef15c18599971b7beced415a40f0c7deacfd9b0d1819e03d723d8bc943cfca"),
		Y: mustElement("0x5668060aa49730b7be4801df46ec62de53ecd11abe43a32873000c36e8dc1f"),
	}
)

func mustBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic("crypto: bad integer constant " + s)
	}
	return v
}

func mustElement(s string) fp.Element {
	return felt.MustFromHex(s).Element()
}

// scalarMulBase returns k*G.
func scalarMulBase(k *big.Int) starkcurve.G1Affine {
	var p starkcurve.G1Affine
	p.ScalarMultiplication(&generator, k)
	return p
}

// pointFromX lifts an x-coordinate to a curve point. Which of the two
// y roots is returned is unspecified.
func pointFromX(x felt.Felt) (starkcurve.G1Affine, bool) {
	xe := x.Element()

	var y2, t fp.Element
	y2.Square(&xe)
	y2.Mul(&y2, &xe)
	y2.Add(&y2, &xe)
	y2.Add(&y2, &curveBeta)

	if t.Sqrt(&y2) == nil {
		return starkcurve.G1Affine{}, false
	}
	p := starkcurve.G1Affine{X: xe, Y: t}
	return p, p.IsOnCurve()
}

// addSub returns a+b and a-b.
func addSub(a, b *starkcurve.G1Affine) (sum, diff starkcurve.G1Affine) {
	var ja, jb starkcurve.G1Jac
	ja.FromAffine(a)
	jb.FromAffine(b)

	js, jd := ja, ja
	js.AddAssign(&jb)
	jd.SubAssign(&jb)

	sum.FromJacobian(&js)
	diff.FromJacobian(&jd)
	return sum, diff
}

func inScalarRange(v *big.Int) bool {
	return v.Sign() > 0 && v.Cmp(KeyValueLimit) < 0
}

func belowUpperBound(v *big.Int) bool {
	return v.Cmp(ElementUpperBound) < 0
}
