package device

// TransformerPrimary holds the turns ratio and the secondary-referred
// winding resistance, which must not be zero.
type TransformerPrimary struct {
	Secondary  int
	Ratio      float64
	Resistance float64
}

func (*TransformerPrimary) Kind() Kind        { return KindTransformerPrimary }
func (t *TransformerPrimary) Partners() []int { return []int{t.Secondary} }
func (*TransformerPrimary) component()        {}

// PrimaryCurrent returns the current drawn into the primary winding.
func (t *TransformerPrimary) PrimaryCurrent(vp, vs float64) float64 {
	return (vp*t.Ratio - vs) * t.Ratio / t.Resistance
}

// SecondaryCurrent returns the current drawn into the secondary winding.
// It is negative while the winding delivers power.
func (t *TransformerPrimary) SecondaryCurrent(vp, vs float64) float64 {
	return (vs - vp*t.Ratio) / t.Resistance
}

// TransformerSecondary is the secondary winding.
type TransformerSecondary struct {
	Primary int
}

func (*TransformerSecondary) Kind() Kind        { return KindTransformerSecondary }
func (t *TransformerSecondary) Partners() []int { return []int{t.Primary} }
func (*TransformerSecondary) component()        {}
