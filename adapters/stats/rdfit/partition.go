package rdfit

import "causelens/domain/rd"

// IsTreated applies the side policy to a running value. The same rule colors
// the scatter and assigns curve samples, so the two always agree.
func IsTreated(x, cutoff float64, side rd.TreatmentSide) bool {
	if side == rd.SideBelow {
		return x < cutoff
	}
	return x >= cutoff
}

// Partition labels every point and splits them into control and treated sides.
// The input slice is not modified.
func Partition(points []rd.ScatterPoint, cutoff float64, side rd.TreatmentSide) (labeled, control, treated []rd.ScatterPoint) {
	labeled = make([]rd.ScatterPoint, len(points))
	for i, p := range points {
		p.Treated = IsTreated(p.X, cutoff, side)
		labeled[i] = p
		if p.Treated {
			treated = append(treated, p)
		} else {
			control = append(control, p)
		}
	}
	return labeled, control, treated
}
