package domain

import (
	"fmt"
	"math"
	"strings"
)

// NodalKind selects the nodal modulation formula applied to a main constituent.
type NodalKind int

const (
	// NodalNone marks solar constituents, which carry no lunar nodal modulation.
	NodalNone NodalKind = iota
	NodalMm
	NodalMf
	NodalO1
	NodalJ1
	NodalOO1
	NodalK1
	NodalM2
	NodalK2
	NodalL2
	NodalM3
)

// Term is one component of a shallow-water (compound) constituent.
type Term struct {
	Name  string
	Coeff float64
}

// Constituent is a catalog entry.
//
// Doodson numbers multiply the astronomical elements (tau, s, h, p, N', p1),
// Offset is the constant phase offset in cycles. Compound constituents list
// their main components in Terms and derive everything else from them.
type Constituent struct {
	Name          string
	Index         int
	FreqCPH       float64 // Frequency in cycles per hour.
	SpeedDegPerHr float64 // Angular speed in degrees per hour.
	Doodson       [6]float64
	Offset        float64
	Nodal         NodalKind
	Terms         []Term
}

// IsCompound reports whether the constituent is built from main constituents.
func (c Constituent) IsCompound() bool {
	return len(c.Terms) > 0
}

type mainDef struct {
	name    string
	doodson [6]float64
	offset  float64
	nodal   NodalKind
}

type compoundDef struct {
	name  string
	terms []Term
}

// Rates of the astronomical elements in cycles per day, matching the linear
// terms of elementPolynomials.
var elementRates = func() [6]float64 {
	s := 13.1763965268 / 360
	h := 0.9856473354 / 360
	return [6]float64{
		1 + h - s,
		s,
		h,
		0.1114040803 / 360,
		0.0529539222 / 360,
		0.0000470684 / 360,
	}
}()

var mainConstituents = []mainDef{
	{"SA", [6]float64{0, 0, 1, 0, 0, -1}, 0, NodalNone},
	{"SSA", [6]float64{0, 0, 2, 0, 0, 0}, 0, NodalNone},
	{"MSM", [6]float64{0, 1, -2, 1, 0, 0}, 0, NodalMm},
	{"MM", [6]float64{0, 1, 0, -1, 0, 0}, 0, NodalMm},
	{"MF", [6]float64{0, 2, 0, 0, 0, 0}, 0, NodalMf},
	{"MTM", [6]float64{0, 3, 0, -1, 0, 0}, 0, NodalMf},
	{"MSQM", [6]float64{0, 4, -2, 0, 0, 0}, 0, NodalMf},
	{"ALP1", [6]float64{1, -4, 2, 1, 0, 0}, -0.25, NodalO1},
	{"2Q1", [6]float64{1, -3, 0, 2, 0, 0}, -0.25, NodalO1},
	{"SIG1", [6]float64{1, -3, 2, 0, 0, 0}, -0.25, NodalO1},
	{"Q1", [6]float64{1, -2, 0, 1, 0, 0}, -0.25, NodalO1},
	{"RHO1", [6]float64{1, -2, 2, -1, 0, 0}, -0.25, NodalO1},
	{"O1", [6]float64{1, -1, 0, 0, 0, 0}, -0.25, NodalO1},
	{"TAU1", [6]float64{1, -1, 2, 0, 0, 0}, -0.75, NodalJ1},
	{"BET1", [6]float64{1, 0, -2, 1, 0, 0}, -0.75, NodalO1},
	{"CHI1", [6]float64{1, 0, 2, -1, 0, 0}, -0.75, NodalJ1},
	{"PI1", [6]float64{1, 1, -3, 0, 0, 1}, -0.25, NodalNone},
	{"P1", [6]float64{1, 1, -2, 0, 0, 0}, -0.25, NodalNone},
	{"S1", [6]float64{1, 1, -1, 0, 0, 1}, 0.5, NodalNone},
	{"K1", [6]float64{1, 1, 0, 0, 0, 0}, -0.75, NodalK1},
	{"PSI1", [6]float64{1, 1, 1, 0, 0, -1}, -0.75, NodalNone},
	{"PHI1", [6]float64{1, 1, 2, 0, 0, 0}, -0.75, NodalNone},
	{"THE1", [6]float64{1, 2, -2, 1, 0, 0}, -0.75, NodalJ1},
	{"J1", [6]float64{1, 2, 0, -1, 0, 0}, -0.75, NodalJ1},
	{"OO1", [6]float64{1, 3, 0, 0, 0, 0}, -0.75, NodalOO1},
	{"UPS1", [6]float64{1, 4, 0, -1, 0, 0}, -0.75, NodalOO1},
	{"EPS2", [6]float64{2, -3, 2, 1, 0, 0}, 0, NodalM2},
	{"2N2", [6]float64{2, -2, 0, 2, 0, 0}, 0, NodalM2},
	{"MU2", [6]float64{2, -2, 2, 0, 0, 0}, 0, NodalM2},
	{"N2", [6]float64{2, -1, 0, 1, 0, 0}, 0, NodalM2},
	{"NU2", [6]float64{2, -1, 2, -1, 0, 0}, 0, NodalM2},
	{"H1", [6]float64{2, 0, -1, 0, 0, 1}, -0.5, NodalM2},
	{"M2", [6]float64{2, 0, 0, 0, 0, 0}, 0, NodalM2},
	{"H2", [6]float64{2, 0, 1, 0, 0, -1}, 0, NodalM2},
	{"LDA2", [6]float64{2, 1, -2, 1, 0, 0}, -0.5, NodalM2},
	{"L2", [6]float64{2, 1, 0, -1, 0, 0}, -0.5, NodalL2},
	{"T2", [6]float64{2, 2, -3, 0, 0, 1}, 0, NodalNone},
	{"S2", [6]float64{2, 2, -2, 0, 0, 0}, 0, NodalNone},
	{"R2", [6]float64{2, 2, -1, 0, 0, -1}, 0.5, NodalNone},
	{"K2", [6]float64{2, 2, 0, 0, 0, 0}, 0, NodalK2},
	{"M3", [6]float64{3, 0, 0, 0, 0, 0}, -0.5, NodalM3},
}

var compoundConstituents = []compoundDef{
	{"MSF", []Term{{"S2", 1}, {"M2", -1}}},
	{"SO1", []Term{{"S2", 1}, {"O1", -1}}},
	{"MNS2", []Term{{"M2", 1}, {"N2", 1}, {"S2", -1}}},
	{"MKS2", []Term{{"M2", 1}, {"K2", 1}, {"S2", -1}}},
	{"MSN2", []Term{{"M2", 1}, {"S2", 1}, {"N2", -1}}},
	{"2SM2", []Term{{"S2", 2}, {"M2", -1}}},
	{"MO3", []Term{{"M2", 1}, {"O1", 1}}},
	{"2MK3", []Term{{"M2", 2}, {"K1", -1}}},
	{"SO3", []Term{{"S2", 1}, {"O1", 1}}},
	{"MK3", []Term{{"M2", 1}, {"K1", 1}}},
	{"SK3", []Term{{"S2", 1}, {"K1", 1}}},
	{"N4", []Term{{"N2", 2}}},
	{"MN4", []Term{{"M2", 1}, {"N2", 1}}},
	{"M4", []Term{{"M2", 2}}},
	{"SN4", []Term{{"S2", 1}, {"N2", 1}}},
	{"MS4", []Term{{"M2", 1}, {"S2", 1}}},
	{"MK4", []Term{{"M2", 1}, {"K2", 1}}},
	{"S4", []Term{{"S2", 2}}},
	{"SK4", []Term{{"S2", 1}, {"K2", 1}}},
	{"2MK5", []Term{{"M2", 2}, {"K1", 1}}},
	{"2SK5", []Term{{"S2", 2}, {"K1", 1}}},
	{"2MN6", []Term{{"M2", 2}, {"N2", 1}}},
	{"M6", []Term{{"M2", 3}}},
	{"2MS6", []Term{{"M2", 2}, {"S2", 1}}},
	{"2MK6", []Term{{"M2", 2}, {"K2", 1}}},
	{"MSN6", []Term{{"M2", 1}, {"S2", 1}, {"N2", 1}}},
	{"2SM6", []Term{{"S2", 2}, {"M2", 1}}},
	{"MSK6", []Term{{"M2", 1}, {"S2", 1}, {"K2", 1}}},
	{"3MK7", []Term{{"M2", 3}, {"K1", 1}}},
	{"M8", []Term{{"M2", 4}}},
}

var (
	catalog      []Constituent
	catalogIndex map[string]int
)

func init() {
	catalog, catalogIndex = buildCatalog()
}

// buildCatalog derives frequencies from the Doodson numbers and orders the
// table by frequency. The resulting position is the canonical catalog index.
func buildCatalog() ([]Constituent, map[string]int) {
	mains := make(map[string]Constituent, len(mainConstituents))
	all := make([]Constituent, 0, len(mainConstituents)+len(compoundConstituents))

	for _, d := range mainConstituents {
		c := Constituent{Name: d.name, Doodson: d.doodson, Offset: d.offset, Nodal: d.nodal}
		c.FreqCPH = doodsonFrequency(c.Doodson)
		mains[c.Name] = c
		all = append(all, c)
	}

	for _, d := range compoundConstituents {
		c := Constituent{Name: d.name, Terms: d.terms}
		for _, term := range d.terms {
			m, ok := mains[term.Name]
			if !ok {
				panic(fmt.Sprintf("compound constituent %s references unknown %s", d.name, term.Name))
			}
			for k := range c.Doodson {
				c.Doodson[k] += term.Coeff * m.Doodson[k]
			}
			c.Offset += term.Coeff * m.Offset
		}
		c.FreqCPH = doodsonFrequency(c.Doodson)
		all = append(all, c)
	}

	// Insertion sort keeps the table definition order for equal frequencies.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].FreqCPH < all[j-1].FreqCPH; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	index := make(map[string]int, len(all))
	for i := range all {
		all[i].Index = i
		all[i].SpeedDegPerHr = all[i].FreqCPH * 360
		index[all[i].Name] = i
	}

	return all, index
}

func doodsonFrequency(d [6]float64) float64 {
	var cpd float64
	for k, n := range d {
		cpd += n * elementRates[k]
	}
	return cpd / 24
}

// LookupConstituent returns the catalog entry for a name (case-insensitive).
func LookupConstituent(name string) (Constituent, error) {
	i, ok := catalogIndex[normalizeName(name)]
	if !ok {
		return Constituent{}, fmt.Errorf("%w: %q", ErrUnknownConstituent, name)
	}
	return catalog[i], nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// GetConstituentSpeed returns the angular speed of a constituent in degrees per hour.
func GetConstituentSpeed(name string) (float64, bool) {
	c, err := LookupConstituent(name)
	if err != nil {
		return 0, false
	}
	return c.SpeedDegPerHr, true
}

// GetAllConstituents returns a copy of the catalog in canonical order.
func GetAllConstituents() []Constituent {
	out := make([]Constituent, len(catalog))
	copy(out, catalog)
	return out
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// wrapDeg maps an angle into [0, 360).
func wrapDeg(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
