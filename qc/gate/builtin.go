package gate

// fixedGate is an immutable gate value: a name plus a fixed target/control
// layout within its span. One type covers every built-in arity instead of
// a u1/u2/u3 split, since the span is just len(targets)+len(controls).
type fixedGate struct {
	name     string
	targets  []int
	controls []int
}

func (g fixedGate) Name() string    { return g.name }
func (g fixedGate) QubitSpan() int  { return len(g.targets) + len(g.controls) }
func (g fixedGate) Targets() []int  { return g.targets }
func (g fixedGate) Controls() []int { return g.controls }

// ---------- constructors (singletons) --------------------------------

var (
	hGate  = &fixedGate{"H", []int{0}, []int{}}
	xGate  = &fixedGate{"X", []int{0}, []int{}}
	yGate  = &fixedGate{"Y", []int{0}, []int{}}
	sGate  = &fixedGate{"S", []int{0}, []int{}}
	zGate  = &fixedGate{"Z", []int{0}, []int{}}
	swapG  = &fixedGate{"SWAP", []int{0, 1}, []int{}}
	cnotG  = &fixedGate{"CNOT", []int{1}, []int{0}}
	czGate = &fixedGate{"CZ", []int{1}, []int{0}}
	toffG  = &fixedGate{"TOFFOLI", []int{2}, []int{0, 1}}
	fredG  = &fixedGate{"FREDKIN", []int{1, 2}, []int{0}}
	measG  = &fixedGate{"MEASURE", []int{0}, []int{}}
)

// Public accessors return the shared immutable value. Gates carry no
// mutable state, so the same instance can serve every call site.
func H() Gate       { return hGate }
func X() Gate       { return xGate }
func Y() Gate       { return yGate }
func S() Gate       { return sGate }
func Z() Gate       { return zGate }
func Swap() Gate    { return swapG }
func CNOT() Gate    { return cnotG }
func CZ() Gate      { return czGate }
func Toffoli() Gate { return toffG }
func Fredkin() Gate { return fredG }
func Measure() Gate { return measG }
