package buildconfig

// Features reports which grounded procedure families this binary can
// dispatch to. The scm: and py: evaluators are pure Go and always built;
// lib: needs cgo.
func Features() map[string]bool {
	return map[string]bool{
		"scm": true,
		"py":  true,
		"lib": nativeCompiled,
	}
}
