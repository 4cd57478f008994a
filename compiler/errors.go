package compiler

// CompileError is returned when one or more compile-time errors were
// reported during a Compile call. Compilation always proceeds to EOF —
// CompileError is only ever constructed once, at the very end, from the
// accumulated messages.
type CompileError struct {
	Messages []string
}

func (e CompileError) Error() string {
	s := ""
	for i, m := range e.Messages {
		if i > 0 {
			s += "\n"
		}
		s += m
	}
	return s
}
